package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"prescription-ledger/internal/platform/logger"
	"prescription-ledger/internal/platform/metrics"
	"prescription-ledger/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	msgUnauthorized  = "unauthorized"
	msgIncorrectType = "incorrect user type"
)

// Gate corta el request antes de llegar al servicio:
// Unauthenticated -> Authenticated(actor, rol) -> Authorized -> handler.
// Cualquier paso fallido responde 401 y no delega.
type Gate struct {
	log     logger.Logger
	metrics *metrics.Metrics
}

func NewGate(log logger.Logger, m *metrics.Metrics) *Gate {
	if log == nil {
		log = logger.Discard()
	}
	return &Gate{log: log, metrics: m}
}

// RequireSession exige claims válidos (cualquier rol).
func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetClaims(r.Context()); !ok {
			reason := "missing_token"
			err := authError(r.Context())
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				reason = "expired_token"
			case errors.Is(err, auth.ErrInvalidToken):
				reason = "invalid_token"
			}
			g.metrics.GateRejected(reason)
			g.log.Debug("unauthenticated request", map[string]any{
				"path":       r.URL.Path,
				"reason":     reason,
				"request_id": chimw.GetReqID(r.Context()),
			})
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole exige sesión y además un rol concreto.
// El rechazo por rol usa un mensaje distinto al de autenticación.
func (g *Gate) RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := GetClaims(r.Context())
			if claims.Role != role {
				g.metrics.GateRejected("incorrect_user_type")
				g.log.Warn("incorrect user type", map[string]any{
					"actor_id":   claims.ActorID,
					"role":       string(claims.Role),
					"required":   string(role),
					"path":       r.URL.Path,
					"request_id": chimw.GetReqID(r.Context()),
				})
				writeError(w, http.StatusUnauthorized, msgIncorrectType)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// Restrict aplica una política configurable: rol vacío = cualquier sesión.
func (g *Gate) Restrict(role string) func(http.Handler) http.Handler {
	if r, ok := auth.ParseRole(role); ok {
		return g.RequireRole(r)
	}
	return g.RequireSession
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
