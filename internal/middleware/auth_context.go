package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"prescription-ledger/internal/ports/auth"
)

type ctxKey string

const (
	claimsKey  ctxKey = "claims"
	authErrKey ctxKey = "auth_error"
)

var ErrMissingToken = errors.New("missing bearer token")

// AuthContext:
// - Si viene Bearer token => intenta Verify() y setea claims.
// - Si falta o es inválido => guarda el motivo y sigue; el Gate decide el 401.
// - Las rutas públicas (login, health) no se ven afectadas.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || verifier == nil {
				ctx := context.WithValue(r.Context(), authErrKey, ErrMissingToken)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				ctx := context.WithValue(r.Context(), authErrKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// WithClaims sirve para tests de handlers sin pasar por el verifier.
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func authError(ctx context.Context) error {
	if err, ok := ctx.Value(authErrKey).(error); ok {
		return err
	}
	return ErrMissingToken
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
