package actors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"prescription-ledger/internal/middleware"
	"prescription-ledger/internal/platform/logger"
	"prescription-ledger/internal/platform/metrics"
	"prescription-ledger/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

const msgLoginFailed = "login failed, check authentication credentials"

// IssuedLookup evita importar el paquete prescriptions (rompe ciclos).
type IssuedLookup interface {
	IssuedIDs(ctx context.Context, prescriberID string) ([]string, error)
}

var pools = []struct {
	path string
	role auth.Role
}{
	{"/prescribers", auth.RolePrescriber},
	{"/dispensers", auth.RoleDispenser},
}

// RegisterLoginRoutes monta los endpoints públicos de login (uno por pool).
func RegisterLoginRoutes(r chi.Router, svc *Service, issuer auth.TokenIssuer, log logger.Logger, m *metrics.Metrics) {
	for _, p := range pools {
		r.Post("/login"+p.path, loginHandler(svc, issuer, p.role, log, m))
	}
}

// RegisterRoutes monta el CRUD de ambos pools. Se espera que r ya tenga gate.RequireSession.
// adminRole restringe alta/edición/baja (vacío = cualquier sesión).
func RegisterRoutes(r chi.Router, svc *Service, issued IssuedLookup, gate *middleware.Gate, adminRole string, log logger.Logger) {
	for _, p := range pools {
		role := p.role
		r.Route(p.path, func(ar chi.Router) {
			ar.Get("/", listActorsHandler(svc, role, issued, log))
			ar.Get("/{actorID}", getActorHandler(svc, role, issued, log))

			ar.With(gate.Restrict(adminRole)).Post("/", createActorHandler(svc, role, log))
			ar.With(gate.Restrict(adminRole)).Patch("/{actorID}", updateActorHandler(svc, role, issued, log))
			ar.With(gate.Restrict(adminRole)).Delete("/{actorID}", deleteActorHandler(svc, role, log))
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type auth.Role `json:"type"`
}

type loginResponse struct {
	User      loginUser `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type createActorRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateActorRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type actorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Type      auth.Role `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Solo prescriptores: ids de recetas emitidas (derivado, no se guarda en el actor).
	IssuedPrescriptions []string `json:"issued_prescriptions,omitempty"`
}

// loginHandler godoc
// @Summary Login de prescriptor o dispensador
// @Description Verifica email y contraseña dentro del pool del rol y devuelve un token de sesión (72h). Email desconocido y contraseña incorrecta responden igual (401).
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 400 {object} map[string]string "invalid json"
// @Failure 401 {object} map[string]string "login failed"
// @Router /login/prescribers [post]
// @Router /login/dispensers [post]
func loginHandler(svc *Service, issuer auth.TokenIssuer, role auth.Role, log logger.Logger, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req loginRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		a, err := svc.Authenticate(r.Context(), role, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				m.Login(string(role), "rejected")
				writeError(w, http.StatusUnauthorized, msgLoginFailed)
				return
			}
			m.Login(string(role), "error")
			log.Error("login failed", map[string]any{"role": string(role), "err": err.Error()})
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		tok, err := issuer.Issue(r.Context(), a.ID, a.Role, a.Name)
		if err != nil {
			m.Login(string(role), "error")
			log.Error("issue session failed", map[string]any{"actor_id": a.ID, "err": err.Error()})
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		m.Login(string(role), "ok")
		writeJSON(w, http.StatusOK, loginResponse{
			User:      loginUser{ID: a.ID, Name: a.Name, Type: a.Role},
			Token:     tok.Value,
			ExpiresAt: tok.ExpiresAt,
		})
	}
}

// createActorHandler godoc
// @Summary Crear prescriptor o dispensador
// @Tags actors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body createActorRequest true "Datos del actor"
// @Success 201 {object} actorResponse
// @Failure 400 {object} map[string]string "invalid input"
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 409 {object} map[string]string "email already registered"
// @Router /prescribers [post]
// @Router /dispensers [post]
func createActorHandler(svc *Service, role auth.Role, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req createActorRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		a, err := svc.Create(r.Context(), role, CreateInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, log, "create actor", err)
			return
		}

		writeJSON(w, http.StatusCreated, toActorResponse(a, nil))
	}
}

// listActorsHandler godoc
// @Summary Listar prescriptores o dispensadores
// @Tags actors
// @Produce json
// @Security BearerAuth
// @Success 200 {array} actorResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /prescribers [get]
// @Router /dispensers [get]
func listActorsHandler(svc *Service, role auth.Role, issued IssuedLookup, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), role)
		if err != nil {
			writeServiceError(w, log, "list actors", err)
			return
		}

		out := make([]actorResponse, 0, len(items))
		for _, a := range items {
			ids, err := issuedFor(r.Context(), issued, a)
			if err != nil {
				writeServiceError(w, log, "list issued prescriptions", err)
				return
			}
			out = append(out, toActorResponse(a, ids))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getActorHandler godoc
// @Summary Obtener prescriptor o dispensador
// @Tags actors
// @Produce json
// @Security BearerAuth
// @Param actorID path string true "ID del actor"
// @Success 200 {object} actorResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Router /prescribers/{actorID} [get]
// @Router /dispensers/{actorID} [get]
func getActorHandler(svc *Service, role auth.Role, issued IssuedLookup, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), role, chi.URLParam(r, "actorID"))
		if err != nil {
			writeServiceError(w, log, "get actor", err)
			return
		}

		ids, err := issuedFor(r.Context(), issued, a)
		if err != nil {
			writeServiceError(w, log, "list issued prescriptions", err)
			return
		}
		writeJSON(w, http.StatusOK, toActorResponse(a, ids))
	}
}

// updateActorHandler godoc
// @Summary Editar prescriptor o dispensador
// @Description Solo se modifican los campos presentes. Campos desconocidos responden 400.
// @Tags actors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param actorID path string true "ID del actor"
// @Param payload body updateActorRequest true "Campos a modificar"
// @Success 200 {object} actorResponse
// @Failure 400 {object} map[string]string "invalid json / invalid input"
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Failure 409 {object} map[string]string "email already registered"
// @Router /prescribers/{actorID} [patch]
// @Router /dispensers/{actorID} [patch]
func updateActorHandler(svc *Service, role auth.Role, issued IssuedLookup, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateActorRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		a, err := svc.Update(r.Context(), role, chi.URLParam(r, "actorID"), UpdateInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, log, "update actor", err)
			return
		}

		ids, err := issuedFor(r.Context(), issued, a)
		if err != nil {
			writeServiceError(w, log, "list issued prescriptions", err)
			return
		}
		writeJSON(w, http.StatusOK, toActorResponse(a, ids))
	}
}

// deleteActorHandler godoc
// @Summary Borrar prescriptor o dispensador
// @Description Un actor referenciado por alguna receta no se puede borrar (409).
// @Tags actors
// @Produce json
// @Security BearerAuth
// @Param actorID path string true "ID del actor"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Failure 409 {object} map[string]string "actor is referenced by prescriptions"
// @Router /prescribers/{actorID} [delete]
// @Router /dispensers/{actorID} [delete]
func deleteActorHandler(svc *Service, role auth.Role, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), role, chi.URLParam(r, "actorID")); err != nil {
			writeServiceError(w, log, "delete actor", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func issuedFor(ctx context.Context, issued IssuedLookup, a Actor) ([]string, error) {
	if issued == nil || a.Role != auth.RolePrescriber {
		return nil, nil
	}
	ids, err := issued.IssuedIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func toActorResponse(a Actor, issued []string) actorResponse {
	return actorResponse{
		ID:                  a.ID,
		Name:                a.Name,
		Email:               a.Email,
		Type:                a.Role,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
		IssuedPrescriptions: issued,
	}
}

func writeServiceError(w http.ResponseWriter, log logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error(op+" failed", map[string]any{"err": err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
