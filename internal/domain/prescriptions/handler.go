package prescriptions

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/middleware"
	"prescription-ledger/internal/platform/logger"
	"prescription-ledger/internal/platform/metrics"
	"prescription-ledger/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las rutas del ledger. Se espera que r ya tenga gate.RequireSession.
// deleteRole restringe el borrado (vacío = cualquier sesión).
func RegisterRoutes(r chi.Router, svc *Service, gate *middleware.Gate, deleteRole string, log logger.Logger, m *metrics.Metrics) {
	r.Route("/prescriptions", func(pr chi.Router) {
		pr.With(gate.RequireRole(auth.RolePrescriber)).Post("/", issueHandler(svc, log, m))
		pr.Get("/", listHandler(svc, log))
		pr.Get("/{prescriptionID}", getHandler(svc, log))
		pr.With(gate.RequireRole(auth.RoleDispenser)).Patch("/{prescriptionID}/fill", fillHandler(svc, log, m))
		pr.With(gate.Restrict(deleteRole)).Delete("/{prescriptionID}", deleteHandler(svc, log))
	})

	// Historial del actor logueado (recetas emitidas por él)
	r.Get("/prescription-history", historyHandler(svc, log))
}

// issueRequest es el esquema explícito del alta; campos desconocidos => 400.
type issueRequest struct {
	Drug         string `json:"drug"`
	Dosage       string `json:"dosage"`
	Quantity     int    `json:"quantity"`
	Instructions string `json:"instructions"`
	PatientName  string `json:"patient_name"`
	Notes        string `json:"notes"`
}

type actorSummary struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Type  auth.Role `json:"type"`
}

// prescriptionResponse embebe los actores resueltos. filled_by es null hasta el fill.
type prescriptionResponse struct {
	ID           string        `json:"id"`
	Drug         string        `json:"drug"`
	Dosage       string        `json:"dosage"`
	Quantity     int           `json:"quantity"`
	Instructions string        `json:"instructions"`
	PatientName  string        `json:"patient_name"`
	Notes        string        `json:"notes"`
	IssuedBy     *actorSummary `json:"issued_by"`
	FilledBy     *actorSummary `json:"filled_by"`
	IssuedAt     time.Time     `json:"issued_at"`
	FilledAt     *time.Time    `json:"filled_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// issueHandler godoc
// @Summary Emitir receta
// @Description Crea una receta a nombre del prescriptor logueado. Solo sesiones de prescriptor; un dispensador recibe 401 "incorrect user type".
// @Tags prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body issueRequest true "Datos de la receta; drug es obligatorio"
// @Success 201 {object} prescriptionResponse
// @Failure 400 {object} map[string]string "invalid json / invalid input"
// @Failure 401 {object} map[string]string "unauthorized / incorrect user type"
// @Failure 404 {object} map[string]string "prescriber not found"
// @Router /prescriptions [post]
func issueHandler(svc *Service, log logger.Logger, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req issueRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		v, err := svc.Issue(r.Context(), claims.ActorID, IssueInput{
			Drug:         req.Drug,
			Dosage:       req.Dosage,
			Quantity:     req.Quantity,
			Instructions: req.Instructions,
			PatientName:  req.PatientName,
			Notes:        req.Notes,
		})
		if err != nil {
			writeServiceError(w, log, "issue prescription", err)
			return
		}

		m.Issued()
		log.Info("prescription issued", map[string]any{
			"prescription_id": v.ID,
			"prescriber_id":   v.IssuedBy,
		})
		writeJSON(w, http.StatusCreated, toResponse(v))
	}
}

// fillHandler godoc
// @Summary Dispensar receta
// @Description Marca la receta como dispensada por el dispensador logueado. Primer fill gana: un segundo intento devuelve 409 y no cambia el dispensador guardado.
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Param prescriptionID path string true "ID de la receta"
// @Success 200 {object} prescriptionResponse
// @Failure 401 {object} map[string]string "unauthorized / incorrect user type"
// @Failure 404 {object} map[string]string "not found"
// @Failure 409 {object} map[string]string "prescription already filled"
// @Router /prescriptions/{prescriptionID}/fill [patch]
func fillHandler(svc *Service, log logger.Logger, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		id := chi.URLParam(r, "prescriptionID")

		v, err := svc.Fill(r.Context(), id, claims.ActorID)
		if err != nil {
			switch {
			case errors.Is(err, ErrAlreadyFilled):
				m.Fill("conflict")
			case errors.Is(err, ErrNotFound):
				m.Fill("not_found")
			default:
				m.Fill("error")
			}
			writeServiceError(w, log, "fill prescription", err)
			return
		}

		m.Fill("ok")
		log.Info("prescription filled", map[string]any{
			"prescription_id": v.ID,
			"dispenser_id":    v.FilledBy,
		})
		writeJSON(w, http.StatusOK, toResponse(v))
	}
}

// listHandler godoc
// @Summary Listar recetas
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} prescriptionResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /prescriptions [get]
func listHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, log, "list prescriptions", err)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(items))
	}
}

// getHandler godoc
// @Summary Obtener receta
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Param prescriptionID path string true "ID de la receta"
// @Success 200 {object} prescriptionResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Failure 404 {object} map[string]string "not found"
// @Router /prescriptions/{prescriptionID} [get]
func getHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Get(r.Context(), chi.URLParam(r, "prescriptionID"))
		if err != nil {
			writeServiceError(w, log, "get prescription", err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(v))
	}
}

// historyHandler godoc
// @Summary Historial de recetas emitidas
// @Description Recetas emitidas por quien llama; vacío para dispensadores.
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} prescriptionResponse
// @Failure 401 {object} map[string]string "unauthorized"
// @Router /prescription-history [get]
func historyHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		items, err := svc.ListIssuedBy(r.Context(), claims.ActorID)
		if err != nil {
			writeServiceError(w, log, "prescription history", err)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(items))
	}
}

// deleteHandler godoc
// @Summary Borrar receta
// @Tags prescriptions
// @Produce json
// @Security BearerAuth
// @Param prescriptionID path string true "ID de la receta"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string "unauthorized / incorrect user type"
// @Failure 404 {object} map[string]string "not found"
// @Router /prescriptions/{prescriptionID} [delete]
func deleteHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "prescriptionID")); err != nil {
			writeServiceError(w, log, "delete prescription", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func toResponse(v View) prescriptionResponse {
	return prescriptionResponse{
		ID:           v.ID,
		Drug:         v.Drug,
		Dosage:       v.Dosage,
		Quantity:     v.Quantity,
		Instructions: v.Instructions,
		PatientName:  v.PatientName,
		Notes:        v.Notes,
		IssuedBy:     toSummary(v.Prescriber),
		FilledBy:     toSummary(v.Dispenser),
		IssuedAt:     v.IssuedAt,
		FilledAt:     v.FilledAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func toResponses(items []View) []prescriptionResponse {
	out := make([]prescriptionResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toResponse(v))
	}
	return out
}

func toSummary(a *actors.Actor) *actorSummary {
	if a == nil {
		return nil
	}
	return &actorSummary{ID: a.ID, Name: a.Name, Email: a.Email, Type: a.Role}
}

func writeServiceError(w http.ResponseWriter, log logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrAlreadyFilled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error(op+" failed", map[string]any{"err": err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos (actors/prescriptions)
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
