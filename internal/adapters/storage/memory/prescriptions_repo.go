package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"prescription-ledger/internal/domain/prescriptions"
	"prescription-ledger/internal/ports/auth"
)

type prescriptionRepo struct {
	s *Store
}

// Create exige que el emisor exista y sea prescriptor en el mismo lock que el borrado de actores.
func (r *prescriptionRepo) Create(ctx context.Context, p prescriptions.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("prescription id required")
	}
	if _, exists := r.s.prescriptions[p.ID]; exists {
		return errors.New("prescription already exists")
	}
	if !r.hasActor(p.IssuedBy, auth.RolePrescriber) {
		return prescriptions.ErrNotFound
	}
	if p.Filled() && !r.hasActor(p.FilledBy, auth.RoleDispenser) {
		return prescriptions.ErrNotFound
	}
	r.s.prescriptions[p.ID] = clonePrescription(p)
	return nil
}

func (r *prescriptionRepo) GetByID(ctx context.Context, id string) (prescriptions.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.prescriptions[id]
	if !ok {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	return clonePrescription(p), nil
}

func (r *prescriptionRepo) List(ctx context.Context) ([]prescriptions.Prescription, error) {
	return r.filter(func(prescriptions.Prescription) bool { return true }), nil
}

func (r *prescriptionRepo) ListByIssuer(ctx context.Context, prescriberID string) ([]prescriptions.Prescription, error) {
	return r.filter(func(p prescriptions.Prescription) bool { return p.IssuedBy == prescriberID }), nil
}

// MarkFilled chequea y escribe bajo el mismo lock: dos fills concurrentes
// no pueden ganar ambos, y el dispensador tiene que seguir existiendo.
func (r *prescriptionRepo) MarkFilled(ctx context.Context, id, dispenserID string, at time.Time) (prescriptions.Prescription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.prescriptions[id]
	if !ok {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	if p.Filled() {
		return prescriptions.Prescription{}, prescriptions.ErrAlreadyFilled
	}
	if !r.hasActor(dispenserID, auth.RoleDispenser) {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}

	filledAt := at
	p.FilledBy = dispenserID
	p.FilledAt = &filledAt
	p.UpdatedAt = at
	r.s.prescriptions[id] = p
	return clonePrescription(p), nil
}

func (r *prescriptionRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.prescriptions[id]; !ok {
		return prescriptions.ErrNotFound
	}
	delete(r.s.prescriptions, id)
	return nil
}

func (r *prescriptionRepo) ReferencesActor(ctx context.Context, actorID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.referenced(actorID), nil
}

// hasActor requiere el lock tomado.
func (r *prescriptionRepo) hasActor(id string, role auth.Role) bool {
	a, ok := r.s.actors[id]
	return ok && a.Role == role
}

func (r *prescriptionRepo) filter(keep func(prescriptions.Prescription) bool) []prescriptions.Prescription {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]prescriptions.Prescription, 0)
	for _, p := range r.s.prescriptions {
		if keep(p) {
			out = append(out, clonePrescription(p))
		}
	}

	// Orden estable por issued_at asc
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].IssuedAt.Before(out[j].IssuedAt)
	})
	return out
}

// clonePrescription evita compartir el puntero FilledAt con quien llama.
func clonePrescription(p prescriptions.Prescription) prescriptions.Prescription {
	if p.FilledAt != nil {
		t := *p.FilledAt
		p.FilledAt = &t
	}
	return p
}
