package memory

import (
	"sync"

	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/domain/prescriptions"
)

// Store guarda actores y recetas bajo un mismo lock, así las referencias
// receta -> actor se validan igual que las FKs en Postgres:
// no se crea/dispensa con un actor inexistente y no se borra un actor referenciado.
type Store struct {
	mu sync.RWMutex

	actors  map[string]actors.Actor
	byEmail map[string]string // email normalizado -> id

	prescriptions map[string]prescriptions.Prescription
}

func NewStore() *Store {
	return &Store{
		actors:        make(map[string]actors.Actor),
		byEmail:       make(map[string]string),
		prescriptions: make(map[string]prescriptions.Prescription),
	}
}

func (s *Store) Actors() actors.Repository {
	return &actorRepo{s: s}
}

func (s *Store) Prescriptions() prescriptions.Repository {
	return &prescriptionRepo{s: s}
}

// referenced requiere el lock tomado.
func (s *Store) referenced(actorID string) bool {
	for _, p := range s.prescriptions {
		if p.IssuedBy == actorID || p.FilledBy == actorID {
			return true
		}
	}
	return false
}
