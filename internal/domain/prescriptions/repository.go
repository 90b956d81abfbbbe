package prescriptions

import (
	"context"
	"time"
)

// Repository es el puerto de almacenamiento de recetas.
// Las implementaciones devuelven ErrNotFound / ErrAlreadyFilled.
type Repository interface {
	Create(ctx context.Context, p Prescription) error
	GetByID(ctx context.Context, id string) (Prescription, error)
	List(ctx context.Context) ([]Prescription, error)
	ListByIssuer(ctx context.Context, prescriberID string) ([]Prescription, error)

	// MarkFilled es un update condicional atómico: solo setea FilledBy si está vacío.
	// Nunca un read-then-write desde el servicio.
	MarkFilled(ctx context.Context, id, dispenserID string, at time.Time) (Prescription, error)

	Delete(ctx context.Context, id string) error
	ReferencesActor(ctx context.Context, actorID string) (bool, error)
}
