package actors

import (
	"context"

	"prescription-ledger/internal/ports/auth"
)

// Repository es el puerto de almacenamiento de actores.
// Las implementaciones devuelven ErrNotFound / ErrEmailTaken / ErrInUse.
type Repository interface {
	Create(ctx context.Context, a Actor) error
	Update(ctx context.Context, a Actor) error
	GetByID(ctx context.Context, id string) (Actor, error)
	GetByEmail(ctx context.Context, email string) (Actor, error)
	ListByRole(ctx context.Context, role auth.Role) ([]Actor, error)
	Delete(ctx context.Context, id string) error
}
