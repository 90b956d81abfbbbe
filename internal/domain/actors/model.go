package actors

import (
	"time"

	"prescription-ledger/internal/ports/auth"
)

// Actor es una cuenta de prescriptor o dispensador.
// PasswordDigest nunca sale en respuestas HTTP.
type Actor struct {
	ID    string
	Name  string
	Email string // único, normalizado a minúsculas
	Role  auth.Role

	PasswordDigest string

	CreatedAt time.Time
	UpdatedAt time.Time
}
