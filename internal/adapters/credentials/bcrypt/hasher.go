package bcrypt

import (
	"errors"
	"fmt"

	"prescription-ledger/internal/ports/credentials"

	"golang.org/x/crypto/bcrypt"
)

// Hasher implementa credentials.Hasher con bcrypt.
type Hasher struct {
	cost int
}

// NewHasher normaliza el cost a los límites de bcrypt.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", credentials.ErrSecretTooLong
		}
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

// Verify devuelve false ante digest malformado, igual que ante mismatch.
func (h *Hasher) Verify(plain, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

var _ credentials.Hasher = (*Hasher)(nil)
