package actors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"prescription-ledger/internal/ports/auth"
)

// SeedActor es una entrada del archivo SEED_FILE.
// Reemplaza el alta administrativa (fuera de alcance) para poder arrancar con cuentas.
type SeedActor struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func LoadSeedFile(path string) ([]SeedActor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var out []SeedActor
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return out, nil
}

// Seed crea los actores que falten. Emails ya registrados se saltean,
// así reiniciar el proceso no falla.
func (s *Service) Seed(ctx context.Context, items []SeedActor) (int, error) {
	created := 0
	for i, it := range items {
		role, ok := auth.ParseRole(it.Role)
		if !ok {
			return created, fmt.Errorf("seed entry %d: unknown role %q", i, it.Role)
		}
		_, err := s.Create(ctx, role, CreateInput{
			Name:     it.Name,
			Email:    it.Email,
			Password: it.Password,
		})
		if errors.Is(err, ErrEmailTaken) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed entry %d: %w", i, err)
		}
		created++
	}
	return created, nil
}
