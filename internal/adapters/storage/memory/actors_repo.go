package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/ports/auth"
)

type actorRepo struct {
	s *Store
}

func (r *actorRepo) Create(ctx context.Context, a actors.Actor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("actor id required")
	}
	if _, exists := r.s.actors[a.ID]; exists {
		return errors.New("actor already exists")
	}

	key := emailKey(a.Email)
	if _, taken := r.s.byEmail[key]; taken {
		return actors.ErrEmailTaken
	}

	r.s.actors[a.ID] = a
	r.s.byEmail[key] = a.ID
	return nil
}

func (r *actorRepo) Update(ctx context.Context, a actors.Actor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, exists := r.s.actors[a.ID]
	if !exists {
		return actors.ErrNotFound
	}

	key := emailKey(a.Email)
	if owner, taken := r.s.byEmail[key]; taken && owner != a.ID {
		return actors.ErrEmailTaken
	}

	delete(r.s.byEmail, emailKey(prev.Email))
	r.s.byEmail[key] = a.ID
	r.s.actors[a.ID] = a
	return nil
}

func (r *actorRepo) GetByID(ctx context.Context, id string) (actors.Actor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.actors[id]
	if !ok {
		return actors.Actor{}, actors.ErrNotFound
	}
	return a, nil
}

func (r *actorRepo) GetByEmail(ctx context.Context, email string) (actors.Actor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[emailKey(email)]
	if !ok {
		return actors.Actor{}, actors.ErrNotFound
	}
	return r.s.actors[id], nil
}

func (r *actorRepo) ListByRole(ctx context.Context, role auth.Role) ([]actors.Actor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]actors.Actor, 0)
	for _, a := range r.s.actors {
		if a.Role == role {
			out = append(out, a)
		}
	}

	// Orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete rechaza con ErrInUse si alguna receta referencia al actor (equivale a la FK en Postgres).
func (r *actorRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.actors[id]
	if !ok {
		return actors.ErrNotFound
	}
	if r.s.referenced(id) {
		return actors.ErrInUse
	}
	delete(r.s.byEmail, emailKey(a.Email))
	delete(r.s.actors, id)
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
