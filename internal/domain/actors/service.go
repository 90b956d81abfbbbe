package actors

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"prescription-ledger/internal/ports/auth"
	"prescription-ledger/internal/ports/credentials"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInUse              = errors.New("actor is referenced by prescriptions")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ReferenceLookup evita importar el paquete prescriptions (rompe ciclos).
type ReferenceLookup interface {
	ReferencesActor(ctx context.Context, actorID string) (bool, error)
}

type Service struct {
	repo   Repository
	hasher credentials.Hasher
	refs   ReferenceLookup
	now    func() time.Time

	// digest dummy para que un email inexistente cueste lo mismo que uno real
	dummyOnce   sync.Once
	dummyDigest string
}

func NewService(repo Repository, hasher credentials.Hasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
}

// UseReferenceLookup conecta el chequeo de referencias antes de borrar.
// Se llama una vez al armar el router.
func (s *Service) UseReferenceLookup(refs ReferenceLookup) {
	s.refs = refs
}

type CreateInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateInput usa punteros para PATCH real: nil = no tocar.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

// Authenticate resuelve el actor por email dentro del pool del rol y verifica la contraseña.
// Email desconocido, rol distinto o contraseña incorrecta devuelven el mismo error.
func (s *Service) Authenticate(ctx context.Context, role auth.Role, email, password string) (Actor, error) {
	email = normalizeEmail(email)
	if !role.Valid() || email == "" || password == "" {
		return Actor{}, ErrInvalidCredentials
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Actor{}, err
		}
		s.burnVerify(password)
		return Actor{}, ErrInvalidCredentials
	}
	if a.Role != role {
		s.burnVerify(password)
		return Actor{}, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, a.PasswordDigest) {
		return Actor{}, ErrInvalidCredentials
	}
	return a, nil
}

func (s *Service) Create(ctx context.Context, role auth.Role, in CreateInput) (Actor, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if !role.Valid() || name == "" || !validEmail(email) || in.Password == "" {
		return Actor{}, ErrInvalidInput
	}

	digest, err := s.hash(in.Password)
	if err != nil {
		return Actor{}, err
	}

	now := s.now().UTC()
	a := Actor{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		Role:           role,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Actor{}, err
	}
	return a, nil
}

// GetByID busca dentro del pool del rol: /prescribers/{id} nunca devuelve un dispensador.
func (s *Service) GetByID(ctx context.Context, role auth.Role, id string) (Actor, error) {
	a, err := s.Lookup(ctx, id)
	if err != nil {
		return Actor{}, err
	}
	if a.Role != role {
		return Actor{}, ErrNotFound
	}
	return a, nil
}

// Lookup resuelve un actor sin importar el rol (lo usa el ledger para embeber referencias).
func (s *Service) Lookup(ctx context.Context, id string) (Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Actor{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, role auth.Role) ([]Actor, error) {
	if !role.Valid() {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByRole(ctx, role)
}

func (s *Service) Update(ctx context.Context, role auth.Role, id string, in UpdateInput) (Actor, error) {
	a, err := s.GetByID(ctx, role, id)
	if err != nil {
		return Actor{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Actor{}, ErrInvalidInput
		}
		a.Name = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !validEmail(email) {
			return Actor{}, ErrInvalidInput
		}
		a.Email = email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return Actor{}, ErrInvalidInput
		}
		digest, err := s.hash(*in.Password)
		if err != nil {
			return Actor{}, err
		}
		a.PasswordDigest = digest
	}

	a.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return Actor{}, err
	}
	return a, nil
}

// Delete rechaza con ErrInUse si el actor emitió o dispensó alguna receta.
func (s *Service) Delete(ctx context.Context, role auth.Role, id string) error {
	a, err := s.GetByID(ctx, role, id)
	if err != nil {
		return err
	}

	if s.refs != nil {
		used, err := s.refs.ReferencesActor(ctx, a.ID)
		if err != nil {
			return err
		}
		if used {
			return ErrInUse
		}
	}

	return s.repo.Delete(ctx, a.ID)
}

func (s *Service) hash(plain string) (string, error) {
	digest, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, credentials.ErrSecretTooLong) {
			return "", ErrInvalidInput
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return digest, nil
}

func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	_ = s.hasher.Verify(password, s.dummyDigest)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
