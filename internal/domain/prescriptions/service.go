package prescriptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/ports/auth"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyFilled = errors.New("prescription already filled")
)

// ActorLookup resuelve actores para validar referencias y embeberlos en lecturas.
type ActorLookup interface {
	Lookup(ctx context.Context, id string) (actors.Actor, error)
}

type Service struct {
	repo   Repository
	actors ActorLookup
	now    func() time.Time
}

func NewService(repo Repository, actorLookup ActorLookup) *Service {
	return &Service{
		repo:   repo,
		actors: actorLookup,
		now:    time.Now,
	}
}

type IssueInput struct {
	Drug         string
	Dosage       string
	Quantity     int
	Instructions string
	PatientName  string
	Notes        string
}

// Issue crea la receta a nombre del prescriptor. El gate ya validó el rol, pero igual
// re-resolvemos el actor: un token vigente puede pertenecer a un actor borrado.
// La lista "emitidas" del prescriptor es una consulta derivada (ListIssuedBy),
// así que esto es una única escritura.
func (s *Service) Issue(ctx context.Context, prescriberID string, in IssueInput) (View, error) {
	prescriber, err := s.resolve(ctx, prescriberID, auth.RolePrescriber)
	if err != nil {
		return View{}, err
	}

	payload, err := normalizePayload(in)
	if err != nil {
		return View{}, err
	}

	now := s.now().UTC()
	p := Prescription{
		ID:        uuid.NewString(),
		Payload:   payload,
		IssuedBy:  prescriber.ID,
		IssuedAt:  now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return View{}, err
	}
	return View{Prescription: p, Prescriber: &prescriber}, nil
}

// Fill: primer fill gana. Un segundo intento (de quien sea) devuelve ErrAlreadyFilled
// y el dispensador guardado no cambia.
func (s *Service) Fill(ctx context.Context, id, dispenserID string) (View, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return View{}, ErrNotFound
	}

	if _, err := s.resolve(ctx, dispenserID, auth.RoleDispenser); err != nil {
		return View{}, err
	}

	p, err := s.repo.MarkFilled(ctx, id, strings.TrimSpace(dispenserID), s.now().UTC())
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, p)
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return View{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, p)
}

// List no filtra por actor: cualquier sesión ve todas las recetas.
func (s *Service) List(ctx context.Context) ([]View, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, items)
}

func (s *Service) ListIssuedBy(ctx context.Context, prescriberID string) ([]View, error) {
	prescriberID = strings.TrimSpace(prescriberID)
	if prescriberID == "" {
		return []View{}, nil
	}
	items, err := s.repo.ListByIssuer(ctx, prescriberID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, items)
}

// IssuedIDs implementa actors.IssuedLookup.
func (s *Service) IssuedIDs(ctx context.Context, prescriberID string) ([]string, error) {
	items, err := s.repo.ListByIssuer(ctx, prescriberID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out, nil
}

// ReferencesActor implementa actors.ReferenceLookup.
func (s *Service) ReferencesActor(ctx context.Context, actorID string) (bool, error) {
	return s.repo.ReferencesActor(ctx, actorID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) resolve(ctx context.Context, id string, role auth.Role) (actors.Actor, error) {
	a, err := s.actors.Lookup(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, actors.ErrNotFound) {
			return actors.Actor{}, ErrNotFound
		}
		return actors.Actor{}, err
	}
	if a.Role != role {
		return actors.Actor{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) view(ctx context.Context, p Prescription) (View, error) {
	v := View{Prescription: p}

	a, err := s.optionalActor(ctx, p.IssuedBy)
	if err != nil {
		return View{}, err
	}
	v.Prescriber = a

	if p.Filled() {
		a, err := s.optionalActor(ctx, p.FilledBy)
		if err != nil {
			return View{}, err
		}
		v.Dispenser = a
	}
	return v, nil
}

func (s *Service) views(ctx context.Context, items []Prescription) ([]View, error) {
	out := make([]View, 0, len(items))
	for _, p := range items {
		v, err := s.view(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// optionalActor devuelve nil si el actor ya no existe (no debería pasar: el borrado se bloquea).
func (s *Service) optionalActor(ctx context.Context, id string) (*actors.Actor, error) {
	if id == "" {
		return nil, nil
	}
	a, err := s.actors.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, actors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func normalizePayload(in IssueInput) (Payload, error) {
	p := Payload{
		Drug:         strings.TrimSpace(in.Drug),
		Dosage:       strings.TrimSpace(in.Dosage),
		Quantity:     in.Quantity,
		Instructions: strings.TrimSpace(in.Instructions),
		PatientName:  strings.TrimSpace(in.PatientName),
		Notes:        strings.TrimSpace(in.Notes),
	}
	if p.Drug == "" {
		return Payload{}, ErrInvalidInput
	}
	if p.Quantity < 0 {
		return Payload{}, ErrInvalidInput
	}
	return p, nil
}
