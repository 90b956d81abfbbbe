package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/ports/auth"
)

type ActorsRepo struct {
	db *sql.DB
}

func NewActorsRepo(db *sql.DB) *ActorsRepo {
	return &ActorsRepo{db: db}
}

const actorColumns = `id, name, email, role, password_digest, created_at, updated_at`

func (r *ActorsRepo) Create(ctx context.Context, a actors.Actor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO actors (`+actorColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		a.ID,
		a.Name,
		a.Email,
		string(a.Role),
		a.PasswordDigest,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return mapActorErr(err)
}

func (r *ActorsRepo) Update(ctx context.Context, a actors.Actor) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE actors
		SET
			name = $2,
			email = $3,
			password_digest = $4,
			updated_at = $5
		WHERE id = $1
	`,
		a.ID,
		a.Name,
		a.Email,
		a.PasswordDigest,
		a.UpdatedAt,
	)
	if err != nil {
		return mapActorErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return actors.ErrNotFound
	}
	return nil
}

func (r *ActorsRepo) GetByID(ctx context.Context, id string) (actors.Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return actors.Actor{}, actors.ErrNotFound
	}
	return scanActor(r.db.QueryRowContext(ctx, `
		SELECT `+actorColumns+`
		FROM actors
		WHERE id = $1
	`, id))
}

func (r *ActorsRepo) GetByEmail(ctx context.Context, email string) (actors.Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return actors.Actor{}, actors.ErrNotFound
	}
	return scanActor(r.db.QueryRowContext(ctx, `
		SELECT `+actorColumns+`
		FROM actors
		WHERE lower(email) = $1
	`, email))
}

func (r *ActorsRepo) ListByRole(ctx context.Context, role auth.Role) ([]actors.Actor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+actorColumns+`
		FROM actors
		WHERE role = $1
		ORDER BY created_at ASC, id ASC
	`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]actors.Actor, 0)
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete: la FK de prescriptions bloquea el borrado de un actor referenciado (23503).
func (r *ActorsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM actors WHERE id = $1`, id)
	if err != nil {
		return mapActorErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return actors.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (actors.Actor, error) {
	var (
		a    actors.Actor
		role string
	)
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&role,
		&a.PasswordDigest,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return actors.Actor{}, actors.ErrNotFound
		}
		return actors.Actor{}, err
	}
	a.Role = auth.Role(role)
	return a, nil
}

func mapActorErr(err error) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return actors.ErrEmailTaken
	case codeForeignKeyViolation:
		return actors.ErrInUse
	}
	return err
}
