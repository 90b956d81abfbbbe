package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"prescription-ledger/internal/domain/prescriptions"
)

type PrescriptionsRepo struct {
	db *sql.DB
}

func NewPrescriptionsRepo(db *sql.DB) *PrescriptionsRepo {
	return &PrescriptionsRepo{db: db}
}

const prescriptionColumns = `
	id,
	drug, dosage, quantity, instructions, patient_name, notes,
	issued_by, filled_by,
	issued_at, filled_at, updated_at`

func (r *PrescriptionsRepo) Create(ctx context.Context, p prescriptions.Prescription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prescriptions (`+prescriptionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		p.ID,
		p.Drug,
		p.Dosage,
		p.Quantity,
		p.Instructions,
		p.PatientName,
		p.Notes,
		p.IssuedBy,
		toNullString(p.FilledBy),
		p.IssuedAt,
		toNullTime(p.FilledAt),
		p.UpdatedAt,
	)
	if pgCode(err) == codeForeignKeyViolation {
		// el prescriptor se borró entre la validación y el insert
		return prescriptions.ErrNotFound
	}
	return err
}

func (r *PrescriptionsRepo) GetByID(ctx context.Context, id string) (prescriptions.Prescription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	return scanPrescription(r.db.QueryRowContext(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE id = $1
	`, id))
}

func (r *PrescriptionsRepo) List(ctx context.Context) ([]prescriptions.Prescription, error) {
	return r.query(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		ORDER BY issued_at ASC, id ASC
	`)
}

func (r *PrescriptionsRepo) ListByIssuer(ctx context.Context, prescriberID string) ([]prescriptions.Prescription, error) {
	return r.query(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE issued_by = $1
		ORDER BY issued_at ASC, id ASC
	`, prescriberID)
}

// MarkFilled resuelve la carrera en la base: el WHERE filled_by IS NULL hace que
// solo un UPDATE concurrente afecte la fila.
func (r *PrescriptionsRepo) MarkFilled(ctx context.Context, id, dispenserID string, at time.Time) (prescriptions.Prescription, error) {
	p, err := scanPrescription(r.db.QueryRowContext(ctx, `
		UPDATE prescriptions
		SET
			filled_by = $2,
			filled_at = $3,
			updated_at = $3
		WHERE id = $1 AND filled_by IS NULL
		RETURNING `+prescriptionColumns+`
	`, id, dispenserID, at))
	if err == nil {
		return p, nil
	}
	if pgCode(err) == codeForeignKeyViolation {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	if !errors.Is(err, prescriptions.ErrNotFound) {
		return prescriptions.Prescription{}, err
	}

	// 0 filas: o no existe o ya estaba dispensada
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM prescriptions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return prescriptions.Prescription{}, err
	}
	if exists {
		return prescriptions.Prescription{}, prescriptions.ErrAlreadyFilled
	}
	return prescriptions.Prescription{}, prescriptions.ErrNotFound
}

func (r *PrescriptionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return prescriptions.ErrNotFound
	}
	return nil
}

func (r *PrescriptionsRepo) ReferencesActor(ctx context.Context, actorID string) (bool, error) {
	var used bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM prescriptions
			WHERE issued_by = $1 OR filled_by = $1
		)
	`, actorID).Scan(&used)
	return used, err
}

func (r *PrescriptionsRepo) query(ctx context.Context, q string, args ...any) ([]prescriptions.Prescription, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]prescriptions.Prescription, 0)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrescription(row rowScanner) (prescriptions.Prescription, error) {
	var (
		p        prescriptions.Prescription
		filledBy sql.NullString
		filledAt sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.Drug,
		&p.Dosage,
		&p.Quantity,
		&p.Instructions,
		&p.PatientName,
		&p.Notes,
		&p.IssuedBy,
		&filledBy,
		&p.IssuedAt,
		&filledAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return prescriptions.Prescription{}, prescriptions.ErrNotFound
		}
		return prescriptions.Prescription{}, err
	}

	p.FilledBy = filledBy.String
	if filledAt.Valid {
		t := filledAt.Time
		p.FilledAt = &t
	}
	return p, nil
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// filled_at es nullable
func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
