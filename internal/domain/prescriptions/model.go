package prescriptions

import (
	"time"

	"prescription-ledger/internal/domain/actors"
)

// Payload son los datos clínicos de la receta. El ledger solo exige Drug.
type Payload struct {
	Drug         string
	Dosage       string
	Quantity     int
	Instructions string
	PatientName  string
	Notes        string
}

// Prescription es el registro persistido.
// IssuedBy es inmutable; FilledBy queda vacío hasta el fill y se setea una sola vez.
type Prescription struct {
	ID string

	Payload

	IssuedBy string
	FilledBy string

	IssuedAt  time.Time
	FilledAt  *time.Time
	UpdatedAt time.Time
}

func (p Prescription) Filled() bool {
	return p.FilledBy != ""
}

// View es lo que devuelven las lecturas: la receta con los actores resueltos.
// Dispenser es nil mientras no se haya dispensado.
type View struct {
	Prescription

	Prescriber *actors.Actor
	Dispenser  *actors.Actor
}
