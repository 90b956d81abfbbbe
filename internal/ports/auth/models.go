package auth

import (
	"strings"
	"time"
)

// Role es el tipo de actor dentro de la sesión.
type Role string

const (
	RolePrescriber Role = "prescriber"
	RoleDispenser  Role = "dispenser"
)

func (r Role) Valid() bool {
	return r == RolePrescriber || r == RoleDispenser
}

// ParseRole acepta los nombres en singular y plural ("prescribers" viene de la ruta).
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prescriber", "prescribers":
		return RolePrescriber, true
	case "dispenser", "dispensers":
		return RoleDispenser, true
	default:
		return "", false
	}
}

// Claims representa la información extraída del token.
type Claims struct {
	ActorID   string
	Role      Role
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token es lo que devuelve el issuer al hacer login.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
