package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinSecretLength es el largo mínimo aceptado para SESSION_SECRET (HS256).
const MinSecretLength = 32

type Config struct {
	Port  string `env:"PORT" envDefault:"2854"`
	DBDSN string `env:"DB_DSN"`

	// SeedFile es un JSON opcional con actores a provisionar al arrancar.
	SeedFile string `env:"SEED_FILE"`

	Session Session
	Log     Log
	Policy  Policy

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

type Session struct {
	Secret string        `env:"SESSION_SECRET"`
	Issuer string        `env:"SESSION_ISSUER" envDefault:"prescription-ledger"`
	TTL    time.Duration `env:"SESSION_TTL" envDefault:"72h"`
	Leeway time.Duration `env:"SESSION_LEEWAY" envDefault:"0s"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	App    string `env:"APP_NAME" envDefault:"prescription-ledger"`
}

// Policy define qué rol exige cada operación administrativa.
// Vacío = cualquier sesión válida.
type Policy struct {
	ActorAdminRole         string `env:"ACTOR_ADMIN_ROLE"`
	PrescriptionDeleteRole string `env:"PRESCRIPTION_DELETE_ROLE"`
}

// Load lee la configuración del entorno una sola vez (al arrancar).
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT is required")
	}
	if len(c.Session.Secret) < MinSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSecretLength)
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Session.Leeway < 0 {
		return errors.New("SESSION_LEEWAY must not be negative")
	}
	for name, v := range map[string]string{
		"ACTOR_ADMIN_ROLE":         c.Policy.ActorAdminRole,
		"PRESCRIPTION_DELETE_ROLE": c.Policy.PrescriptionDeleteRole,
	} {
		switch strings.TrimSpace(v) {
		case "", "prescriber", "dispenser":
		default:
			return fmt.Errorf("%s must be empty, prescriber or dispenser", name)
		}
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}
