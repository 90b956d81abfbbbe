package jwtsession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"prescription-ledger/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 72 * time.Hour

var ErrNotConfigured = errors.New("session issuer not configured")

// Config del issuer. Secret se carga una sola vez al arrancar y no rota en runtime.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration

	// Leeway tolera desfase de reloj al validar exp. Default 0.
	Leeway time.Duration

	Now func() time.Time
}

// Issuer implementa auth.SessionManager con JWT HS256.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`

	// ExpiresAtNano es el vencimiento exacto; exp registrado solo tiene segundos.
	ExpiresAtNano int64 `json:"exp_ns"`
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrNotConfigured
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	leeway := cfg.Leeway
	if leeway < 0 {
		leeway = 0
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	// copia propia del secreto
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Issuer{
		secret: secret,
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    ttl,
		leeway: leeway,
		now:    now,
	}, nil
}

// Issue firma {sub, role, name, iat, exp, exp_ns} con exp_ns = now + TTL.
// exp se redondea hacia arriba al segundo para que nunca venza antes que exp_ns.
func (i *Issuer) Issue(_ context.Context, actorID string, role auth.Role, name string) (auth.Token, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" || !role.Valid() {
		return auth.Token{}, fmt.Errorf("issue session: %w", auth.ErrInvalidToken)
	}

	issuedAt := i.now().UTC()
	expiresAt := issuedAt.Add(i.ttl)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt.Truncate(time.Second)),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(expiresAt)),
		},
		Role:          string(role),
		Name:          name,
		ExpiresAtNano: expiresAt.UnixNano(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return auth.Token{}, fmt.Errorf("sign session: %w", err)
	}

	return auth.Token{
		Value:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify valida firma, algoritmo, payload y expiración.
// El token es válido mientras now < exp_ns + leeway.
func (i *Issuer) Verify(_ context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// exp lo validamos abajo con nuestro reloj (inyectable en tests)
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	if i.issuer != "" && parsed.Issuer != i.issuer {
		return auth.Claims{}, fmt.Errorf("%w: issuer mismatch", auth.ErrInvalidToken)
	}
	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing subject", auth.ErrInvalidToken)
	}
	role := auth.Role(parsed.Role)
	if !role.Valid() {
		return auth.Claims{}, fmt.Errorf("%w: unknown role", auth.ErrInvalidToken)
	}
	if parsed.ExpiresAt == nil || parsed.IssuedAt == nil || parsed.ExpiresAtNano <= 0 {
		return auth.Claims{}, fmt.Errorf("%w: missing iat/exp", auth.ErrInvalidToken)
	}

	exp := time.Unix(0, parsed.ExpiresAtNano).UTC()
	if !i.now().UTC().Before(exp.Add(i.leeway)) {
		return auth.Claims{}, auth.ErrExpiredToken
	}

	return auth.Claims{
		ActorID:   subject,
		Role:      role,
		Name:      parsed.Name,
		IssuedAt:  parsed.IssuedAt.Time.UTC(),
		ExpiresAt: exp,
	}, nil
}

func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}

var _ auth.SessionManager = (*Issuer)(nil)
