package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer firma una sesión nueva para un actor ya autenticado.
type TokenIssuer interface {
	Issue(ctx context.Context, actorID string, role Role, name string) (Token, error)
}

// SessionManager junta ambos lados; el adapter jwt implementa los dos.
type SessionManager interface {
	AuthVerifier
	TokenIssuer
}
