package credentials

import "errors"

var ErrSecretTooLong = errors.New("secret too long")

// Hasher genera y compara digests de contraseñas.
// El secreto en claro nunca se loguea ni se persiste.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}
