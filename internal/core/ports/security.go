package ports

import (
	"time"

	"github.com/userhub/user-management/internal/core/domain"
)

// PasswordHasher is the one-way credential transform. Verify reports a
// mismatch as (false, nil); a malformed stored hash is an error, never a
// silent false.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// TokenCodec issues and decodes self-contained access tokens. Decode failures
// are typed: domain.ErrTokenExpired or domain.ErrTokenInvalid.
type TokenCodec interface {
	Issue(identity string, role domain.Role, ttl time.Duration) (string, error)
	Decode(token string) (domain.Principal, error)
}
