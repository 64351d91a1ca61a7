package ports

import (
	"context"
	"time"

	"github.com/userhub/user-management/internal/core/domain"
)

// UserRepository defines the persistence contract for accounts. Counter
// mutations are atomic at the storage boundary: two concurrent failed logins
// must never lose an increment.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context, limit, offset int64) ([]*domain.User, error)

	// IncrementFailedAttempts atomically bumps the failed-login counter and
	// flips the account to locked once the counter reaches maxAttempts.
	// Returns the account as stored after the update.
	IncrementFailedAttempts(ctx context.Context, id string, maxAttempts int) (*domain.User, error)

	// RecordLoginSuccess resets the failed-login counter and stamps the login
	// time in a single update.
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error

	MarkVerified(ctx context.Context, id string) error

	// Unlock is the administrative Locked -> Active transition: clears the
	// locked flag and zeroes the counter.
	Unlock(ctx context.Context, id string) error
}
