package ports

import (
	"context"

	"github.com/userhub/user-management/internal/core/domain"
)

// RegisterInput carries the fields presented at account creation.
type RegisterInput struct {
	Nickname          string
	Email             string
	Password          string
	FirstName         string
	LastName          string
	Bio               string
	ProfilePictureURL string
}

// ProfileUpdate carries the mutable profile fields. Empty strings mean
// "leave unchanged".
type ProfileUpdate struct {
	FirstName         string
	LastName          string
	Bio               string
	ProfilePictureURL string
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int64) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	Unlock(ctx context.Context, id string) (*domain.User, error)
}
