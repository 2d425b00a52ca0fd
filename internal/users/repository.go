package users

import (
	"context"
	"errors"

	"github.com/kunwarabhi7/car-rental/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the query.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a unique constraint on username or
	// email is violated.
	ErrDuplicate = errors.New("username or email already exists")
)

// UserPatch carries optional profile fields for Update. Nil fields are
// left untouched.
type UserPatch struct {
	Username   *string
	Email      *string
	ProfilePic *string
	GoogleID   *string
}

// Repository is the credential store. Implementations return users with
// the password and refresh-token hashes populated; the JSON tags on
// domain.User keep those out of responses.
type Repository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIdentifier resolves a login identifier that may be either an
	// email address or a username.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	// SetRefreshTokenHash replaces the stored refresh hash; nil revokes
	// the current refresh session.
	SetRefreshTokenHash(ctx context.Context, id string, hash *string) error
}
