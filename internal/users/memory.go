package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kunwarabhi7/car-rental/internal/domain"
)

// MemoryRepository is an in-memory Repository used by tests. It mirrors
// the Postgres implementation's semantics: unique username/email,
// lowercased email, generated ids and timestamps.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*domain.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == email {
			return nil, ErrDuplicate
		}
	}

	now := time.Now()
	stored := *user
	stored.ID = uuid.NewString()
	stored.Email = email
	if stored.Role == "" {
		stored.Role = domain.RoleUser
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.users[stored.ID] = &stored
	return copyUser(&stored), nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identifier = strings.TrimSpace(identifier)
	lowered := strings.ToLower(identifier)
	for _, u := range r.users {
		if u.Email == lowered || u.Username == identifier {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Update(_ context.Context, id string, patch UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.Username != nil && *patch.Username != u.Username {
		for _, other := range r.users {
			if other.ID != id && other.Username == *patch.Username {
				return nil, ErrDuplicate
			}
		}
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		email := strings.ToLower(*patch.Email)
		if email != u.Email {
			for _, other := range r.users {
				if other.ID != id && other.Email == email {
					return nil, ErrDuplicate
				}
			}
			u.Email = email
		}
	}
	if patch.ProfilePic != nil {
		u.ProfilePic = *patch.ProfilePic
	}
	if patch.GoogleID != nil {
		u.GoogleID = patch.GoogleID
	}
	u.UpdatedAt = time.Now()

	return copyUser(u), nil
}

func (r *MemoryRepository) SetRefreshTokenHash(_ context.Context, id string, hash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshTokenHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}
