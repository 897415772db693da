package repository

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by exact email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateRoles stores both role flags of a user.
	UpdateRoles(ctx context.Context, id string, isRider, isPassenger bool, updatedAt time.Time) error
}
