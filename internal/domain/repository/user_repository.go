// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"gatekeeper/internal/domain/entity"
)

// UserRepository is the credential store. Implementations enforce uniqueness of
// username and email themselves; a violation on Create or Update must surface as
// domainerrors.ErrUsernameTaken or domainerrors.ErrEmailTaken.
// Lookups that match nothing return domainerrors.ErrUserNotFound.
type UserRepository interface {
	// Create persists a user without an ID and sets the store-assigned ID and timestamps on it.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a user by ID. Malformed IDs are treated as not found.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// FindByUsername retrieves a user by normalized username.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByEmail retrieves a user by normalized email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Update writes the mutable fields (email, password hash) of an existing user.
	Update(ctx context.Context, user *entity.User) error

	// ExistsByUsername reports whether any user owns the username.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether any user owns the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
