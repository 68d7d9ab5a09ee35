// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatekeeper/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Username string
	Password string
}

// ChangePasswordInput carries the current and the replacement password.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// --- Output DTOs ---

// LoginOutput returns the authenticated user and its session token.
type LoginOutput struct {
	User  *entity.User
	Token string
}

// CredentialUsecase defines the credential operations the delivery layer depends on.
// Every error returned is, or wraps, a domainerrors.AppError.
type CredentialUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*entity.User, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	ChangeEmail(ctx context.Context, userID, newEmail string) (*entity.User, error)
	ChangePassword(ctx context.Context, userID string, input *ChangePasswordInput) (*entity.User, error)
	GetByID(ctx context.Context, userID string) (*entity.User, error)
}
