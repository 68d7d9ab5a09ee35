// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// credentialService implements the CredentialUsecase interface.
type credentialService struct {
	store     repository.UserRepository
	hasher    service.PasswordHasher
	issuer    service.TokenService
	publisher service.EventPublisher
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewCredentialService is the constructor for credentialService. publisher may be nil.
func NewCredentialService(
	store repository.UserRepository,
	hasher service.PasswordHasher,
	issuer service.TokenService,
	publisher service.EventPublisher,
	logger *slog.Logger,
) usecase.CredentialUsecase {
	return &credentialService{
		store:     store,
		hasher:    hasher,
		issuer:    issuer,
		publisher: publisher,
		validate:  newCredentialValidator(),
		logger:    logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *credentialService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register validates the input, checks both uniqueness rules and persists a new user.
func (srv *credentialService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.User, error) {
	username := entity.NormalizeUsername(input.Username)
	email := entity.NormalizeEmail(input.Email)

	if err := validateInput(srv.validate, &registration{
		Username: username,
		Email:    email,
		Password: input.Password,
	}); err != nil {
		srv.log(ctx).Warn("Registration rejected by validation", slog.String("username", username), slog.Any("error", err))

		return nil, err
	}

	exists, err := srv.store.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check username availability")
	}
	if exists {
		srv.log(ctx).Warn("Registration failed, username already exists", slog.String("username", username))

		return nil, domainerrors.ErrUsernameTaken
	}

	exists, err = srv.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check email availability")
	}
	if exists {
		srv.log(ctx).Warn("Registration failed, email already exists", slog.String("email", email))

		return nil, domainerrors.ErrEmailTaken
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Join(domainerrors.ErrPasswordHashFailed, err)
	}

	user := entity.NewUser(username, email, hash)
	if err := srv.store.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the checks above; the store's
		// unique constraint reports it as ErrUsernameTaken or ErrEmailTaken.
		return nil, errors.Wrap(err, "failed to create user during registration")
	}

	srv.log(ctx).Info("User registered", slog.String("userID", user.ID), slog.String("username", user.Username))
	srv.publish(ctx, service.AccountRegistered, user)

	return user, nil
}

// Login authenticates username and password and issues a session token.
func (srv *credentialService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	username := entity.NormalizeUsername(input.Username)
	if username == "" || input.Password == "" {
		return nil, domainerrors.ErrCredentialsRequired
	}

	user, err := srv.store.FindByUsername(ctx, username)
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		srv.log(ctx).Warn("Login failed, user not found", slog.String("username", username))

		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user during login")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed, password mismatch", slog.String("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}

	token, err := srv.issuer.Issue(user.Identity())
	if err != nil {
		srv.log(ctx).Error("Failed to issue session token", slog.String("userID", user.ID), slog.Any("error", err))

		return nil, errors.Join(domainerrors.ErrTokenIssueFailed, err)
	}

	srv.log(ctx).Info("User logged in", slog.String("userID", user.ID))

	return &usecase.LoginOutput{User: user, Token: token}, nil
}

// ChangeEmail moves the user to newEmail unless another user already owns it.
func (srv *credentialService) ChangeEmail(ctx context.Context, userID, newEmail string) (*entity.User, error) {
	email := entity.NormalizeEmail(newEmail)
	if err := validateInput(srv.validate, &emailChange{Email: email}); err != nil {
		return nil, err
	}

	user, err := srv.store.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user for email change")
	}

	owner, err := srv.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domainerrors.ErrUserNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "failed to check email availability")
	case owner.ID != user.ID:
		srv.log(ctx).Warn("Email change failed, email already exists", slog.String("userID", user.ID), slog.String("email", email))

		return nil, domainerrors.ErrEmailTaken
	}

	user.UpdateEmail(email)
	if err := srv.store.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update user email")
	}

	srv.log(ctx).Info("User email changed", slog.String("userID", user.ID))
	srv.publish(ctx, service.AccountEmailChanged, user)

	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
// Tokens issued before the change stay valid until they expire.
func (srv *credentialService) ChangePassword(ctx context.Context, userID string, input *usecase.ChangePasswordInput) (*entity.User, error) {
	if err := validateInput(srv.validate, &passwordChange{
		OldPassword: input.OldPassword,
		NewPassword: input.NewPassword,
	}); err != nil {
		return nil, err
	}
	if err := validateInput(srv.validate, &newPassword{NewPassword: input.NewPassword}); err != nil {
		return nil, err
	}

	user, err := srv.store.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user for password change")
	}

	if !srv.hasher.Check(input.OldPassword, user.PasswordHash) {
		srv.log(ctx).Warn("Password change failed, old password is incorrect", slog.String("userID", user.ID))

		return nil, domainerrors.ErrOldPasswordIncorrect
	}

	hash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		srv.log(ctx).Error("Failed to hash new password", slog.String("userID", user.ID), slog.Any("error", err))

		return nil, errors.Join(domainerrors.ErrPasswordHashFailed, err)
	}

	user.UpdatePasswordHash(hash)
	if err := srv.store.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update user password")
	}

	srv.log(ctx).Info("User password changed", slog.String("userID", user.ID))
	srv.publish(ctx, service.AccountPasswordChanged, user)

	return user, nil
}

// GetByID returns the user with userID.
func (srv *credentialService) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	user, err := srv.store.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return user, nil
}

// publish emits an account event. Failures are logged and never fail the operation.
func (srv *credentialService) publish(ctx context.Context, eventType service.AccountEventType, user *entity.User) {
	if srv.publisher == nil {
		return
	}

	event := &service.AccountEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
		RequestID:  deliverycontext.RequestIDFromContext(ctx),
	}

	if err := srv.publisher.PublishAccountEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish account event",
			slog.String("type", string(eventType)),
			slog.String("userID", user.ID),
			slog.Any("error", err),
		)
	}
}
