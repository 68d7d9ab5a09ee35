package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	mockRepo "gatekeeper/internal/mocks/repository"
	mockSvc "gatekeeper/internal/mocks/service"
	"gatekeeper/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// credentialServiceFixtures holds all test dependencies for credential service tests.
type credentialServiceFixtures struct {
	service   usecase.CredentialUsecase
	store     *mockRepo.MockUserRepository
	hasher    *mockSvc.MockPasswordHasher
	issuer    *mockSvc.MockTokenService
	publisher *mockSvc.MockEventPublisher
}

func createTestCredentialService(t *testing.T) credentialServiceFixtures {
	store := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	issuer := mockSvc.NewMockTokenService(t)
	publisher := mockSvc.NewMockEventPublisher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return credentialServiceFixtures{
		service:   NewCredentialService(store, hasher, issuer, publisher, logger),
		store:     store,
		hasher:    hasher,
		issuer:    issuer,
		publisher: publisher,
	}
}

func existingUser() *entity.User {
	return &entity.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash:secret1",
	}
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, domainerrors.KindValidation, appErr.Kind())
	assert.Equal(t, field, appErr.Details())
}

func TestCredentialService_Register_Success(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := deliverycontext.WithRequestID(context.Background(), "req-1")

	fx.store.EXPECT().ExistsByUsername(ctx, "alice").Return(false, nil)
	fx.store.EXPECT().ExistsByEmail(ctx, "alice@example.com").Return(false, nil)
	fx.hasher.EXPECT().Hash("secret1").Return("hash:secret1", nil)
	fx.store.EXPECT().
		Create(ctx, mock.MatchedBy(func(u *entity.User) bool {
			return u.ID == "" && u.Username == "alice" && u.Email == "alice@example.com" && u.PasswordHash == "hash:secret1"
		})).
		Run(func(_ context.Context, u *entity.User) { u.ID = "user-1" }).
		Return(nil)
	fx.publisher.EXPECT().
		PublishAccountEvent(ctx, mock.MatchedBy(func(e *service.AccountEvent) bool {
			return e.Type == service.AccountRegistered && e.UserID == "user-1" && e.RequestID == "req-1" && e.EventID != ""
		})).
		Return(nil)

	user, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "  alice ",
		Email:    " Alice@Example.com",
		Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
}

func TestCredentialService_Register_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.RegisterInput
		wantField string
	}{
		{
			name:      "short username",
			input:     usecase.RegisterInput{Username: "al", Email: "alice@example.com", Password: "secret1"},
			wantField: "username",
		},
		{
			name:      "username short after trim",
			input:     usecase.RegisterInput{Username: "  al  ", Email: "alice@example.com", Password: "secret1"},
			wantField: "username",
		},
		{
			name:      "email without domain dot",
			input:     usecase.RegisterInput{Username: "alice", Email: "alice@example", Password: "secret1"},
			wantField: "email",
		},
		{
			name:      "email with inner space",
			input:     usecase.RegisterInput{Username: "alice", Email: "ali ce@example.com", Password: "secret1"},
			wantField: "email",
		},
		{
			name:      "short password",
			input:     usecase.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "12345"},
			wantField: "password",
		},
		{
			name:      "short password with invalid other fields reports first field",
			input:     usecase.RegisterInput{Username: "a", Email: "bad", Password: "1"},
			wantField: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestCredentialService(t)

			user, err := fx.service.Register(context.Background(), &tt.input)

			require.Error(t, err)
			assert.Nil(t, user)
			assertValidationField(t, err, tt.wantField)
		})
	}
}

func TestCredentialService_Register_ShortPasswordAlwaysValidation(t *testing.T) {
	for _, password := range []string{"", "a", "abcde", "12345"} {
		fx := createTestCredentialService(t)

		_, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: password,
		})

		assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err), "password %q", password)
	}
}

func TestCredentialService_Register_UsernameTaken(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().ExistsByUsername(ctx, "alice").Return(true, nil)

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.ErrorIs(t, err, domainerrors.ErrUsernameTaken)
	assert.Equal(t, domainerrors.KindConflict, domainerrors.KindOf(err))
	assert.Contains(t, err.Error(), "username")
}

func TestCredentialService_Register_EmailTaken(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().ExistsByUsername(ctx, "alice").Return(false, nil)
	fx.store.EXPECT().ExistsByEmail(ctx, "alice@example.com").Return(true, nil)

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.ErrorIs(t, err, domainerrors.ErrEmailTaken)
	assert.Contains(t, err.Error(), "email")
}

func TestCredentialService_Register_StoreConstraintIsAuthoritative(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().ExistsByUsername(ctx, "alice").Return(false, nil)
	fx.store.EXPECT().ExistsByEmail(ctx, "alice@example.com").Return(false, nil)
	fx.hasher.EXPECT().Hash("secret1").Return("hash:secret1", nil)
	fx.store.EXPECT().Create(ctx, mock.Anything).Return(domainerrors.ErrUsernameTaken)

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.ErrorIs(t, err, domainerrors.ErrUsernameTaken)
	assert.Equal(t, domainerrors.KindConflict, domainerrors.KindOf(err))
}

func TestCredentialService_Register_StoreFailure(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()
	storeErr := domainerrors.NewDatabaseExecuteError(errors.New("connection refused"), "exists by username")

	fx.store.EXPECT().ExistsByUsername(ctx, "alice").Return(false, storeErr)

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, domainerrors.KindInternal, domainerrors.KindOf(err))
}

func TestCredentialService_Register_HashFailure(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().ExistsByUsername(ctx, "alice").Return(false, nil)
	fx.store.EXPECT().ExistsByEmail(ctx, "alice@example.com").Return(false, nil)
	fx.hasher.EXPECT().Hash("secret1").Return("", errors.New("entropy exhausted"))

	_, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
}

func TestCredentialService_Register_PublishFailureDoesNotFail(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().ExistsByUsername(ctx, "alice").Return(false, nil)
	fx.store.EXPECT().ExistsByEmail(ctx, "alice@example.com").Return(false, nil)
	fx.hasher.EXPECT().Hash("secret1").Return("hash:secret1", nil)
	fx.store.EXPECT().Create(ctx, mock.Anything).Return(nil)
	fx.publisher.EXPECT().PublishAccountEvent(ctx, mock.Anything).Return(errors.New("broker down"))

	user, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestCredentialService_Login_Success(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()
	user := existingUser()

	fx.store.EXPECT().FindByUsername(ctx, "alice").Return(user, nil)
	fx.hasher.EXPECT().Check("secret1", "hash:secret1").Return(true)
	fx.issuer.EXPECT().Issue(user.Identity()).Return("signed-token", nil)

	out, err := fx.service.Login(ctx, &usecase.LoginInput{Username: "alice", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", out.Token)
	assert.Equal(t, user, out.User)
}

func TestCredentialService_Login_MissingCredentials(t *testing.T) {
	tests := []usecase.LoginInput{
		{Username: "", Password: "secret1"},
		{Username: "alice", Password: ""},
		{Username: "   ", Password: "secret1"},
	}

	for _, input := range tests {
		fx := createTestCredentialService(t)

		_, err := fx.service.Login(context.Background(), &input)

		require.ErrorIs(t, err, domainerrors.ErrCredentialsRequired)
		assert.Equal(t, domainerrors.KindAuthentication, domainerrors.KindOf(err))
	}
}

func TestCredentialService_Login_UnknownUserAndWrongPasswordLookIdentical(t *testing.T) {
	fxUnknown := createTestCredentialService(t)
	fxUnknown.store.EXPECT().FindByUsername(mock.Anything, "mallory").Return(nil, domainerrors.ErrUserNotFound)

	_, unknownErr := fxUnknown.service.Login(context.Background(), &usecase.LoginInput{Username: "mallory", Password: "secret1"})

	fxWrong := createTestCredentialService(t)
	fxWrong.store.EXPECT().FindByUsername(mock.Anything, "alice").Return(existingUser(), nil)
	fxWrong.hasher.EXPECT().Check("wrong-password", "hash:secret1").Return(false)

	_, wrongErr := fxWrong.service.Login(context.Background(), &usecase.LoginInput{Username: "alice", Password: "wrong-password"})

	require.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, "invalid username or password", wrongErr.Error())
}

func TestCredentialService_Login_TokenFailure(t *testing.T) {
	fx := createTestCredentialService(t)
	user := existingUser()

	fx.store.EXPECT().FindByUsername(mock.Anything, "alice").Return(user, nil)
	fx.hasher.EXPECT().Check("secret1", "hash:secret1").Return(true)
	fx.issuer.EXPECT().Issue(mock.Anything).Return("", errors.New("signing failed"))

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{Username: "alice", Password: "secret1"})

	require.ErrorIs(t, err, domainerrors.ErrTokenIssueFailed)
}

func TestCredentialService_ChangeEmail_Success(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().FindByID(ctx, "user-1").Return(existingUser(), nil)
	fx.store.EXPECT().FindByEmail(ctx, "new@example.com").Return(nil, domainerrors.ErrUserNotFound)
	fx.store.EXPECT().
		Update(ctx, mock.MatchedBy(func(u *entity.User) bool { return u.Email == "new@example.com" })).
		Return(nil)
	fx.publisher.EXPECT().
		PublishAccountEvent(ctx, mock.MatchedBy(func(e *service.AccountEvent) bool {
			return e.Type == service.AccountEmailChanged && e.Email == "new@example.com"
		})).
		Return(nil)

	user, err := fx.service.ChangeEmail(ctx, "user-1", "New@Example.com")

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
}

func TestCredentialService_ChangeEmail_SameOwnerSucceeds(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().FindByID(ctx, "user-1").Return(existingUser(), nil)
	fx.store.EXPECT().FindByEmail(ctx, "alice@example.com").Return(existingUser(), nil)
	fx.store.EXPECT().Update(ctx, mock.Anything).Return(nil)
	fx.publisher.EXPECT().PublishAccountEvent(ctx, mock.Anything).Return(nil)

	user, err := fx.service.ChangeEmail(ctx, "user-1", "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestCredentialService_ChangeEmail_OwnedByAnotherUser(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()
	other := &entity.User{ID: "user-2", Username: "bob", Email: "bob@example.com"}

	fx.store.EXPECT().FindByID(ctx, "user-1").Return(existingUser(), nil)
	fx.store.EXPECT().FindByEmail(ctx, "bob@example.com").Return(other, nil)

	_, err := fx.service.ChangeEmail(ctx, "user-1", "bob@example.com")

	require.ErrorIs(t, err, domainerrors.ErrEmailTaken)
	assert.Equal(t, domainerrors.KindConflict, domainerrors.KindOf(err))
}

func TestCredentialService_ChangeEmail_InvalidFormat(t *testing.T) {
	fx := createTestCredentialService(t)

	_, err := fx.service.ChangeEmail(context.Background(), "user-1", "not-an-email")

	assertValidationField(t, err, "email")
}

func TestCredentialService_ChangeEmail_UnknownUser(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.store.EXPECT().FindByID(mock.Anything, "ghost").Return(nil, domainerrors.ErrUserNotFound)

	_, err := fx.service.ChangeEmail(context.Background(), "ghost", "new@example.com")

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	assert.Equal(t, domainerrors.KindNotFound, domainerrors.KindOf(err))
}

func TestCredentialService_ChangePassword_Success(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().FindByID(ctx, "user-1").Return(existingUser(), nil)
	fx.hasher.EXPECT().Check("secret1", "hash:secret1").Return(true)
	fx.hasher.EXPECT().Hash("secret2").Return("hash:secret2", nil)
	fx.store.EXPECT().
		Update(ctx, mock.MatchedBy(func(u *entity.User) bool { return u.PasswordHash == "hash:secret2" })).
		Return(nil)
	fx.publisher.EXPECT().
		PublishAccountEvent(ctx, mock.MatchedBy(func(e *service.AccountEvent) bool {
			return e.Type == service.AccountPasswordChanged
		})).
		Return(nil)

	user, err := fx.service.ChangePassword(ctx, "user-1", &usecase.ChangePasswordInput{
		OldPassword: "secret1",
		NewPassword: "secret2",
	})

	require.NoError(t, err)
	assert.Equal(t, "hash:secret2", user.PasswordHash)
}

func TestCredentialService_ChangePassword_Validation(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.ChangePasswordInput
		wantMessage string
	}{
		{
			name:        "missing old password",
			input:       usecase.ChangePasswordInput{NewPassword: "secret2"},
			wantMessage: "old password and new password are required",
		},
		{
			name:        "missing new password",
			input:       usecase.ChangePasswordInput{OldPassword: "secret1"},
			wantMessage: "old password and new password are required",
		},
		{
			name:        "short new password",
			input:       usecase.ChangePasswordInput{OldPassword: "secret1", NewPassword: "12345"},
			wantMessage: "new password must be at least 6 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestCredentialService(t)

			_, err := fx.service.ChangePassword(context.Background(), "user-1", &tt.input)

			require.Error(t, err)
			assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
			assert.Equal(t, tt.wantMessage, err.Error())
		})
	}
}

func TestCredentialService_ChangePassword_WrongOldPasswordLeavesStoreUntouched(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.store.EXPECT().FindByID(ctx, "user-1").Return(existingUser(), nil)
	fx.hasher.EXPECT().Check("not-it", "hash:secret1").Return(false)

	_, err := fx.service.ChangePassword(ctx, "user-1", &usecase.ChangePasswordInput{
		OldPassword: "not-it",
		NewPassword: "secret2",
	})

	require.ErrorIs(t, err, domainerrors.ErrOldPasswordIncorrect)
	assert.Equal(t, domainerrors.KindAuthentication, domainerrors.KindOf(err))
	fx.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	fx.hasher.AssertNotCalled(t, "Hash", mock.Anything)
}

func TestCredentialService_ChangePassword_UnknownUser(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.store.EXPECT().FindByID(mock.Anything, "ghost").Return(nil, domainerrors.ErrUserNotFound)

	_, err := fx.service.ChangePassword(context.Background(), "ghost", &usecase.ChangePasswordInput{
		OldPassword: "secret1",
		NewPassword: "secret2",
	})

	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestCredentialService_GetByID(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.store.EXPECT().FindByID(mock.Anything, "user-1").Return(existingUser(), nil)
	fx.store.EXPECT().FindByID(mock.Anything, "ghost").Return(nil, domainerrors.ErrUserNotFound)

	user, err := fx.service.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = fx.service.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestCredentialService_NilPublisher(t *testing.T) {
	store := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	svc := NewCredentialService(store, hasher, mockSvc.NewMockTokenService(t), nil, slog.New(slog.DiscardHandler))

	store.EXPECT().FindByID(mock.Anything, "user-1").Return(existingUser(), nil)
	store.EXPECT().FindByEmail(mock.Anything, "new@example.com").Return(nil, domainerrors.ErrUserNotFound)
	store.EXPECT().Update(mock.Anything, mock.Anything).Return(nil)

	_, err := svc.ChangeEmail(context.Background(), "user-1", "new@example.com")
	require.NoError(t, err)
}
