// Package errors defines the error taxonomy of the credential service and the
// predefined errors each operation may return.
package errors

import (
	"net/http"

	"gatekeeper/internal/errors"
)

// Kind classifies an AppError independently of its HTTP mapping.
type Kind string

const (
	KindValidation      Kind = "validation"      // malformed input
	KindConflict        Kind = "conflict"        // uniqueness violation
	KindAuthentication  Kind = "authentication"  // bad credentials
	KindNotFound        Kind = "not_found"       // unknown identifier
	KindUnauthenticated Kind = "unauthenticated" // missing or invalid token
	KindRateLimited     Kind = "rate_limited"    // too many attempts from one client
	KindInternal        Kind = "internal"        // store or infrastructure failure
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind        // Error classification
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-facing message
	Details() string   // Optional detail, e.g. the failing field
}

// BaseError is the AppError implementation used by every predefined error.
type BaseError struct {
	kind      Kind
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		kind:      kind,
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// NewValidationError reports the first input field that failed validation.
func NewValidationError(field, message string) *BaseError {
	return NewBaseError(KindValidation, http.StatusBadRequest, "VALIDATION_FAILED", message, field)
}

func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

func (e *BaseError) Kind() Kind        { return e.kind }
func (e *BaseError) HTTPCode() int     { return e.httpCode }
func (e *BaseError) ErrorCode() string { return e.errorCode }
func (e *BaseError) Message() string   { return e.message }
func (e *BaseError) Details() string   { return e.details }

// Predefined error types
var (
	ErrUsernameTaken = NewBaseError(
		KindConflict,
		http.StatusBadRequest,
		"USERNAME_TAKEN",
		"username already exists",
		"username",
	)

	ErrEmailTaken = NewBaseError(
		KindConflict,
		http.StatusBadRequest,
		"EMAIL_TAKEN",
		"email already exists",
		"email",
	)

	// ErrAccountConflict is reported when a store signals a uniqueness
	// violation without naming the field.
	ErrAccountConflict = NewBaseError(
		KindConflict,
		http.StatusBadRequest,
		"ACCOUNT_CONFLICT",
		"username or email already exists",
		"",
	)

	// ErrInvalidCredentials is shared by the unknown-user and wrong-password
	// login paths so callers cannot tell them apart.
	ErrInvalidCredentials = NewBaseError(
		KindAuthentication,
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"invalid username or password",
		"",
	)

	ErrCredentialsRequired = NewBaseError(
		KindAuthentication,
		http.StatusUnauthorized,
		"CREDENTIALS_REQUIRED",
		"username and password are required",
		"",
	)

	// ErrOldPasswordIncorrect answers 400: the caller is already authenticated.
	ErrOldPasswordIncorrect = NewBaseError(
		KindAuthentication,
		http.StatusBadRequest,
		"OLD_PASSWORD_INCORRECT",
		"old password is incorrect",
		"oldPassword",
	)

	ErrUserNotFound = NewBaseError(
		KindNotFound,
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"user not found",
		"",
	)

	ErrNoToken = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"NO_TOKEN",
		"no token provided",
		"",
	)

	ErrInvalidToken = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"INVALID_TOKEN",
		"invalid or expired token",
		"",
	)

	ErrInvalidRequestBody = NewBaseError(
		KindValidation,
		http.StatusBadRequest,
		"INVALID_BODY",
		"invalid request body",
		"",
	)

	ErrRateLimited = NewBaseError(
		KindRateLimited,
		http.StatusTooManyRequests,
		"RATE_LIMITED",
		"rate limit exceeded",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"password processing failed",
		"",
	)

	ErrTokenIssueFailed = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"TOKEN_ISSUE_FAILED",
		"token could not be issued",
		"",
	)

	ErrInternalError = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// DatabaseExecuteError represents a store failure that is not an application error.
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a store-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error { return e.err }

func (e *DatabaseExecuteError) Kind() Kind        { return KindInternal }
func (e *DatabaseExecuteError) HTTPCode() int     { return http.StatusInternalServerError }
func (e *DatabaseExecuteError) ErrorCode() string { return "DATABASE_EXECUTE_FAILED" }
func (e *DatabaseExecuteError) Message() string   { return "database execution failed" }
func (e *DatabaseExecuteError) Details() string   { return e.details }

// KindOf returns the Kind of the first AppError in err's chain, or
// KindInternal when err carries none.
func KindOf(err error) Kind {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}

	return KindInternal
}
