package impl

import (
	"regexp"

	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"

	"github.com/go-playground/validator/v10"
)

const emailTag = "credential_email"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Field order is validation order: the first failing field is reported.
type registration struct {
	Username string `validate:"min=3"`
	Email    string `validate:"credential_email"`
	Password string `validate:"min=6"`
}

type emailChange struct {
	Email string `validate:"credential_email"`
}

type passwordChange struct {
	OldPassword string `validate:"required"`
	NewPassword string `validate:"required"`
}

type newPassword struct {
	NewPassword string `validate:"min=6"`
}

var fieldMessages = map[string]struct {
	field   string
	message string
}{
	"registration.Username":      {"username", "username must be at least 3 characters"},
	"registration.Email":         {"email", "invalid email format"},
	"registration.Password":      {"password", "password must be at least 6 characters"},
	"emailChange.Email":          {"email", "invalid email format"},
	"passwordChange.OldPassword": {"oldPassword", "old password and new password are required"},
	"passwordChange.NewPassword": {"newPassword", "old password and new password are required"},
	"newPassword.NewPassword":    {"newPassword", "new password must be at least 6 characters"},
}

func newCredentialValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// validateInput runs v over input and converts the first failing field into a
// ValidationError naming it.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validate input")
	}

	first := fieldErrs[0]
	msg, ok := fieldMessages[first.StructNamespace()]
	if !ok {
		return domainerrors.NewValidationError(first.Field(), first.Error())
	}

	return domainerrors.NewValidationError(msg.field, msg.message)
}
