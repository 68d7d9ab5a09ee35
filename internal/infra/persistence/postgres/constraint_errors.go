package postgres

import (
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// translateUniqueViolation maps a unique-constraint violation on the users
// table to the matching conflict error. It returns nil for any other error.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case model.UsersUsernameKey:
			return domainerrors.ErrUsernameTaken
		case model.UsersEmailKey:
			return domainerrors.ErrEmailTaken
		}
	}

	// The dialector's TranslateError drops the constraint name.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.ErrAccountConflict
	}

	return nil
}
