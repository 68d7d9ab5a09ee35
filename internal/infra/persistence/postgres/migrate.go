package postgres

import (
	"context"
	"database/sql"

	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/postgres/migrations"

	"github.com/pressly/goose/v3"
)

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// gooseRunContext is a seam for testing goose.RunContext.
var gooseRunContext = goose.RunContext

// Migrate runs a goose command against the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, command string, args ...string) error {
	switch command {
	case MigrateUp, MigrateDown, MigrateStatus:
	default:
		return errors.Errorf("unsupported migration command: %s", command)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	if err := gooseRunContext(ctx, command, db, ".", args...); err != nil {
		return errors.Wrapf(err, "goose %s", command)
	}

	return nil
}
