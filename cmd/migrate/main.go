package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gatekeeper/config"
	logs "gatekeeper/internal/infra/log"
	"gatekeeper/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const migrateTimeout = 5 * time.Minute

func main() {
	flag.Usage = printUsage
	flag.Parse()

	command := postgres.MigrateUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if err := run(command, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %+v\n", command, err)
		os.Exit(1)
	}
}

func run(command string, args ...string) error {
	var db *gorm.DB
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.New,
			logs.New,
			postgres.New,
		),
		fx.Populate(&db),
	)
	if err := app.Err(); err != nil {
		return errors.WithStack(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	sqlDB, err := db.DB()
	if err != nil {
		return errors.WithStack(err)
	}

	return postgres.Migrate(ctx, sqlDB, command, args...)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: migrate [command] [args]

Applies the embedded users schema migrations to the configured Postgres database.

Commands:
  up      Apply all pending migrations (default)
  down    Roll back the latest migration
  status  Print the state of every migration
`)
}
