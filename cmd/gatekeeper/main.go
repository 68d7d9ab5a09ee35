package main

import (
	"context"
	"log/slog"

	"gatekeeper/config"
	"gatekeeper/internal/delivery"
	"gatekeeper/internal/delivery/http"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/auth"
	logs "gatekeeper/internal/infra/log"
	"gatekeeper/internal/infra/persistence/memory"
	"gatekeeper/internal/infra/persistence/mongodb"
	"gatekeeper/internal/infra/persistence/postgres"
	"gatekeeper/internal/infra/pubsub"
	"gatekeeper/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Deliveries []delivery.Delivery `group:"deliveries"`
}

// storeResult exposes the selected store under both of its roles.
type storeResult struct {
	fx.Out

	Users  repository.UserRepository
	Health repository.HealthChecker
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newStore,
		),
	)
}

// newStore opens only the store selected by store.driver.
func newStore(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (storeResult, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := postgres.New(lc, cfg, logger)
		if err != nil {
			return storeResult{}, err
		}
		repo := postgres.NewUserRepository(db)

		return storeResult{Users: repo, Health: repo}, nil
	case config.StoreDriverMongoDB:
		collection, err := mongodb.New(lc, cfg, logger)
		if err != nil {
			return storeResult{}, err
		}
		repo := mongodb.NewUserRepository(collection)

		return storeResult{Users: repo, Health: repo}, nil
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory credential store, accounts are lost on restart")
		repo := memory.NewUserRepository()

		return storeResult{Users: repo, Health: repo}, nil
	default:
		return storeResult{}, errors.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newPasswordHasher,
			newTokenService,
			pubsub.NewEventPublisher,
		),
	)
}

func newPasswordHasher(cfg *config.Config) (service.PasswordHasher, error) {
	return auth.NewBcryptHasher(cfg.Auth.BcryptCost)
}

func newTokenService(cfg *config.Config) (service.TokenService, error) {
	return auth.NewJWTService(cfg.SecretKey.Access, cfg.Auth.TokenTTL)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCredentialService,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	params.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, d := range params.Deliveries {
				go func() {
					if err := d.Serve(ctx); err != nil {
						params.Logger.Error("Failed to start server", slog.Any("error", err))
						_ = params.Shutdowner.Shutdown(fx.ExitCode(1))
					}
				}()
			}

			return nil
		},
	})
}
