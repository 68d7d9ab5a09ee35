// Package http serves the credential API over HTTP/1.1 and h2c.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/delivery"
	httpmiddleware "gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/router"
	"gatekeeper/internal/delivery/http/router/handler"
	"gatekeeper/internal/delivery/http/validator"
	"gatekeeper/internal/delivery/middleware"
	"gatekeeper/internal/domain/lifecycle"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/net/http2"
)

// HTTPParams holds dependencies for the HTTP server, injected by Fx.
type HTTPParams struct {
	fx.In
	fx.Lifecycle

	Config  *config.Config
	Logger  *slog.Logger
	Usecase usecase.CredentialUsecase
	Tokens  service.TokenService
	Health  repository.HealthChecker
}

type httpServer struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *echo.Echo
	tokenTTL time.Duration
}

// NewServer builds the HTTP delivery and registers its shutdown hook.
func NewServer(params HTTPParams) (delivery.Delivery, error) {
	echoServer, err := newEcho(params.Config, params.Logger, params.Usecase, params.Tokens, params.Health)
	if err != nil {
		return nil, err
	}

	srv := &httpServer{
		cfg:      params.Config,
		logger:   params.Logger,
		server:   echoServer,
		tokenTTL: params.Tokens.TTL(),
	}

	params.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func newEcho(
	cfg *config.Config,
	logger *slog.Logger,
	uc usecase.CredentialUsecase,
	tokens service.TokenService,
	checker repository.HealthChecker,
) (*echo.Echo, error) {
	authLimiter, err := middleware.NewIPRateLimiter(cfg.RateLimit.Auth)
	if err != nil {
		return nil, err
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	echoServer.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	echoServer.Server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	echoServer.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	// Recover first so panics in any later middleware are caught.
	echoServer.Use(echomiddleware.Recover())

	// Request ID before the logger so access lines carry it.
	echoServer.Use(middleware.NewRequestIDMiddleware(logger).Process)
	echoServer.Use(middleware.NewLoggerMiddleware(logger, cfg.Env.Debug).Handle)

	echoServer.Use(middleware.NewSecure(middleware.SecureOptions(cfg.IsDevelopment())))
	echoServer.Use(echomiddleware.CORSWithConfig(corsConfig(cfg.HTTP.AllowOrigins)))
	echoServer.Use(echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize))
	echoServer.Use(middleware.Prometheus)

	echoServer.HTTPErrorHandler = httpmiddleware.NewErrorMiddleware(logger).HandleHTTPError
	echoServer.Validator = validator.New()

	r := router.NewRouter(
		handler.NewAuthHandler(uc, logger),
		handler.NewHealthHandler(checker, logger),
		httpmiddleware.NewAuthMiddleware(tokens),
		authLimiter,
	)
	r.RegisterRoutes(echoServer)

	return echoServer, nil
}

func corsConfig(allowOrigins []string) echomiddleware.CORSConfig {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	return echomiddleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
		},
		ExposeHeaders: []string{"X-Request-Id"},
	}
}

func (s *httpServer) Serve(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting HTTP server",
		slog.String("host_port", hostPort),
		slog.Duration("token_ttl", s.tokenTTL),
	)
	h2Server := &http2.Server{
		IdleTimeout: s.cfg.HTTP.Timeouts.IdleTimeout,
	}
	if err := s.server.StartH2CServer(hostPort, h2Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve http")
	}

	return nil
}

func (s *httpServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
