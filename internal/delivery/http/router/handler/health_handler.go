package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/delivery/http/response"
	"gatekeeper/internal/domain/repository"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	checker repository.HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler is the constructor for HealthHandler.
func NewHealthHandler(checker repository.HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger,
	}
}

// Liveness answers 200 while the process serves requests.
func (h *HealthHandler) Liveness(c echo.Context) error {
	return response.Status(c, http.StatusOK, "ok")
}

// Readiness answers 200 when the credential store responds to a ping.
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	if err := h.checker.Ping(ctx); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Warn("Store not ready", slog.Any("error", err))

		return response.Status(c, http.StatusServiceUnavailable, "unavailable")
	}

	return response.Status(c, http.StatusOK, "ready")
}
