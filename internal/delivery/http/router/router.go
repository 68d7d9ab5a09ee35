// Package router registers the HTTP routes of the service.
package router

import (
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds all the handlers that need to be registered.
type Router struct {
	authHandler    *handler.AuthHandler
	healthHandler  *handler.HealthHandler
	authMiddleware *middleware.AuthMiddleware
	authLimiter    echo.MiddlewareFunc
}

// NewRouter is the constructor for the Router. authLimiter guards the
// unauthenticated credential endpoints.
func NewRouter(
	authHandler *handler.AuthHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter echo.MiddlewareFunc,
) *Router {
	return &Router{
		authHandler:    authHandler,
		healthHandler:  healthHandler,
		authMiddleware: authMiddleware,
		authLimiter:    authLimiter,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.healthHandler.Liveness)
	e.GET("/health/liveness", r.healthHandler.Liveness)
	e.GET("/health/readiness", r.healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authenticated := r.authMiddleware.Authenticate

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register, r.authLimiter)
		authGroup.POST("/login", r.authHandler.Login, r.authLimiter)

		authGroup.GET("/me", r.authHandler.Me, authenticated)
		authGroup.PATCH("/email", r.authHandler.ChangeEmail, authenticated)
		authGroup.PATCH("/password", r.authHandler.ChangePassword, authenticated)
	}
}
