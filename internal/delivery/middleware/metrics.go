package middleware

import (
	"net/http"
	"strconv"
	"time"

	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth events recorded by RecordAuthAttempt.
const (
	AuthEventRegister       = "register"
	AuthEventLogin          = "login"
	AuthEventChangeEmail    = "change_email"
	AuthEventChangePassword = "change_password"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatekeeper_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_auth_attempts_total",
			Help: "Total credential operations by event and outcome",
		},
		[]string{"event", "success"},
	)
)

// Prometheus records request duration labelled by route template. It sits
// inside the access logger, so a returned error has not been rendered yet and
// the status is derived from it.
func Prometheus(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		httpRequestDuration.
			WithLabelValues(c.Request().Method, path, strconv.Itoa(responseStatus(c, err))).
			Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordAuthAttempt counts one credential operation.
func RecordAuthAttempt(event string, success bool) {
	authAttempts.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}

func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
