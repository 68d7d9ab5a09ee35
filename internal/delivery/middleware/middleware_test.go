package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	handler := NewRequestIDMiddleware(slog.Default()).Process(func(c echo.Context) error {
		seen = deliverycontext.RequestIDFromContext(c.Request().Context())
		assert.NotNil(t, deliverycontext.GetLogger(c.Request().Context()))

		return nil
	})

	require.NoError(t, handler(c))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(deliverycontext.HeaderXRequestID))
	assert.Equal(t, seen, deliverycontext.GetRequestID(c))
}

func TestRequestIDMiddleware_ReusesHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewRequestIDMiddleware(slog.Default()).Process(func(c echo.Context) error { return nil })

	require.NoError(t, handler(c))
	assert.Equal(t, "req-123", rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestRequestIDMiddleware_ReplacesOverlongHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, strings.Repeat("x", maxRequestIDLength+1))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewRequestIDMiddleware(slog.Default()).Process(func(c echo.Context) error { return nil })

	require.NoError(t, handler(c))
	assert.Len(t, rec.Header().Get(deliverycontext.HeaderXRequestID), 36)
}

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggerMiddleware_RendersErrorBeforeLogging(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(http.StatusTeapot, map[string]string{"error": err.Error()})
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewLoggerMiddleware(newBufferLogger(&buf), false).Handle(func(c echo.Context) error {
		return errors.New("boom")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "HTTP Request", line["msg"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "WARN", line["level"])
	assert.NotContains(t, line, "user_agent")
}

func TestLoggerMiddleware_UserID(t *testing.T) {
	tests := []struct {
		name     string
		identity *entity.Identity
		want     any
	}{
		{name: "authenticated", identity: &entity.Identity{UserID: "u-1", Username: "alice"}, want: "u-1"},
		{name: "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), httptest.NewRecorder())

			handler := NewLoggerMiddleware(newBufferLogger(&buf), false).Handle(func(c echo.Context) error {
				if tt.identity != nil {
					deliverycontext.SetIdentity(c, tt.identity)
				}

				return c.NoContent(http.StatusOK)
			})

			require.NoError(t, handler(c))

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.want, line["user_id"])
		})
	}
}

func TestLoggerMiddleware_MonitoringPaths(t *testing.T) {
	tests := []struct {
		name   string
		debug  bool
		path   string
		logged bool
	}{
		{name: "health skipped", path: "/health/liveness"},
		{name: "metrics skipped", path: "/metrics"},
		{name: "api logged", path: "/auth/me", logged: true},
		{name: "health logged in debug", debug: true, path: "/health", logged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.path, nil), httptest.NewRecorder())

			handler := NewLoggerMiddleware(newBufferLogger(&buf), tt.debug).Handle(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.logged, buf.Len() > 0)
		})
	}
}

func TestNewIPRateLimiter(t *testing.T) {
	t.Run("empty rate disables limiting", func(t *testing.T) {
		mw, err := NewIPRateLimiter("")
		require.NoError(t, err)

		e := echo.New()
		for range 5 {
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), httptest.NewRecorder())
			assert.NoError(t, mw(okHandler)(c))
		}
	})

	t.Run("invalid rate", func(t *testing.T) {
		_, err := NewIPRateLimiter("lots")
		assert.Error(t, err)
	})

	t.Run("limit reached", func(t *testing.T) {
		mw, err := NewIPRateLimiter("2-M")
		require.NoError(t, err)

		e := echo.New()
		for i := range 3 {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := mw(okHandler)(c)
			if i < 2 {
				assert.NoError(t, err)
				assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

				continue
			}
			assert.ErrorIs(t, err, domainerrors.ErrRateLimited)
			assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		}

		// A different client has its own budget.
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:5000"
		c := e.NewContext(req, httptest.NewRecorder())
		assert.NoError(t, mw(okHandler)(c))
	})
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestResponseStatus(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Response().Status = http.StatusCreated

	assert.Equal(t, http.StatusCreated, responseStatus(c, nil))
	assert.Equal(t, http.StatusNotFound, responseStatus(c, errors.Wrap(domainerrors.ErrUserNotFound, "get")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, responseStatus(c, echo.ErrStatusRequestEntityTooLarge))
	assert.Equal(t, http.StatusInternalServerError, responseStatus(c, errors.New("boom")))
}

func TestPrometheus_ObservesRouteTemplate(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.NoContent(responseStatus(c, err))
	}
	e.Use(Prometheus)
	e.GET("/users/:id", func(c echo.Context) error {
		return domainerrors.ErrNoToken
	})

	before := testutil.CollectAndCount(httpRequestDuration)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/43", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Both requests share the route template series.
	assert.Equal(t, before+1, testutil.CollectAndCount(httpRequestDuration))
}

func TestRecordAuthAttempt(t *testing.T) {
	counter := authAttempts.WithLabelValues(AuthEventLogin, "false")
	before := testutil.ToFloat64(counter)

	RecordAuthAttempt(AuthEventLogin, false)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestNewSecure(t *testing.T) {
	e := echo.New()
	e.Use(NewSecure(SecureOptions(false)))
	e.GET("/auth/me", okHandler)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
