package context

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"gatekeeper/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetRequestID_GeneratesWhenMissing(t *testing.T) {
	c := newEchoContext()

	assert.NotEmpty(t, GetRequestID(c))

	SetRequestID(c, "req-1")
	assert.Equal(t, "req-1", GetRequestID(c))
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Equal(t, "req-2", RequestIDFromContext(WithRequestID(context.Background(), "req-2")))
}

func TestGetLoggerOrDefault(t *testing.T) {
	fallback := slog.Default()
	scoped := slog.New(slog.DiscardHandler)

	assert.Same(t, fallback, GetLoggerOrDefault(context.Background(), fallback))
	assert.Same(t, scoped, GetLoggerOrDefault(WithLogger(context.Background(), scoped), fallback))
}

func TestSetIdentity(t *testing.T) {
	c := newEchoContext()

	_, ok := GetIdentity(c)
	assert.False(t, ok)

	identity := &entity.Identity{UserID: "u-1", Username: "alice", Email: "alice@example.com"}
	SetIdentity(c, identity)

	got, ok := GetIdentity(c)
	require.True(t, ok)
	assert.Equal(t, identity, got)

	fromCtx, ok := IdentityFromContext(c.Request().Context())
	require.True(t, ok)
	assert.Equal(t, identity, fromCtx)
}
