package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer

	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func sqlFn() (string, int64) { return `SELECT * FROM "users"`, 1 }

func TestGormSlogLogger_TraceErrors(t *testing.T) {
	base, buf := newBufferLogger()
	l := newGormSlogLogger(base, false)

	l.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), sqlFn, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "GORM query failed")
	assert.Contains(t, buf.String(), "syntax error")
}

func TestGormSlogLogger_TraceSlowAndDebug(t *testing.T) {
	base, buf := newBufferLogger()

	quiet := newGormSlogLogger(base, false)
	quiet.Trace(context.Background(), time.Now(), sqlFn, nil)
	assert.Empty(t, buf.String())

	quiet.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	verbose := newGormSlogLogger(base, true)
	verbose.Trace(context.Background(), time.Now(), sqlFn, nil)
	assert.Contains(t, buf.String(), "GORM query")
}

func TestGormSlogLogger_SilentAndRequestScoped(t *testing.T) {
	base, baseBuf := newBufferLogger()
	scoped, scopedBuf := newBufferLogger()

	l := newGormSlogLogger(base, true)
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sqlFn, errors.New("ignored"))
	assert.Empty(t, baseBuf.String())

	ctx := deliverycontext.WithLogger(context.Background(), scoped)
	l.Warn(ctx, "pool %s", "exhausted")
	assert.Empty(t, baseBuf.String())
	assert.Contains(t, scopedBuf.String(), "pool exhausted")
}

func TestLogPoolWait(t *testing.T) {
	base, buf := newBufferLogger()

	logPoolWait(context.Background(), base, sql.DBStats{WaitCount: 3}, sql.DBStats{WaitCount: 3})
	assert.Empty(t, buf.String())

	logPoolWait(context.Background(), base,
		sql.DBStats{WaitCount: 1, WaitDuration: 0},
		sql.DBStats{WaitCount: 3, WaitDuration: 200 * time.Millisecond},
	)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "waitCountDelta=2")
}
