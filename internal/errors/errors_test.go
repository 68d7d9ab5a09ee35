package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = New("sentinel")

func TestWrap_KeepsCause(t *testing.T) {
	err := Wrap(errSentinel, "loading user")

	assert.EqualError(t, err, "loading user: sentinel")
	assert.True(t, Is(err, errSentinel))
	assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "noop"))
	assert.NoError(t, WithStack(nil))
}

type codedError struct{ code int }

func (e *codedError) Error() string { return fmt.Sprintf("code %d", e.code) }

func TestAs_FindsWrappedType(t *testing.T) {
	err := Wrapf(&codedError{code: 7}, "op %s", "x")

	var target *codedError
	assert.True(t, As(err, &target))
	assert.Equal(t, 7, target.code)
}

func TestJoin(t *testing.T) {
	other := New("other")
	err := Join(errSentinel, other)

	assert.True(t, Is(err, errSentinel))
	assert.True(t, Is(err, other))
}
