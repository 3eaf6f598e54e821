package errors

import (
	"bytes"
	"context"
	stdErrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRedisDown = stdErrors.New("dial tcp: connection refused")

func TestHandler_ValidationNotLogged(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	msg := h.Handle(context.Background(), NewValidationError("bad username"))

	assert.Equal(t, "❌ Noto‘g‘ri ma’lumot. Qaytadan kiriting:", msg)
	assert.Empty(t, buf.String())
}

func TestHandler_StorageErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	msg := h.Handle(context.Background(), NewStorageError(errRedisDown))

	assert.Equal(t, DefaultUserMessage, msg)
	assert.Contains(t, buf.String(), "code=E200")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestHandler_UnknownError(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	assert.Equal(t, DefaultUserMessage, h.Handle(context.Background(), errRedisDown))
	assert.Contains(t, buf.String(), "unknown error")
	assert.Empty(t, h.Handle(context.Background(), nil))
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewStorageError(errRedisDown)
	assert.ErrorIs(t, err, errRedisDown)
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(nil)
	cb.now = func() time.Time { return now }

	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return errRedisDown })
	}
	require.Equal(t, BreakerOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(OpenDuration)
	for i := 0; i < HalfOpenMaxRequests; i++ {
		require.NoError(t, cb.Call(func() error { return nil }))
	}
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	errMiss := stdErrors.New("redis: nil")
	cb := NewCircuitBreaker(func(err error) bool { return err == errMiss })

	for i := 0; i < MinRequests*2; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return errMiss }), errMiss)
	}
	assert.Equal(t, BreakerClosed, cb.State())
}
