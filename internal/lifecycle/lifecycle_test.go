package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamron201111/telegram-stars-bot/internal/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdownRunsHooksInOrder(t *testing.T) {
	s := NewShutdown(testLogger())

	var order []string
	s.Register("bot", func(context.Context) error {
		order = append(order, "bot")
		return nil
	})
	s.Register("server", func(context.Context) error {
		order = append(order, "server")
		return errors.New("already closed")
	})
	s.Register("redis", func(context.Context) error {
		order = append(order, "redis")
		return nil
	})
	s.Register("nil", nil)

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server: already closed")
	assert.Equal(t, []string{"bot", "server", "redis"}, order)
}

func TestProbes(t *testing.T) {
	checker := health.NewChecker(testLogger())
	down := false
	checker.AddCheck("telegram", health.CheckFunc(func(context.Context) error {
		if down {
			return errors.New("unreachable")
		}
		return nil
	}), true)
	checker.AddCheck("redis", health.CheckFunc(func(context.Context) error {
		return errors.New("connection refused")
	}), false)

	probes := NewProbes(checker, testLogger())
	mux := http.NewServeMux()
	probes.Register(mux)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/healthz"))
	assert.Equal(t, http.StatusOK, get("/readyz"), "a degraded redis keeps the bot ready")

	down = true
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))

	down = false
	probes.Drain()
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/healthz"))
}
