// Package ratelimit throttles buyers with a sliding window kept in Redis, or in process
// memory when Redis is absent or failing.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrLimitExceeded is returned, together with the Result, when a request is rejected.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Result describes the window after a check. Rejected requests are not counted.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter admits at most limit requests per key within any window.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_checks_total",
		Help: "Rate limit decisions by backend and result",
	}, []string{"backend", "result"})

	backendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_backend_errors_total",
		Help: "Rate limit checks that failed inside a backend",
	}, []string{"backend"})
)

// decide builds the Result for a window holding count admitted requests.
func decide(allowed bool, count, limit int, resetAt time.Time) (*Result, error) {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{Allowed: allowed, Remaining: remaining, ResetAt: resetAt}
	if !allowed {
		return result, ErrLimitExceeded
	}
	return result, nil
}

func record(backend string, err error) {
	switch {
	case err == nil:
		checksTotal.WithLabelValues(backend, "allowed").Inc()
	case errors.Is(err, ErrLimitExceeded):
		checksTotal.WithLabelValues(backend, "rejected").Inc()
	default:
		backendErrorsTotal.WithLabelValues(backend).Inc()
	}
}
