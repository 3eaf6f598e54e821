package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AdaptiveLimiter prefers the shared Redis window and switches to the in-process one
// for any check Redis cannot answer. While switched, each replica admits half the limit.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

// NewAdaptiveLimiter combines primary (Redis) and fallback (memory).
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) Limiter {
	if log == nil {
		log = slog.Default()
	}
	return &AdaptiveLimiter{primary: primary, fallback: fallback, log: log}
}

func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil || errors.Is(err, ErrLimitExceeded) {
		return result, err
	}

	a.log.WarnContext(ctx, "using in-memory rate limit", slog.String("key", key), slog.Any("error", err))
	return a.fallback.Check(ctx, key, max(limit/2, 1), window)
}
