package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner forgets in-memory windows of users who went quiet. Redis windows expire on their own.
type Cleaner struct {
	memory   *MemoryLimiter
	log      *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewCleaner builds a Cleaner sweeping memory every interval.
func NewCleaner(memory *MemoryLimiter, log *slog.Logger, interval, maxAge time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{memory: memory, log: log, interval: interval, maxAge: maxAge}
}

// Run sweeps until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.memory == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.memory.Cleanup(c.maxAge); removed > 0 {
				c.log.Debug("rate limit windows dropped", slog.Int("count", removed))
			}
		}
	}
}
