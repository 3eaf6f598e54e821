package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes conversations left idle longer than ttl.
type Cleaner struct {
	machine  *Machine
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner. A zero ttl disables it.
func NewCleaner(machine *Machine, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &Cleaner{
		machine:  machine,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.machine == nil || c.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("state cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	expired, err := c.machine.ExpireIdle(ctx, c.ttl)
	if err != nil {
		c.log.Error("state cleaner failed", slog.Any("error", err))
		return
	}
	if expired > 0 {
		c.log.Info("stale conversations cleared", slog.Int("count", expired))
	}
}
