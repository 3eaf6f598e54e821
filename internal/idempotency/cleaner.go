package idempotency

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner prunes expired entries from a MemoryStore. Redis records expire by TTL.
type Cleaner struct {
	memory   *MemoryStore
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner builds a Cleaner for memory. A nil store makes Run return at once.
func NewCleaner(memory *MemoryStore, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{memory: memory, log: log, interval: interval}
}

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
			if removed := c.memory.Prune(); removed > 0 {
				c.log.Debug("idempotency entries pruned", slog.Int("count", removed))
			}
		}
	}
}
