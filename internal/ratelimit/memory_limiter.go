package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps admitted request times per key in process. Replicas count separately.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// NewMemoryLimiter returns an empty MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	admitted := dropBefore(m.windows[key], now.Add(-window))
	allowed := len(admitted) < limit
	if allowed {
		admitted = append(admitted, now)
	}
	m.windows[key] = admitted

	resetAt := now.Add(window)
	if len(admitted) > 0 {
		resetAt = admitted[0].Add(window)
	}

	result, err := decide(allowed, len(admitted), limit, resetAt)
	record(backendMemory, err)
	return result, err
}

// Cleanup forgets keys with no request in the last maxAge and returns how many were removed.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, admitted := range m.windows {
		if len(admitted) == 0 || admitted[len(admitted)-1].Before(cutoff) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// dropBefore removes times at or before start. times is sorted.
func dropBefore(times []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(start) {
		i++
	}
	return append(times[:0], times[i:]...)
}
