package errors

import (
	"errors"
	"sync"
	"time"
)

const (
	ErrorThreshold      = 0.5
	MinRequests         = 5
	OpenDuration        = 30 * time.Second
	HalfOpenMaxRequests = 3
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// ErrCircuitOpen is returned without calling fn while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker fails fast after a burst of errors. It never retries.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           BreakerState
	failures        int
	successes       int
	requests        int
	lastFailureTime time.Time
	now             func() time.Time
	ignore          func(error) bool
}

// NewCircuitBreaker builds a closed breaker. Errors for which ignore returns true
// (e.g. cache misses) count as successes.
func NewCircuitBreaker(ignore func(error) bool) *CircuitBreaker {
	if ignore == nil {
		ignore = func(error) bool { return false }
	}
	return &CircuitBreaker{
		state:  BreakerClosed,
		now:    time.Now,
		ignore: ignore,
	}
}

func (cb *CircuitBreaker) Call(fn func() error) error {
	if cb == nil {
		return fn()
	}

	cb.mu.Lock()
	if cb.state == BreakerOpen {
		if cb.now().Sub(cb.lastFailureTime) < OpenDuration {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = BreakerHalfOpen
		cb.resetCountersLocked()
	}

	if cb.state == BreakerHalfOpen && cb.requests >= HalfOpenMaxRequests {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	callErr := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.requests++
	if callErr != nil && !cb.ignore(callErr) {
		cb.failures++
		if cb.state == BreakerHalfOpen {
			cb.tripLocked()
		} else if cb.requests >= MinRequests && float64(cb.failures)/float64(cb.requests) >= ErrorThreshold {
			cb.tripLocked()
		}
		return callErr
	}

	cb.successes++
	if cb.state == BreakerHalfOpen && cb.successes >= HalfOpenMaxRequests {
		cb.state = BreakerClosed
		cb.resetCountersLocked()
	}

	return callErr
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) resetCountersLocked() {
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
}

func (cb *CircuitBreaker) tripLocked() {
	cb.state = BreakerOpen
	cb.lastFailureTime = cb.now()
	cb.resetCountersLocked()
}
