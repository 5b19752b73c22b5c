// Package breaker guards the hosted-script bucket. When uploads keep failing
// the publisher stops calling S3 for a while and reports circuit_open instead
// of piling more requests onto a store that is already refusing them.
package breaker

import (
	"sync"
	"time"
)

type state int

const (
	closed state = iota
	open
	// halfOpen lets exactly one upload through after the cooldown. Its
	// outcome decides whether the breaker closes or opens again.
	halfOpen
)

// CircuitBreaker counts failed uploads inside a sliding window. threshold
// failures within window open it for cooldown. A nil breaker never opens.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     state
	failures  []time.Time
	threshold int
	window    time.Duration
	cooldown  time.Duration
	openUntil time.Time
	now       func() time.Time
}

// New returns a closed breaker. A threshold below one is treated as one, so
// a single failed upload opens it.
func New(threshold int, window, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return &CircuitBreaker{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) withClock(now func() time.Time) *CircuitBreaker {
	cb.now = now
	return cb
}

// IsOpen reports whether the next upload must be refused. Once the cooldown
// has passed the first caller is let through as a trial and later callers
// keep seeing an open breaker until that trial is recorded.
func (cb *CircuitBreaker) IsOpen() bool {
	if cb == nil {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case open:
		if cb.now().Before(cb.openUntil) {
			return true
		}
		cb.state = halfOpen
		return false
	case halfOpen:
		return true
	default:
		return false
	}
}

// RecordFailure notes a failed upload. A failed trial reopens the breaker at
// once; otherwise it opens when the window holds threshold failures.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cb.failures = append(cb.prune(now), now)
	if cb.state == halfOpen || len(cb.failures) >= cb.threshold {
		cb.state = open
		cb.openUntil = now.Add(cb.cooldown)
	}
}

// RecordSuccess closes the breaker and forgets earlier failures.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = closed
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

// Failures returns how many failed uploads are still inside the window.
func (cb *CircuitBreaker) Failures() int {
	if cb == nil {
		return 0
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.prune(cb.now())
	return len(cb.failures)
}

// RetryAfter is the time left until the next trial upload, zero when the
// breaker is not refusing uploads on a timer.
func (cb *CircuitBreaker) RetryAfter() time.Duration {
	if cb == nil {
		return 0
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != open {
		return 0
	}
	if d := cb.openUntil.Sub(cb.now()); d > 0 {
		return d
	}
	return 0
}

// prune drops failures at or before now-window. Caller holds mu.
func (cb *CircuitBreaker) prune(now time.Time) []time.Time {
	cutoff := now.Add(-cb.window)
	kept := cb.failures[:0]
	for _, at := range cb.failures {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}
