// Package ratelimit implements the token-bucket gate shared by every
// worker dispatching probes: a single Limiter serializes the timing of
// outbound sends across the whole run.
//
// Grounded on har_minimizer/http_client.py's RateLimiter: an allowance
// counter and a last-check timestamp guarded by a mutex, advanced on every
// acquire.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter gates outbound request timing to stay under a configured rate.
// A nil RequestsPerSecond leaves Acquire a no-op.
type Limiter struct {
	mu                sync.Mutex
	requestsPerSecond float64
	unlimited         bool
	allowance         float64
	lastCheck         time.Time

	// sleep is overridable in tests so they don't have to wait on a real
	// clock.
	sleep func(time.Duration)
	now   func() time.Time
}

// New creates a Limiter. If rps is nil, Acquire never blocks.
func New(rps *float64) *Limiter {
	l := &Limiter{
		sleep: time.Sleep,
		now:   time.Now,
	}
	if rps == nil || *rps <= 0 {
		l.unlimited = true
		return l
	}
	l.requestsPerSecond = *rps
	l.allowance = *rps
	l.lastCheck = time.Now()
	return l
}

// Acquire blocks the caller until one token is available. Callers are
// served in whatever order they acquire the internal lock; fairness across
// concurrent callers is not guaranteed and is not required for replay
// fidelity.
func (l *Limiter) Acquire() {
	if l.unlimited {
		return
	}

	l.mu.Lock()
	current := l.now()
	elapsed := current.Sub(l.lastCheck).Seconds()
	l.lastCheck = current

	l.allowance += elapsed * l.requestsPerSecond
	if l.allowance > l.requestsPerSecond {
		l.allowance = l.requestsPerSecond
	}

	if l.allowance < 1.0 {
		sleepFor := (1.0 - l.allowance) / l.requestsPerSecond
		l.allowance = 0
		l.mu.Unlock()
		if sleepFor > 0 {
			l.sleep(time.Duration(sleepFor * float64(time.Second)))
		}
		return
	}

	l.allowance -= 1.0
	l.mu.Unlock()
}
