package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnlimitedNeverSleeps(t *testing.T) {
	l := New(nil)
	slept := false
	l.sleep = func(time.Duration) { slept = true }

	for i := 0; i < 5; i++ {
		l.Acquire()
	}
	require.False(t, slept)
}

func TestAcquireSleepsWhenAllowanceExhausted(t *testing.T) {
	rps := 2.0
	l := New(&rps)

	var slept []time.Duration
	l.sleep = func(d time.Duration) { slept = append(slept, d) }

	clock := l.lastCheck
	l.now = func() time.Time { return clock }

	// The bucket starts full (allowance == rps == 2), so the first two
	// Acquires are free.
	l.Acquire()
	l.Acquire()
	require.Empty(t, slept)

	// A third immediate Acquire (no time has passed) must wait for the
	// bucket to refill.
	l.Acquire()
	require.Len(t, slept, 1)
	require.InDelta(t, 500*time.Millisecond, slept[0], float64(5*time.Millisecond))
}

func TestAcquireRefillsOverTime(t *testing.T) {
	rps := 1.0
	l := New(&rps)

	var slept []time.Duration
	l.sleep = func(d time.Duration) { slept = append(slept, d) }

	clock := l.lastCheck
	l.now = func() time.Time { return clock }

	l.Acquire() // consumes the initial full bucket

	// Advance the clock by a full second: the bucket should be full again.
	clock = clock.Add(time.Second)
	l.Acquire()
	require.Empty(t, slept)
}
