package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window is the trailing span timestamps are pruned to.
const window = time.Minute

// SlidingWindowLimiter tracks attempt timestamps in a trailing one-minute
// window. An attempt is permitted when fewer than maxPerWindow timestamps
// remain after pruning and at least minInterval has elapsed since the last
// recorded attempt.
//
// The timestamp log is owned by one limiter instance and mutated only under
// its mutex. The clock is injectable for deterministic tests.
type SlidingWindowLimiter struct {
	maxPerWindow int
	minInterval  time.Duration
	waitCeiling  time.Duration
	now          func() time.Time

	mu          sync.Mutex
	timestamps  []time.Time
	lastAttempt time.Time
}

// NewSlidingWindow creates a limiter permitting maxPerMinute attempts in any
// trailing minute, spaced at least minInterval apart. Wait gives up and
// permits the caller after waitCeiling.
func NewSlidingWindow(maxPerMinute int, minInterval, waitCeiling time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		maxPerWindow: maxPerMinute,
		minInterval:  minInterval,
		waitCeiling:  waitCeiling,
		now:          time.Now,
	}
}

// NewSlidingWindowWithClock is NewSlidingWindow with an injected clock.
func NewSlidingWindowWithClock(maxPerMinute int, minInterval, waitCeiling time.Duration, now func() time.Time) *SlidingWindowLimiter {
	l := NewSlidingWindow(maxPerMinute, minInterval, waitCeiling)
	l.now = now
	return l
}

// CanProceed prunes timestamps older than the window and reports whether a
// new attempt is within both the window budget and the spacing floor.
func (l *SlidingWindowLimiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.timestamps) >= l.maxPerWindow {
		return false
	}
	if !l.lastAttempt.IsZero() && now.Sub(l.lastAttempt) < l.minInterval {
		return false
	}
	return true
}

// RecordAttempt appends the current instant to the log and updates the
// last-attempt time.
func (l *SlidingWindowLimiter) RecordAttempt() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.timestamps = append(l.timestamps, now)
	l.lastAttempt = now
}

// Wait polls CanProceed at minInterval granularity. It returns nil
// immediately if already permitted, nil once permission opens, and nil
// unconditionally after the ceiling elapses (fail-open, so a stuck window can
// never deadlock a caller). Context cancellation returns ctx.Err().
func (l *SlidingWindowLimiter) Wait(ctx context.Context) error {
	if l.CanProceed() {
		return nil
	}

	start := l.now()
	ticker := time.NewTicker(l.minInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.CanProceed() {
				return nil
			}
			if l.now().Sub(start) >= l.waitCeiling {
				return nil
			}
		}
	}
}

// Recorded returns the number of attempts still inside the trailing window.
func (l *SlidingWindowLimiter) Recorded() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.timestamps)
}

// prune drops timestamps older than the trailing window. Caller holds the lock.
func (l *SlidingWindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-window)
	keep := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	l.timestamps = keep
}
