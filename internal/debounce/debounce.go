// Package debounce delays a callback until input stops arriving for a quiet
// period, collapsing bursts (search keystrokes) into a single invocation.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules fn to run delay after the most recent Call. Each Call
// cancels any pending run and replaces its value; intermediate values are
// discarded, never queued. Safe for concurrent use.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a debouncer invoking fn with the last value seen during a
// quiet window of the given delay.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Call resets the quiet window. Only the value from the final Call within a
// window reaches fn.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fn(v)
	})
}

// Stop cancels any pending invocation.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
