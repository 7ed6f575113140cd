package cache

import (
	"context"
	"log/slog"
	"time"
)

// Expirable is the minimal contract the Sweeper needs. It keeps the sweeper
// decoupled from the generic cache type.
type Expirable interface {
	RemoveExpired() int
}

// Sweeper periodically evicts expired entries from one or more caches.
// Lazy eviction on access is sufficient for short-lived commands; the
// long-running watch mode runs a Sweeper so idle caches do not grow.
type Sweeper struct {
	targets  []Expirable
	interval time.Duration
	log      *slog.Logger
}

// NewSweeper creates a sweeper over the given caches.
func NewSweeper(interval time.Duration, log *slog.Logger, targets ...Expirable) *Sweeper {
	return &Sweeper{
		targets:  targets,
		interval: interval,
		log:      log,
	}
}

// Run sweeps until ctx is cancelled. It blocks and should be run in its own
// goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("cache sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	removed := 0
	for _, t := range s.targets {
		removed += t.RemoveExpired()
	}
	if removed > 0 {
		s.log.Debug("evicted expired cache entries", "count", removed)
	}
}
