// Package ratelimit paces outbound requests to the auction API. It keeps a
// sliding one-minute log of attempt timestamps and enforces a minimum spacing
// between consecutive attempts. Waiting for permission is fail-open: after a
// hard ceiling the caller proceeds even if the limiter never opened, trading
// strict enforcement for availability.
package ratelimit

import "context"

// Limiter is the pacing contract for outbound calls. Implementations must be
// safe for concurrent use.
type Limiter interface {
	// CanProceed reports whether a request may be attempted right now.
	// It does not consume permission.
	CanProceed() bool

	// RecordAttempt records the current instant as an attempt. Call it
	// exactly once per permitted attempt, never for rejected ones.
	RecordAttempt()

	// Wait blocks until CanProceed would return true, the fail-open ceiling
	// elapses, or ctx is done. It returns nil in the first two cases and
	// ctx.Err() in the last.
	Wait(ctx context.Context) error
}
