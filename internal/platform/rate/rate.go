// Package rate limits how fast liveness requests leave the process.
package rate

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every probe worker.
// A nil *Limiter never blocks.
type Limiter struct {
	l *rate.Limiter
}

// New creates a limiter allowing rps operations per second with the given
// burst. rps <= 0 disables limiting.
//
// Example:
//
//	limiter := rate.New(50, 10) // 50 req/s, burst of 10
func New(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Limiter{l: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.l.Wait(ctx)
}

// Rate returns the configured operations per second, 0 when unlimited.
func (l *Limiter) Rate() float64 {
	if l.Unlimited() {
		return 0
	}
	return float64(l.l.Limit())
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	if l == nil {
		return 0
	}
	return l.l.Burst()
}

// Unlimited reports whether the limiter never blocks.
func (l *Limiter) Unlimited() bool {
	return l == nil || l.l.Limit() == rate.Inf
}
