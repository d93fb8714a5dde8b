package rate

import (
	"context"
	"errors"
	"fmt"

	xrate "golang.org/x/time/rate"
)

// Config holds limiter tuning parameters.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Limiter wraps a token bucket shared by every backend call of one client.
type Limiter struct {
	bucket *xrate.Limiter
}

// New creates a [Limiter]. RequestsPerSecond <= 0 returns a limiter that never blocks.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return &Limiter{}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{bucket: xrate.NewLimiter(xrate.Limit(cfg.RequestsPerSecond), burst)}
}

// Wait blocks until a token is available or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.bucket == nil {
		return nil
	}
	if err := l.bucket.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// x/time/rate refuses up front when the deadline is too close.
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return nil
}

// Allow reports whether a call may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	if l == nil || l.bucket == nil {
		return true
	}
	return l.bucket.Allow()
}

// IsRateLimited reports whether err came from this package.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
