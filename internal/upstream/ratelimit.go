package upstream

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter enforces a minimum interval between upstream calls. A zero
// interval disables it.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	if interval <= 0 {
		return &rateLimiter{}
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (r *rateLimiter) Wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
