package horizon

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound ledger API calls to a per-minute budget with
// a small burst allowance. Safe for concurrent use; every worker of a
// collection run shares one instance.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter for the given calls-per-minute budget.
// A non-positive budget disables throttling.
func NewRateLimiter(callsPerMinute int) *RateLimiter {
	if callsPerMinute <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	burst := callsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(callsPerMinute)/60.0), burst),
	}
}

// Acquire blocks until a call slot is available or the context is cancelled.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
