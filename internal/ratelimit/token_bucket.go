// Package ratelimit throttles the Executor's outgoing byte rate via the
// configuration contract's max_bandwidth option (0 meaning unlimited).
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket wraps golang.org/x/time/rate.Limiter, replacing the prior
// hand-rolled mutex-guarded bucket with the rate-limiting primitive the rest
// of the pack already depends on.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket constructs a bucket refilling at ratePerSec tokens/sec with
// a burst capacity of burst tokens.
func NewTokenBucket(ratePerSec float64, burst int) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Allow reports whether n tokens are available right now, consuming them if
// so.
func (tb *TokenBucket) Allow(n int) bool {
	return tb.limiter.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available. A request larger than the
// burst size is taken in burst-sized steps.
func (tb *TokenBucket) Wait(n int) {
	burst := tb.limiter.Burst()
	for n > 0 {
		step := n
		if burst > 0 && step > burst {
			step = burst
		}
		_ = tb.limiter.WaitN(context.Background(), step)
		n -= step
	}
}

// WaitContext blocks until n tokens are available or ctx is done. It
// returns an error without waiting when n exceeds the burst size.
func (tb *TokenBucket) WaitContext(ctx context.Context, n int) error {
	return tb.limiter.WaitN(ctx, n)
}
