// backend/utils/ratelimit.go
package utils

import (
	"context"
	"math/rand"
	"time"
)

// RateLimiter enforces a randomized minimum gap between consecutive requests
// to one upstream source. The delay is drawn uniformly from [minDelay,
// maxDelay] on every call, so successive gaps vary instead of forming a
// uniform, bot-like cadence.
//
// A RateLimiter is owned by a single adapter and is not safe for concurrent
// use; each adapter keeps its own.
type RateLimiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	lastCall time.Time
	rng      *rand.Rand
}

// NewRateLimiter builds a limiter for the given delay interval. If maxDelay
// is below minDelay it is raised to minDelay.
func NewRateLimiter(minDelay, maxDelay time.Duration) *RateLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &RateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait suspends the caller until the randomly drawn delay since the previous
// call has elapsed. If enough wall-clock time has already passed it returns
// immediately. The suspension parks only the calling goroutine and honors
// context cancellation.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	delay := rl.minDelay
	if spread := rl.maxDelay - rl.minDelay; spread > 0 {
		delay += time.Duration(rl.rng.Int63n(int64(spread) + 1))
	}

	if !rl.lastCall.IsZero() {
		if remaining := delay - time.Since(rl.lastCall); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				rl.lastCall = time.Now()
				return ctx.Err()
			}
		}
	}

	rl.lastCall = time.Now()
	return nil
}
