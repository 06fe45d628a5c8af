// backend/utils/retry.go
package utils

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryConfig parameterizes Retry: how many attempts to make, the delay
// before the first retry, and the multiplier applied to that delay after
// each failed attempt.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64
}

// Normalize clamps nonsensical values to the minimums the contract requires.
func (c RetryConfig) Normalize() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Backoff < 1 {
		c.Backoff = 1
	}
	return c
}

// Retry runs op up to cfg.MaxAttempts times, sleeping cfg.Delay (multiplied
// by cfg.Backoff after every failure) between attempts. The last error is
// returned once attempts are exhausted; intermediate failures are logged with
// the attempt number. Retry is agnostic to why op failed, so op must be
// retry-safe; callers needing differentiated handling classify errors inside
// op. The backoff suspension parks only the calling goroutine and honors
// context cancellation.
func Retry(ctx context.Context, name string, cfg RetryConfig, op func() error) error {
	cfg = cfg.Normalize()
	delay := cfg.Delay

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			log.Printf("ERROR %s failed after %d attempts: %v", name, cfg.MaxAttempts, err)
			break
		}

		log.Printf("WARN %s attempt %d failed: %v. Retrying in %s...", name, attempt, err, delay)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s canceled during backoff: %w", name, ctx.Err())
		}
		delay = time.Duration(float64(delay) * cfg.Backoff)
	}
	return err
}
