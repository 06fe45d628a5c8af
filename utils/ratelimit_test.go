// backend/utils/ratelimit_test.go
package utils

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterFirstCallIsImmediate(t *testing.T) {
	rl := NewRateLimiter(time.Second, 2*time.Second)

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait took %s, want no delay", elapsed)
	}
}

func TestRateLimiterEnforcesGap(t *testing.T) {
	min := 30 * time.Millisecond
	rl := NewRateLimiter(min, min)

	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	// Timer granularity eats a little, so assert against a slightly
	// smaller floor.
	if elapsed := time.Since(start); elapsed < min-5*time.Millisecond {
		t.Errorf("second Wait returned after %s, want at least ~%s", elapsed, min)
	}
}

func TestRateLimiterSkipsElapsedDelay(t *testing.T) {
	min := 20 * time.Millisecond
	rl := NewRateLimiter(min, min)

	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	time.Sleep(2 * min)

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Wait slept %s although the gap had already passed", elapsed)
	}
}

func TestRateLimiterCanceled(t *testing.T) {
	rl := NewRateLimiter(time.Minute, time.Minute)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("Wait returned nil for a canceled context")
	}
	if time.Since(start) > time.Second {
		t.Error("Wait slept through its delay despite cancellation")
	}
}

func TestRateLimiterSwapsInvertedBounds(t *testing.T) {
	rl := NewRateLimiter(50*time.Millisecond, 10*time.Millisecond)
	if rl.maxDelay != rl.minDelay {
		t.Errorf("maxDelay = %s, want raised to minDelay %s", rl.maxDelay, rl.minDelay)
	}
}
