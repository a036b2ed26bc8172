package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces outbound requests to the booking site with a
// token-bucket refilled at a fixed rate and a capacity of one token, so
// bursts never exceed a single request.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration // time to refill one token
	next     time.Time     // earliest time the next token is available
}

// NewRateLimiter creates a RateLimiter allowing perMinute operations per
// minute. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	var interval time.Duration
	if perMinute > 0 {
		interval = time.Minute / time.Duration(perMinute)
	}
	return &RateLimiter{interval: interval}
}

// Wait blocks until the next token is available or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.interval <= 0 {
		return ctx.Err()
	}

	rl.mu.Lock()
	now := time.Now()
	wait := rl.next.Sub(now)
	if wait < 0 {
		wait = 0
		rl.next = now.Add(rl.interval)
	} else {
		rl.next = rl.next.Add(rl.interval)
	}
	rl.mu.Unlock()

	if wait == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
