package util

import (
	"context"
	"time"
)

// Retry calls fn up to maxAttempts times, doubling the delay between
// attempts starting at baseDelay. It returns nil on the first success, the
// context error if the context is cancelled while waiting, or the last
// error once all attempts fail.
//
// The collector deliberately does not retry per-location event fetches —
// the next scheduled run is the retry — so this is used only for calls
// whose failure would sink the whole run, like location discovery.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
