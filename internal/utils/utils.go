package utils

import (
	"context"
	"time"
)

// seam for tests
var sleep = time.Sleep

// WaitFor pauses between API calls, mainly to respect the public registries'
// rate limits, and returns early when the context is cancelled.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
