package llm

import (
	"context"
	"time"
)

// Retry policy for remote calls: bounded attempts, doubling delay.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 500 * time.Millisecond
)

// Retry runs fn up to attempts times, doubling the wait after each failure
// starting from delay. The context aborts the wait between attempts; the
// last error is returned after exhaustion.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
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
