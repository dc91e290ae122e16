package services

import (
	"context"
	"time"
)

const maxRetryDelay = 5 * time.Second

// withRetry calls fn up to attempts times, doubling delay between tries
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	d := delay
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
		if d < maxRetryDelay {
			d *= 2
		}
	}
	return err
}
