// Package utils contains small helpers shared across the project.
package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// WithRetry runs the given function with retry logic.
// Retries up to 3 times with delays: 1s, 3s, and 5s.
func WithRetry(ctx context.Context, fn func() error) error {
	return WithRetryIf(ctx, isRetriable, fn)
}

// WithRetryIf is WithRetry with a caller-supplied retriability check.
func WithRetryIf(ctx context.Context, retriable func(error) bool, fn func() error) error {
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}
	var err error
	for _, delay := range delays {
		err = fn()
		if err == nil || !retriable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return os.IsTimeout(err)
}

// WaitUntil polls cond up to attempts times with a fixed delay between
// attempts, until it reports true. An error from cond counts as a failed
// attempt; the last one is returned when attempts run out.
func WaitUntil(ctx context.Context, attempts int, delay time.Duration, cond func() (bool, error)) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		ok, err := cond()
		if err == nil && ok {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if lastErr != nil {
		return fmt.Errorf("condition not met after %d attempts: %w", attempts, lastErr)
	}
	return fmt.Errorf("condition not met after %d attempts", attempts)
}
