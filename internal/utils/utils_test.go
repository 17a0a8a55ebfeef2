package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithRetryIfStopsOnNonRetriable(t *testing.T) {
	calls := 0
	err := WithRetryIf(context.Background(), func(error) bool { return false }, func() error {
		calls++
		return errors.New("fatal")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetryIfRetries(t *testing.T) {
	retriable := errors.New("flaky")
	calls := 0
	err := WithRetryIf(context.Background(), func(e error) bool { return errors.Is(e, retriable) }, func() error {
		calls++
		if calls < 2 {
			return retriable
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestWaitUntil(t *testing.T) {
	calls := 0
	err := WaitUntil(context.Background(), 5, time.Millisecond, func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestWaitUntilExhausted(t *testing.T) {
	err := WaitUntil(context.Background(), 2, time.Millisecond, func() (bool, error) {
		return false, errors.New("still there")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "still there")
}

func TestWaitUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitUntil(ctx, 10, 10*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
