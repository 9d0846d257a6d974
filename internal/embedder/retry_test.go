package embedder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryFixed_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := retryFixed(context.Background(), RetryConfig{MaxAttempts: 3, Delay: 0},
		func() (string, error) {
			calls++
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestRetryFixed_ExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("persistent failure")
	calls := 0

	_, err := retryFixed(context.Background(), RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
		func() (int, error) {
			calls++
			return 0, wantErr
		})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestRetryFixed_RecoverOnLaterAttempt(t *testing.T) {
	calls := 0
	result, err := retryFixed(context.Background(), RetryConfig{MaxAttempts: 3, Delay: 0},
		func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestRetryFixed_CancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := retryFixed(ctx, RetryConfig{MaxAttempts: 5, Delay: time.Hour},
		func() (int, error) {
			calls++
			return 0, errors.New("transient")
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation must interrupt the inter-attempt wait")
}
