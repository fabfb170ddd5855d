package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, None(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	backoffCalls := 0
	recordingBackoff := func(attempt int) time.Duration {
		backoffCalls++
		return 0
	}

	err := Do(context.Background(), 3, recordingBackoff, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// 前两次失败各触发一次退避等待
	assert.Equal(t, 2, backoffCalls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	backoffCalls := 0
	recordingBackoff := func(attempt int) time.Duration {
		backoffCalls++
		return 0
	}

	wantErr := errors.New("permanent")
	err := Do(context.Background(), 3, recordingBackoff, func() error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
	// 最后一次失败后不再等待
	assert.Equal(t, 2, backoffCalls)
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, 3, Exponential(time.Hour), func() error {
		calls++
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoff(t *testing.T) {
	b := Exponential(time.Second)
	assert.Equal(t, 1*time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
	assert.Equal(t, 4*time.Second, b(3))
}
