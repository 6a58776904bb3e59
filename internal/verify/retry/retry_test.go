package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govgate/internal/verify/verifyerr"
)

func noSleep() Option {
	return WithSleep(func(ctx context.Context, d time.Duration) error { return nil })
}

func TestNextDelay_ExponentialAndCapped(t *testing.T) {
	// Zero jitter makes the sequence exact.
	p := New(5, 2*time.Second, WithRand(func() float64 { return 0 }))

	assert.Equal(t, 2*time.Second, p.NextDelay(1))
	assert.Equal(t, 4*time.Second, p.NextDelay(2))
	assert.Equal(t, 8*time.Second, p.NextDelay(3))
	assert.Equal(t, 16*time.Second, p.NextDelay(4))
	assert.Equal(t, 30*time.Second, p.NextDelay(5), "delay is capped at 30s")
}

func TestNextDelay_JitterBounds(t *testing.T) {
	// Maximum jitter adds exactly 30% of the exponential part.
	p := New(3, 2*time.Second, WithRand(func() float64 { return 1 }))

	assert.Equal(t, 2600*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 5200*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 10400*time.Millisecond, p.NextDelay(3))
}

func TestNextDelay_MonotonicWithoutJitter(t *testing.T) {
	p := New(3, 500*time.Millisecond, WithRand(func() float64 { return 0 }))

	prev := time.Duration(0)
	for attempt := 1; attempt <= 10; attempt++ {
		d := p.NextDelay(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, d, 30*time.Second)
		prev = d
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	p := New(3, time.Millisecond, noSleep())

	calls := 0
	got, attempts, err := Do(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	p := New(3, time.Millisecond, noSleep())

	calls := 0
	got, attempts, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, verifyerr.New(verifyerr.CategoryTimeout, "fssp", "portal slow", nil)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	p := New(3, time.Millisecond, noSleep())

	lastErr := errors.New("attempt 3 failed")
	calls := 0
	_, attempts, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, lastErr
		}
		return 0, errors.New("transient")
	})

	require.ErrorIs(t, err, lastErr)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryableAbortsImmediately(t *testing.T) {
	p := New(5, time.Millisecond, noSleep())

	calls := 0
	_, attempts, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, verifyerr.New(verifyerr.CategoryCaptchaUnsolvable, "fssp", "solver disabled", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable errors must not consume remaining attempts")
	assert.Equal(t, 1, attempts)
	assert.Equal(t, verifyerr.CategoryCaptchaUnsolvable, verifyerr.GetCategory(err))
}

func TestDo_CancelledContextStopsLoop(t *testing.T) {
	p := New(3, time.Minute) // real sleep; cancellation must interrupt it

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, _, err := Do(ctx, p, func(ctx context.Context) (int, error) {
		return 0, errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
