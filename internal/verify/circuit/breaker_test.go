package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests step through the reset timeout deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestBreaker_InitialState(t *testing.T) {
	b := New()
	assert.True(t, b.Allow())
	snap := b.Snapshot()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.Failures)
}

func TestBreaker_OpensAtExactlyThreshold(t *testing.T) {
	b := New(WithThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.Snapshot().State, "two failures must not open a threshold-3 breaker")
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.Snapshot().State)
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New(WithThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.Snapshot().State)

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.Snapshot().State)
}

func TestBreaker_HalfOpenProbeAfterResetTimeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := New(WithThreshold(1), WithResetTimeout(time.Minute), WithClock(clock.Now))

	b.RecordFailure()
	require.Equal(t, StateOpen, b.Snapshot().State)

	clock.Advance(59 * time.Second)
	assert.False(t, b.Allow(), "probe must not be admitted before the reset timeout")

	clock.Advance(time.Second)
	assert.True(t, b.Allow(), "first call at the reset timeout is the probe")
	assert.Equal(t, StateHalfOpen, b.Snapshot().State)
	assert.False(t, b.Allow(), "only a single probe is admitted")
}

func TestBreaker_FailingProbeReopensWithFreshTimestamp(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := New(WithThreshold(1), WithResetTimeout(time.Minute), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(time.Minute)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.Snapshot().State)

	// The open window restarts from the probe failure.
	clock.Advance(30 * time.Second)
	assert.False(t, b.Allow())
	clock.Advance(30 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreaker_SucceedingProbeCloses(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := New(WithThreshold(1), WithResetTimeout(time.Minute), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(time.Minute)
	require.True(t, b.Allow())

	b.RecordSuccess()
	snap := b.Snapshot()
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.Failures)
	assert.True(t, b.Allow())
}

func TestBreaker_CancelledProbeReopensWithFreshTimestamp(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := New(WithThreshold(1), WithResetTimeout(time.Minute), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(time.Minute)
	require.True(t, b.Allow())
	require.Equal(t, StateHalfOpen, b.Snapshot().State)

	b.CancelProbe()
	assert.Equal(t, StateOpen, b.Snapshot().State, "an abandoned probe must not hold the breaker half-open")

	clock.Advance(30 * time.Second)
	assert.False(t, b.Allow())
	clock.Advance(30 * time.Second)
	assert.True(t, b.Allow(), "a fresh probe is admitted one reset timeout after cancellation")

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.Snapshot().State)
}

func TestBreaker_CancelProbeIsNoOpWhenNotHalfOpen(t *testing.T) {
	b := New(WithThreshold(2))

	b.CancelProbe()
	assert.Equal(t, StateClosed, b.Snapshot().State)
	assert.True(t, b.Allow())

	b.RecordFailure()
	b.RecordFailure()
	b.CancelProbe()
	assert.Equal(t, StateOpen, b.Snapshot().State)
}

// TestBreaker_ConcurrentFailureBurst verifies the CLOSED->OPEN transition is
// not raced or double-counted: after a burst of concurrent failures the
// breaker is open and every failure was counted exactly once.
func TestBreaker_ConcurrentFailureBurst(t *testing.T) {
	const workers = 50
	b := New(WithThreshold(workers))

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer done.Done()
			start.Wait()
			b.RecordFailure()
		}()
	}
	start.Done()
	done.Wait()

	snap := b.Snapshot()
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, workers, snap.Failures)
	assert.False(t, b.Allow())
}
