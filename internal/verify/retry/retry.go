// Package retry implements the delay policy and calling loop for repeated
// portal attempts: exponential backoff with uniform jitter, capped, aborting
// immediately on non-retryable errors.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"govgate/internal/verify/verifyerr"
)

const jitterFraction = 0.3

// Policy computes the delay sequence for repeated attempts and the cutoff
// after which the loop gives up.
type Policy struct {
	attempts  int
	baseDelay time.Duration
	capDelay  time.Duration
	randFloat func() float64
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Policy.
type Option func(*Policy)

// WithRand overrides the jitter source. Used by tests.
func WithRand(f func() float64) Option {
	return func(p *Policy) {
		p.randFloat = f
	}
}

// WithSleep overrides the inter-attempt sleep. Used by tests.
func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) {
		p.sleep = f
	}
}

// WithCap sets the maximum delay between attempts.
func WithCap(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.capDelay = d
		}
	}
}

// New creates a Policy. Non-positive arguments fall back to the defaults
// (3 attempts, 2s base delay, 30s cap).
func New(attempts int, baseDelay time.Duration, opts ...Option) Policy {
	p := Policy{
		attempts:  attempts,
		baseDelay: baseDelay,
		capDelay:  30 * time.Second,
		randFloat: rand.Float64,
		sleep:     sleepCtx,
	}
	if p.attempts <= 0 {
		p.attempts = 3
	}
	if p.baseDelay <= 0 {
		p.baseDelay = 2 * time.Second
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// MaxAttempts returns the total number of attempts the loop will make.
func (p Policy) MaxAttempts() int {
	return p.attempts
}

// NextDelay returns the backoff before the attempt following `attempt`
// (1-based): base * 2^(attempt-1) plus a uniform jitter of up to 30% of the
// exponential part, capped.
func (p Policy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exponential := float64(p.baseDelay) * float64(uint64(1)<<(attempt-1))
	jitter := p.randFloat() * jitterFraction * exponential
	delay := time.Duration(exponential + jitter)
	if delay > p.capDelay {
		delay = p.capDelay
	}
	return delay
}

// Do runs fn up to MaxAttempts times, sleeping NextDelay between failures.
// A non-retryable error aborts immediately without consuming remaining
// attempts. Returns the last error when every attempt failed, and the number
// of attempts actually made.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if !verifyerr.IsRetryable(err) {
			return zero, attempt, err
		}
		if attempt == p.attempts {
			break
		}
		if err := p.sleep(ctx, p.NextDelay(attempt)); err != nil {
			return zero, attempt, err
		}
	}

	return zero, p.attempts, lastErr
}

// sleepCtx suspends only the calling goroutine, waking early on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
