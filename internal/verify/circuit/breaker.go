// Package circuit guards calls to a failing portal with a three-state
// circuit breaker. One breaker lives inside each gateway for the lifetime of
// the process; state is never persisted.
package circuit

import (
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Snapshot exposes breaker state for health and monitoring endpoints.
type Snapshot struct {
	State    State `json:"-"`
	Failures int   `json:"failures"`
}

// Breaker tracks consecutive failures against an external portal and gates
// whether a call may proceed. Safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	state       State
	failures    int
	lastFailure time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithThreshold sets the consecutive-failure count that opens the circuit.
func WithThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithResetTimeout sets how long the circuit stays open before a probe.
func WithResetTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// New creates a closed breaker. Defaults: threshold 5, reset timeout 60s.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		threshold:    5,
		resetTimeout: 60 * time.Second,
		now:          time.Now,
		state:        StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may proceed. When the circuit is open and the
// reset timeout has elapsed, the breaker moves to half-open and admits
// exactly one probing call; further calls are rejected until the probe
// resolves via RecordSuccess or RecordFailure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailure) >= b.resetTimeout {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		// A probe is already in flight.
		return false
	default:
		return false
	}
}

// RecordSuccess resets the breaker to closed with a clean failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
}

// RecordFailure counts a failed call. At the threshold the circuit opens;
// a failing half-open probe re-opens it with a refreshed timestamp.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	switch b.state {
	case StateClosed:
		if b.failures >= b.threshold {
			b.state = StateOpen
			b.lastFailure = b.now()
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.lastFailure = b.now()
	case StateOpen:
		// Already open; keep counting but do not refresh the timestamp,
		// otherwise rejected-and-reported calls would postpone the probe.
	}
}

// CancelProbe re-opens a half-open circuit whose admitted probe never ran,
// refreshing the timestamp so the next probe waits a full reset timeout.
// Without it an abandoned probe would hold the breaker half-open and reject
// every later call. No-op in any other state.
func (b *Breaker) CancelProbe() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.lastFailure = b.now()
	}
}

// Snapshot returns the current state and consecutive failure count.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{State: b.state, Failures: b.failures}
}
