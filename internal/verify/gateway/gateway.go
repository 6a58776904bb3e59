// Package gateway runs verification checks against one government portal,
// wrapping the live portal session with caching, retry, a circuit breaker,
// and degraded fallback results. Check never fails: callers always get a
// result, tagged with how it was obtained.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"govgate/internal/verify/circuit"
	"govgate/internal/verify/history"
	"govgate/internal/verify/metrics"
	"govgate/internal/verify/models"
	"govgate/internal/verify/ports"
	"govgate/internal/verify/retry"
	"govgate/internal/verify/verifyerr"
)

// FallbackMessage accompanies every advisory result produced when the live
// portal could not be consulted.
const FallbackMessage = "portal is temporarily unreachable; this advisory result does not confirm absence of records"

// Verdict is what a portal parser extracts from a result page.
type Verdict[T any] struct {
	Payload       T
	Positive      bool
	LowConfidence bool
}

// Portal describes one government portal: how to prepare its queries, drive
// its form, and read its answers.
type Portal[Q, T any] interface {
	Name() string
	Normalize(query Q) Q
	Validate(query Q) error
	CacheKey(query Q) string
	FormValues(query Q) map[string]string
	Parse(html string) Verdict[T]

	// Disabled produces the canned result served when the portal integration
	// is switched off, including the recognized test-input behaviors.
	Disabled(query Q) (T, string)

	// Fallback produces the payload for advisory results when the live
	// portal could not be consulted at all.
	Fallback() T
}

// Executor runs one live portal attempt and returns the result page HTML.
type Executor interface {
	Execute(ctx context.Context, values map[string]string) (string, error)
}

// HistoryStore records completed checks.
type HistoryStore interface {
	Append(ctx context.Context, record history.Record) error
}

// Config carries the per-portal gateway settings.
type Config struct {
	Enabled        bool
	AttemptTimeout time.Duration
	CacheTTL       time.Duration
}

// Gateway wraps one portal with the full resilience stack.
type Gateway[Q, T any] struct {
	portal  Portal[Q, T]
	exec    Executor
	cfg     Config
	cache   ports.Cache
	breaker *circuit.Breaker
	policy  retry.Policy
	history HistoryStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	group   singleflight.Group
}

// Option configures a Gateway.
type Option[Q, T any] func(*Gateway[Q, T])

// WithCache sets the result cache. Without one every check goes live.
func WithCache[Q, T any](cache ports.Cache) Option[Q, T] {
	return func(g *Gateway[Q, T]) {
		g.cache = cache
	}
}

// WithBreaker sets the circuit breaker.
func WithBreaker[Q, T any](breaker *circuit.Breaker) Option[Q, T] {
	return func(g *Gateway[Q, T]) {
		g.breaker = breaker
	}
}

// WithRetryPolicy sets the retry policy for live attempts.
func WithRetryPolicy[Q, T any](policy retry.Policy) Option[Q, T] {
	return func(g *Gateway[Q, T]) {
		g.policy = policy
	}
}

// WithHistory sets the check-history store.
func WithHistory[Q, T any](store HistoryStore) Option[Q, T] {
	return func(g *Gateway[Q, T]) {
		g.history = store
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics[Q, T any](m *metrics.Metrics) Option[Q, T] {
	return func(g *Gateway[Q, T]) {
		g.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger[Q, T any](logger *slog.Logger) Option[Q, T] {
	return func(g *Gateway[Q, T]) {
		g.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock[Q, T any](now func() time.Time) Option[Q, T] {
	return func(g *Gateway[Q, T]) {
		g.now = now
	}
}

// New creates a gateway for one portal.
func New[Q, T any](portal Portal[Q, T], exec Executor, cfg Config, opts ...Option[Q, T]) *Gateway[Q, T] {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	g := &Gateway[Q, T]{
		portal:  portal,
		exec:    exec,
		cfg:     cfg,
		breaker: circuit.New(),
		policy:  retry.New(0, 0),
		history: history.NewNop(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the portal name.
func (g *Gateway[Q, T]) Name() string {
	return g.portal.Name()
}

// BreakerSnapshot exposes the breaker state for monitoring endpoints.
func (g *Gateway[Q, T]) BreakerSnapshot() circuit.Snapshot {
	return g.breaker.Snapshot()
}

// Check runs one verification. It always returns a result: cached when
// fresh, live when the portal answers, and an advisory fallback otherwise.
func (g *Gateway[Q, T]) Check(ctx context.Context, query Q) models.Result[T] {
	start := g.now()
	portal := g.portal.Name()
	defer func() {
		g.metrics.ObserveCheckLatency(portal, g.now().Sub(start))
	}()

	query = g.portal.Normalize(query)
	if err := g.portal.Validate(query); err != nil {
		g.metrics.IncrementCheck(portal, string(models.SourceFallback))
		return models.Result[T]{
			Payload:   g.portal.Fallback(),
			Source:    models.SourceFallback,
			CheckedAt: g.now(),
			Message:   "invalid query: " + err.Error(),
		}
	}

	// A warm cache entry stays authoritative even when the portal has since
	// been switched off.
	key := g.portal.CacheKey(query)
	if result, ok := g.fromCache(ctx, key); ok {
		g.metrics.IncrementCheck(portal, string(models.SourceCache))
		return result
	}

	if !g.cfg.Enabled {
		payload, message := g.portal.Disabled(query)
		g.metrics.IncrementCheck(portal, string(models.SourceFallback))
		return models.Result[T]{
			Payload:   payload,
			Source:    models.SourceFallback,
			CheckedAt: g.now(),
			Message:   message,
		}
	}

	// Concurrent identical queries share one live check.
	v, _, _ := g.group.Do(key, func() (any, error) {
		return g.live(ctx, query, key), nil
	})
	result := v.(models.Result[T])

	g.metrics.IncrementCheck(portal, string(result.Source))
	return result
}

func (g *Gateway[Q, T]) fromCache(ctx context.Context, key string) (models.Result[T], bool) {
	var zero models.Result[T]
	if g.cache == nil {
		return zero, false
	}

	data, found, err := g.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a miss.
		g.logger.WarnContext(ctx, "cache lookup failed",
			"portal", g.portal.Name(), "error", err)
		g.metrics.IncrementCacheLookup(g.portal.Name(), false)
		return zero, false
	}
	if !found {
		g.metrics.IncrementCacheLookup(g.portal.Name(), false)
		return zero, false
	}

	var result models.Result[T]
	if err := json.Unmarshal(data, &result); err != nil {
		g.logger.WarnContext(ctx, "cache entry corrupt",
			"portal", g.portal.Name(), "error", err)
		g.metrics.IncrementCacheLookup(g.portal.Name(), false)
		return zero, false
	}

	g.metrics.IncrementCacheLookup(g.portal.Name(), true)
	result.Source = models.SourceCache
	return result, true
}

func (g *Gateway[Q, T]) live(ctx context.Context, query Q, key string) models.Result[T] {
	portal := g.portal.Name()

	if !g.breaker.Allow() {
		g.publishBreakerState()
		g.logger.InfoContext(ctx, "circuit open, serving fallback", "portal", portal)
		result := g.fallbackResult()
		g.record(ctx, key, result, false, false, 0)
		return result
	}

	values := g.portal.FormValues(query)
	verdict, attempts, err := retry.Do(ctx, g.policy, func(ctx context.Context) (Verdict[T], error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		defer cancel()

		html, err := g.exec.Execute(attemptCtx, values)
		if err != nil {
			return Verdict[T]{}, err
		}
		return g.portal.Parse(html), nil
	})
	if err != nil {
		if attempts > 0 {
			g.breaker.RecordFailure()
		} else {
			// The call was admitted but never reached the portal (context
			// already done). Release a possible half-open probe so the
			// breaker is not stuck waiting for a resolution that never comes.
			g.breaker.CancelProbe()
		}
		g.publishBreakerState()
		g.logger.ErrorContext(ctx, "live check failed",
			"portal", portal,
			"attempts", attempts,
			"category", verifyerr.GetCategory(err),
			"error", err,
		)
		result := g.fallbackResult()
		g.record(ctx, key, result, false, false, attempts)
		return result
	}

	g.breaker.RecordSuccess()
	g.publishBreakerState()
	g.metrics.ObserveAttempts(portal, attempts)

	result := models.Result[T]{
		Payload:       verdict.Payload,
		Source:        models.SourceLive,
		CheckedAt:     g.now(),
		LowConfidence: verdict.LowConfidence,
	}
	g.store(ctx, key, result)
	g.record(ctx, key, result, verdict.Positive, verdict.LowConfidence, attempts)
	return result
}

func (g *Gateway[Q, T]) fallbackResult() models.Result[T] {
	return models.Result[T]{
		Payload:   g.portal.Fallback(),
		Source:    models.SourceFallback,
		CheckedAt: g.now(),
		Message:   FallbackMessage,
	}
}

func (g *Gateway[Q, T]) store(ctx context.Context, key string, result models.Result[T]) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		g.logger.WarnContext(ctx, "marshal result for cache failed",
			"portal", g.portal.Name(), "error", err)
		return
	}
	if err := g.cache.Set(ctx, key, data, g.cfg.CacheTTL); err != nil {
		g.logger.WarnContext(ctx, "cache write failed",
			"portal", g.portal.Name(), "error", err)
	}
}

func (g *Gateway[Q, T]) record(ctx context.Context, key string, result models.Result[T], positive, lowConfidence bool, attempts int) {
	err := g.history.Append(ctx, history.Record{
		Portal:        g.portal.Name(),
		QueryHash:     history.HashQuery(key),
		Source:        string(result.Source),
		Positive:      positive,
		LowConfidence: lowConfidence,
		Attempts:      attempts,
		Message:       result.Message,
		CheckedAt:     result.CheckedAt,
	})
	if err != nil {
		g.logger.WarnContext(ctx, "history append failed",
			"portal", g.portal.Name(), "error", err)
	}
}

func (g *Gateway[Q, T]) publishBreakerState() {
	snapshot := g.breaker.Snapshot()
	g.metrics.SetBreakerState(g.portal.Name(), int(snapshot.State))
}
