// Package metrics provides observability for the verification gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks check traffic, cache effectiveness, and breaker health
// per portal. A nil *Metrics is a no-op, so tests can pass nothing.
type Metrics struct {
	// Completed checks by portal and result source
	ChecksTotal *prometheus.CounterVec

	// Cache lookups by portal and hit/miss
	CacheLookups *prometheus.CounterVec

	// Circuit breaker state by portal (0 closed, 1 open, 2 half-open)
	BreakerState *prometheus.GaugeVec

	// Attempts spent per live check
	AttemptsPerCheck *prometheus.HistogramVec

	// Full check latency including retries
	CheckLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all gateway metrics registered.
func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govgate_checks_total",
			Help: "Total verification checks by portal and result source",
		}, []string{"portal", "source"}), // source: "LIVE", "CACHE", "FALLBACK"

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govgate_cache_lookups_total",
			Help: "Cache lookups by portal and outcome",
		}, []string{"portal", "outcome"}), // outcome: "hit", "miss"

		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "govgate_breaker_state",
			Help: "Circuit breaker state by portal (0 closed, 1 open, 2 half-open)",
		}, []string{"portal"}),

		AttemptsPerCheck: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "govgate_check_attempts",
			Help:    "Portal attempts spent per live check",
			Buckets: []float64{1, 2, 3, 4, 5},
		}, []string{"portal"}),

		CheckLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "govgate_check_duration_seconds",
			Help:    "Duration of full checks including retries",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"portal"}),
	}
}

// IncrementCheck records a completed check and where its result came from.
func (m *Metrics) IncrementCheck(portal, source string) {
	if m != nil {
		m.ChecksTotal.WithLabelValues(portal, source).Inc()
	}
}

// IncrementCacheLookup records a cache hit or miss.
func (m *Metrics) IncrementCacheLookup(portal string, hit bool) {
	if m != nil {
		outcome := "miss"
		if hit {
			outcome = "hit"
		}
		m.CacheLookups.WithLabelValues(portal, outcome).Inc()
	}
}

// SetBreakerState records the current breaker state for a portal.
func (m *Metrics) SetBreakerState(portal string, state int) {
	if m != nil {
		m.BreakerState.WithLabelValues(portal).Set(float64(state))
	}
}

// ObserveAttempts records how many portal attempts one live check used.
func (m *Metrics) ObserveAttempts(portal string, attempts int) {
	if m != nil {
		m.AttemptsPerCheck.WithLabelValues(portal).Observe(float64(attempts))
	}
}

// ObserveCheckLatency records the duration of a full check.
func (m *Metrics) ObserveCheckLatency(portal string, d time.Duration) {
	if m != nil {
		m.CheckLatency.WithLabelValues(portal).Observe(d.Seconds())
	}
}
