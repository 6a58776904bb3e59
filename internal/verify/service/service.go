// Package service assembles one verification gateway per supported
// government portal. Each portal contributes its query handling, form
// layout, and result parsing; the shared resilience stack comes from the
// gateway package.
package service

import (
	"log/slog"

	"govgate/internal/platform/config"
	"govgate/internal/verify/browser"
	"govgate/internal/verify/circuit"
	"govgate/internal/verify/gateway"
	"govgate/internal/verify/metrics"
	"govgate/internal/verify/ports"
	"govgate/internal/verify/retry"
)

const disabledMessage = "portal integration is disabled; this canned result is for development only"

// Deps carries the shared collaborators every portal gateway uses. Nil
// fields are simply not wired: no cache means every check goes live, no
// history means checks are not recorded.
type Deps struct {
	Pages   ports.PageProvider
	Solver  ports.CaptchaSolver
	Cache   ports.Cache
	History gateway.HistoryStore
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func newGateway[Q, T any](portal gateway.Portal[Q, T], spec browser.FormSpec, cfg config.PortalConfig, deps Deps) *gateway.Gateway[Q, T] {
	var sessionOpts []browser.Option
	if deps.Logger != nil {
		sessionOpts = append(sessionOpts, browser.WithLogger(deps.Logger))
	}
	session := browser.New(portal.Name(), cfg.ServiceURL, spec, deps.Pages, deps.Solver, sessionOpts...)

	opts := []gateway.Option[Q, T]{
		gateway.WithBreaker[Q, T](circuit.New(
			circuit.WithThreshold(cfg.CircuitThreshold),
			circuit.WithResetTimeout(cfg.CircuitResetTimeout),
		)),
		gateway.WithRetryPolicy[Q, T](retry.New(cfg.RetryAttempts, cfg.RetryBaseDelay)),
	}
	if deps.Cache != nil {
		opts = append(opts, gateway.WithCache[Q, T](deps.Cache))
	}
	if deps.History != nil {
		opts = append(opts, gateway.WithHistory[Q, T](deps.History))
	}
	if deps.Metrics != nil {
		opts = append(opts, gateway.WithMetrics[Q, T](deps.Metrics))
	}
	if deps.Logger != nil {
		opts = append(opts, gateway.WithLogger[Q, T](deps.Logger))
	}

	return gateway.New(portal, session, gateway.Config{
		Enabled:        cfg.Enabled,
		AttemptTimeout: cfg.Timeout,
		CacheTTL:       cfg.CacheTTL,
	}, opts...)
}
