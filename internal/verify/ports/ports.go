// Package ports defines the collaborator interfaces consumed by the
// verification gateways. Interfaces live here so adapters (redis, remote
// captcha API, browser pool, fakes) can be swapped without touching the core.
package ports

import (
	"context"
	"time"
)

// Cache is the key-value cache collaborator. Implementations must not panic
// on transient unavailability; callers treat any error as a miss.
type Cache interface {
	// Get returns the raw cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CaptchaSolver delegates image captchas to a remote solving provider.
type CaptchaSolver interface {
	// Enabled reports whether solving is configured and switched on.
	Enabled() bool

	// Solve returns the text answer for an image challenge.
	Solve(ctx context.Context, image []byte) (string, error)
}

// Page is a navigable browser page supplied by the PageProvider. All methods
// honor context cancellation; WaitVisible is bounded by the context deadline.
type Page interface {
	WaitVisible(ctx context.Context, selector string) error
	Exists(ctx context.Context, selector string) bool
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	CaptureElement(ctx context.Context, selector string) ([]byte, error)
	RunScript(ctx context.Context, script string) error
	Content(ctx context.Context) (string, error)
}

// PageProvider manages the headless-browser page/context lifecycle. Pages are
// per-request resources; the release func must be called on every exit path.
type PageProvider interface {
	Acquire(ctx context.Context, url string) (Page, func(), error)
}
