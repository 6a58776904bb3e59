// Package httpserver builds the process-wide HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// A verification request can hold its connection while the portal session
// retries behind the scenes, so the write timeout must exceed the worst-case
// attempt budget (attempts x attempt timeout plus backoff).
const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 3 * time.Minute
	idleTimeout       = 2 * time.Minute
)

// New builds the API server with timeouts sized for long-running checks.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
