package testutil

import (
	"context"
	"net/http"

	"govgate/internal/platform/middleware"
)

// WithUserID adds a user ID to the request context, simulating what the auth
// middleware does for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}

// WithClientID adds a calling client ID to the request context.
func WithClientID(req *http.Request, clientID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyClientID, clientID)
	return req.WithContext(ctx)
}

// WithAuth adds both user ID and client ID to the request context. This is
// the typical state for an authenticated request.
func WithAuth(req *http.Request, userID, clientID string) *http.Request {
	return WithClientID(WithUserID(req, userID), clientID)
}
