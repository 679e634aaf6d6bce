package testutil

import (
	"context"
	"net/http"

	"passgate/internal/platform/middleware"
)

// WithSubject adds an authenticated caller identity to the request
// context. This simulates what the auth middleware would do for
// authenticated requests.
func WithSubject(req *http.Request, subject string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubject, subject)
	return req.WithContext(ctx)
}

// WithAuth adds both subject and client ID to the request context.
// This is the typical state for an authenticated request.
func WithAuth(req *http.Request, subject, clientID string) *http.Request {
	ctx := req.Context()
	if subject != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeySubject, subject)
	}
	if clientID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyClientID, clientID)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
