package goGuard

import (
	"context"

	"github.com/MrEthical07/goGuard/internal/backend"
)

// WithForwardedCookies attaches the inbound Cookie header to ctx. Backend calls made
// with ctx forward it verbatim, which is how the backend recognizes the session.
func WithForwardedCookies(ctx context.Context, cookieHeader string) context.Context {
	return backend.WithCookies(ctx, cookieHeader)
}

// WithRequestID attaches a correlation id sent as X-Request-ID on backend calls and
// recorded on audit events. A random id is used when absent.
func WithRequestID(ctx context.Context, id string) context.Context {
	return backend.WithRequestID(ctx, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return backend.RequestIDFromContext(ctx)
}

type requestScopeKey struct{}

// withRequestScope marks ctx as belonging to a request-scoped evaluation. Audit
// events emitted under it never borrow the engine session's user.
func withRequestScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestScopeKey{}, true)
}

func isRequestScoped(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	scoped, _ := ctx.Value(requestScopeKey{}).(bool)
	return scoped
}
