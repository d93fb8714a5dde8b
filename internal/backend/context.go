package backend

import "context"

type cookieKey struct{}
type requestIDKey struct{}

// WithCookies attaches the inbound Cookie header to forward on backend calls.
func WithCookies(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, cookieKey{}, header)
}

// CookiesFromContext returns the Cookie header attached with [WithCookies].
func CookiesFromContext(ctx context.Context) string {
	v, _ := ctx.Value(cookieKey{}).(string)
	return v
}

// WithRequestID pins the X-Request-ID used for backend calls made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the ID attached with [WithRequestID].
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
