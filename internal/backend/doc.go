// Package backend is the typed HTTP client for the authentication backend.
//
// # Architecture boundaries
//
// The client performs exactly one request per call: no retries, no redirect
// following, no caching. Non-2xx responses come back as *apierror.ResponseError so
// callers can classify them. Cookies and request IDs flow in through the context.
//
// # What this package must NOT do
//
//   - Import goGuard or internal/flows.
//   - Decide authorization or mutate the session store.
//   - Surface raw response bodies to end users.
package backend
