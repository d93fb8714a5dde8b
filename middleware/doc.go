// Package middleware exposes HTTP adapters that put goGuard.Engine decisions in
// front of application routes.
//
// # Guards
//
//   - [Guard]: evaluates each request in the given [Mode].
//   - [RequireSession]: any signed-in visitor; a liveness hint admits.
//   - [RequireAdmin]: a fresh server verification of an allow-listed ADMIN.
//
// Each guard decides the request against a fresh, empty session cell. Non-admin
// routes admit on the request's hint cookie; admin routes verify with the cookies
// the request carries. The settled decision is injected into the request context
// ([DecisionFromContext]). Denied requests are redirected to the sign-in path with
// the hint cookie expired.
//
// [LogoutAllHandler] serves the multi-device logout action.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authorization logic itself; every decision comes from Engine.EvaluateRequest.
//
// # What this package must NOT do
//
//   - Trust the hint cookie for anything the Engine did not admit.
//   - Call the backend directly (Engine handles I/O).
//   - Keep per-visitor state between requests.
package middleware
