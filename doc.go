// Package goGuard coordinates client-side authentication state against a remote
// authentication backend: it gates protected views, relays the OAuth callback through
// a same-origin redirect, detects sessions ended on other devices, mirrors lockout
// state for one identifier, and normalizes every failure into one error taxonomy.
//
// The package is designed for concurrent use: Engine methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goGuard is the public surface. It exposes [Engine], [Builder], [Config] and value
// types (GuardDecision, LogoutResult, MetricsSnapshot). The single session state cell
// lives in the session package; flow orchestration, the backend client, periodic
// tasks, cache stores and audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Trust a liveness hint for admin routes.
//   - Retry a verification, callback or logout call on its own.
//   - Treat a transient polling failure as a logout.
//   - Import any sub-package that re-imports goGuard (no import cycles).
package goGuard
