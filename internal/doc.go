// Package internal groups the packages that are private to goGuard.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - backend: HTTP client for the profile, session-status, block-status,
//     logout-all and OAuth callback endpoints
//   - cli: cobra command tree behind cmd/goguard
//   - flows: flow orchestrators for every Engine operation
//   - metrics: lock-free counters and latency histograms
//   - poller: single-flight periodic tasks with commit tickets
//   - rate: outbound request pacing for the backend client
//   - stores: Redis and in-memory profile caches
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGuard API.
//   - Be imported by any package outside the goGuard module.
package internal
