// Package stores persists client-local copies of verified state: the last verified
// profile and the last liveness observation.
//
// # Design
//
// Copies are keyed by a client ID under a prefix and expire after a TTL. The Redis
// store writes the session package's binary profile encoding; the memory store keeps
// the same records in a map. Both are caches only: nothing read back from them is ever
// treated as server-verified.
//
// # Architecture boundaries
//
// This package owns persistence of cached copies. It does NOT fetch profiles, decide
// access, or clear the session store. Those belong to the flow functions in
// internal/flows.
//
// # What this package must NOT do
//
//   - Import goGuard or any sibling internal package.
//   - Upgrade a cached copy to a server-verified session.
package stores
