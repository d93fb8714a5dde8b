// Package session holds the single authoritative authorization snapshot of a client
// and the compact binary encoding used to cache verified profiles.
//
// # State cell
//
// [Store] is a mutex-guarded cell. Every write bumps a sequence number; verifications
// take a [Ticket] before fetching and [Store.Commit] discards the result when the
// sequence moved in between, so a slow verification can never resurrect a session
// that was cleared while it was in flight. Subscribers are notified in write order.
//
// # Binary encoding
//
// Cached profiles use a versioned, length-prefixed format (see [EncodeProfile]). The
// encoder is append-only: new versions add fields but never reinterpret old ones.
//
// # Architecture boundaries
//
// This package owns the [Session] model and its [Store]. It does NOT talk to the
// backend, parse cookies, or decide access. Those belong to the Engine and its flows.
//
// # What this package must NOT do
//
//   - Import goGuard, hint, or internal packages (no upward imports).
//   - Perform application-level authorization decisions.
//   - Call subscribers while holding the state lock.
package session
