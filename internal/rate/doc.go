// Package rate throttles outbound backend calls with a token bucket.
//
// # Semantics
//
// A [Limiter] admits RequestsPerSecond calls with bursts of up to Burst. Callers wait for
// a token unless the wait would outlive their context deadline, in which case
// [ErrRateLimited] is returned immediately. A zero rate disables throttling.
//
// # What this package must NOT do
//
//   - Classify backend responses (that is apierror's job).
//   - Be imported outside the goGuard module.
package rate
