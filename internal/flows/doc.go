// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunVerify, StartGuard, RunRelay, RunLivenessTick, ...) accepts a
// typed dependency struct and returns a result without side-effects beyond those
// dependencies. The Engine maps results to metrics, audit events and log lines.
//
// # Architecture boundaries
//
// Flow functions coordinate the session store, the backend client and the profile
// cache. They do NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls (a guard [Activation] is per call).
//   - Import goGuard (to avoid import cycles).
//   - Perform I/O directly: all I/O is mediated through dependency functions.
package flows
