// Package poller runs cancellable periodic tasks whose results are committed only if
// the task is still current.
//
// # Semantics
//
// A [Task] fires every Interval (optionally once immediately on start). Each firing
// runs the tick function in its own goroutine; a firing that arrives while the
// previous tick is still outstanding is skipped, so there are never two overlapping
// ticks. Ticks publish results through a [Commit] that runs under the task lock and
// refuses once [Task.Stop] has bumped the generation, so results of cancelled ticks
// are discarded.
//
// # What this package must NOT do
//
//   - Know what a tick fetches or what it writes.
//   - Retry failed ticks.
package poller
