package goGuard

import "errors"

var (
	// ErrEngineNotReady is returned by methods called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("goguard engine not ready")
	// ErrBackendRequired is returned by Build when no backend base URL is configured.
	ErrBackendRequired = errors.New("backend base url required")
	// ErrStaleResult marks a verification whose result was discarded because a newer
	// operation was started or a write landed first.
	ErrStaleResult = errors.New("verification result discarded as stale")
	// ErrEmptyIdentifier is returned by WatchBlockStatus for a blank identifier.
	ErrEmptyIdentifier = errors.New("block status identifier required")
	// ErrMonitorDisabled is returned by WatchBlockStatus when BlockStatus.Enforce is false.
	ErrMonitorDisabled = errors.New("block status monitor disabled")
	// ErrLivenessDisabled is returned by StartLivenessPoller when Liveness.Enabled is false.
	ErrLivenessDisabled = errors.New("liveness poller disabled")
	// ErrPollerRunning is returned when a liveness poller is already active.
	ErrPollerRunning = errors.New("liveness poller already running")
	// ErrCacheDisabled is returned by Restore when no profile cache is configured.
	ErrCacheDisabled = errors.New("profile cache disabled")
)
