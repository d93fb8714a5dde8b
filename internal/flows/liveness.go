package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/apierror"
	"github.com/MrEthical07/goGuard/internal/backend"
	"github.com/MrEthical07/goGuard/internal/poller"
	"github.com/MrEthical07/goGuard/internal/stores"
)

// LivenessOutcome classifies one liveness tick.
type LivenessOutcome int

const (
	// LivenessIdle means the store was unauthenticated; no fetch was issued.
	LivenessIdle LivenessOutcome = iota
	// LivenessAlive means the backend still reports at least one session.
	LivenessAlive
	// LivenessFetchFailed is a silent no-op; the store is left untouched.
	LivenessFetchFailed
	// LivenessExternalLogout means the store was cleared in this tick.
	LivenessExternalLogout
	// LivenessDiscarded means the result arrived after cancellation or a newer write.
	LivenessDiscarded
)

func (o LivenessOutcome) String() string {
	switch o {
	case LivenessIdle:
		return "idle"
	case LivenessAlive:
		return "alive"
	case LivenessFetchFailed:
		return "fetch_failed"
	case LivenessExternalLogout:
		return "external_logout"
	default:
		return "discarded"
	}
}

// LivenessResult is the outcome of one tick.
type LivenessResult struct {
	Outcome        LivenessOutcome
	ActiveSessions int
	Err            *apierror.Error
	PurgeErr       error
}

// LivenessDeps captures liveness poller dependencies.
type LivenessDeps struct {
	Store         StateStore
	SessionStatus func(context.Context) (backend.SessionStatus, error)
	SaveLiveness  func(context.Context, stores.Liveness) error
	Purge         func(context.Context) error
	Now           func() time.Time
	Warn          func(string, ...any)
}

// RunLivenessTick performs one authoritative status fetch. Zero active sessions
// clears the store through commit, so a cancelled tick or a newer operation wins.
func RunLivenessTick(ctx context.Context, commit poller.Commit, deps LivenessDeps) LivenessResult {
	if !deps.Store.Read().Authenticated {
		return LivenessResult{Outcome: LivenessIdle}
	}
	ticket := deps.Store.Begin()

	status, err := deps.SessionStatus(ctx)
	if err != nil {
		deps.Store.Release(ticket)
		return LivenessResult{Outcome: LivenessFetchFailed, Err: apierror.Classify(err)}
	}

	if status.ActiveSessions > 0 {
		deps.Store.Release(ticket)
		if deps.SaveLiveness != nil {
			l := stores.Liveness{ActiveSessions: status.ActiveSessions, ObservedAt: nowFn(deps.Now)()}
			if err := deps.SaveLiveness(ctx, l); err != nil && deps.Warn != nil {
				deps.Warn("goguard: liveness cache save failed", "error", err)
			}
		}
		return LivenessResult{Outcome: LivenessAlive, ActiveSessions: status.ActiveSessions}
	}

	cleared := false
	if !commit(func() { cleared = deps.Store.CommitClear(ticket) }) || !cleared {
		deps.Store.Release(ticket)
		return LivenessResult{Outcome: LivenessDiscarded}
	}

	return LivenessResult{
		Outcome:  LivenessExternalLogout,
		PurgeErr: purge(context.WithoutCancel(ctx), deps.Purge),
	}
}
