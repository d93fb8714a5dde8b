package flows

import (
	"context"

	"github.com/MrEthical07/goGuard/apierror"
	"github.com/MrEthical07/goGuard/internal/poller"
	"github.com/MrEthical07/goGuard/session"
)

// BlockStatusResult is the outcome of one block-status tick.
type BlockStatusResult struct {
	Status    session.BlockStatus
	Err       *apierror.Error
	Published bool
}

// BlockStatusDeps captures block-status monitor dependencies.
type BlockStatusDeps struct {
	Fetch func(ctx context.Context, identifier string) (session.BlockStatus, error)
}

// RunBlockStatusTick mirrors the backend's lockout state for identifier. publish runs
// under the commit, so results of cancelled ticks never reach consumers. No attempts
// are counted locally.
func RunBlockStatusTick(
	ctx context.Context,
	identifier string,
	commit poller.Commit,
	publish func(session.BlockStatus),
	deps BlockStatusDeps,
) BlockStatusResult {
	st, err := deps.Fetch(ctx, identifier)
	if err != nil {
		return BlockStatusResult{Err: apierror.Classify(err)}
	}
	st = st.Normalize()

	published := commit(func() { publish(st) })
	return BlockStatusResult{Status: st, Published: published}
}
