package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/apierror"
	"github.com/MrEthical07/goGuard/session"
)

// VerifyFailureKind classifies verification failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	// VerifyFailureFetch means the profile fetch failed; the store was cleared if still current.
	VerifyFailureFetch
	// VerifyFailureStale means the fetch settled after a newer write; its result was discarded.
	VerifyFailureStale
	// VerifyFailureCancelled means the caller abandoned the verification; nothing was written.
	VerifyFailureCancelled
)

// VerifyResult carries the committed session or the failure metadata.
type VerifyResult struct {
	Failure VerifyFailureKind
	Err     *apierror.Error
	Session session.Session
	// Cleared is true when a fetch failure reset the store.
	Cleared bool
}

// VerifyDeps captures authoritative verification dependencies.
type VerifyDeps struct {
	Store        StateStore
	FetchProfile func(context.Context) (session.UserProfile, error)
	SaveProfile  func(context.Context, session.CachedProfile) error
	Now          func() time.Time
	Warn         func(string, ...any)
}

// RunVerify fetches the profile and commits it if no newer operation was initiated
// and no write happened meanwhile. Any fetch failure resets the store to empty,
// subject to the same ordering rule. A cancelled verification writes nothing.
func RunVerify(ctx context.Context, deps VerifyDeps) VerifyResult {
	ticket := deps.Store.Begin()

	profile, err := deps.FetchProfile(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		deps.Store.Release(ticket)
		res := VerifyResult{Failure: VerifyFailureCancelled}
		if err != nil {
			res.Err = apierror.Classify(err)
		}
		return res
	}
	if err != nil {
		classified := apierror.Classify(err)
		if !deps.Store.CommitClear(ticket) {
			return VerifyResult{Failure: VerifyFailureStale, Err: classified}
		}
		return VerifyResult{Failure: VerifyFailureFetch, Err: classified, Cleared: true}
	}

	now := nowFn(deps.Now)()
	next := session.Verified(profile, now)
	if !deps.Store.Commit(ticket, next) {
		return VerifyResult{Failure: VerifyFailureStale}
	}

	if deps.SaveProfile != nil {
		if err := deps.SaveProfile(ctx, session.CachedProfile{Profile: profile, VerifiedAt: now}); err != nil && deps.Warn != nil {
			deps.Warn("goguard: profile cache save failed", "error", err)
		}
	}

	return VerifyResult{Session: next}
}
