package flows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goGuard/apierror"
	"github.com/MrEthical07/goGuard/session"
)

// Outcome is the state of one guard activation.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeAllow
	OutcomeDeny
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "ALLOWED"
	case OutcomeDeny:
		return "DENIED"
	default:
		return "PENDING"
	}
}

// Reasons attached to settled decisions.
const (
	ReasonUnauthenticated      = "unauthenticated"
	ReasonSession              = "session"
	ReasonHint                 = "hint"
	ReasonVerified             = "verified"
	ReasonAdmin                = "admin"
	ReasonNotAdmin             = "not_admin"
	ReasonVerificationFailed   = "verification_failed"
	ReasonVerificationTimeout  = "verification_timeout"
	ReasonStaleResult          = "stale_result"
	ReasonCancelled            = "cancelled"
	ReasonServerVerifiedCached = "server_verified"
)

// Decision is the observable state of a guard activation.
type Decision struct {
	Outcome  Outcome
	Redirect string
	Reason   string
	Admin    bool
	// Fetched is true when a verification fetch was issued for this activation.
	Fetched  bool
	User     *session.UserProfile
	Err      *apierror.Error
}

// GuardRequest describes one protected-view activation.
type GuardRequest struct {
	RequireAdmin bool
	// HintPresent is true when a valid, unexpired liveness hint accompanies the request.
	HintPresent bool
	// Route is carried through to OnSettle for reporting only.
	Route string
}

// GuardDeps captures guard dependencies.
type GuardDeps struct {
	Store         StateStore
	Verify        func(context.Context) VerifyResult
	Now           func() time.Time
	StaleAfter    time.Duration
	SignInPath    string
	VerifyTimeout time.Duration
	// AdminEmails holds normalized (trimmed, lower-cased) addresses.
	AdminEmails   map[string]struct{}
	ReverifyAdmin bool
	OnSettle      func(GuardRequest, Decision)
}

// Activation is one in-progress guard evaluation. While a verification fetch is
// outstanding its decision is PENDING.
type Activation struct {
	req    GuardRequest
	deps   GuardDeps
	mu     sync.Mutex
	dec    Decision
	done   chan struct{}
	cancel context.CancelFunc
}

// StartGuard evaluates req against the current store snapshot. Decisions that need
// no network are settled before it returns; otherwise a verification runs in the
// background bounded by VerifyTimeout.
func StartGuard(ctx context.Context, req GuardRequest, deps GuardDeps) *Activation {
	a := &Activation{
		req:  req,
		deps: deps,
		dec:  Decision{Outcome: OutcomePending, Admin: req.RequireAdmin},
		done: make(chan struct{}),
	}

	now := nowFn(deps.Now)()
	snap, hintsSuspended := deps.Store.Snapshot()

	if !snap.Authenticated && !req.HintPresent {
		a.settle(a.deny(ReasonUnauthenticated, nil))
		return a
	}

	if !req.RequireAdmin {
		switch {
		case snap.Authenticated:
			a.settle(Decision{Outcome: OutcomeAllow, Reason: ReasonSession, User: snap.User})
			return a
		case !hintsSuspended:
			deps.Store.Adopt(session.Hinted(nil))
			a.settle(Decision{Outcome: OutcomeAllow, Reason: ReasonHint})
			return a
		}
		// A lingering hint after a clear must be corroborated first.
		a.verify(ctx)
		return a
	}

	if !deps.ReverifyAdmin && snap.EffectiveSource(now, deps.StaleAfter) == session.SourceServerVerified {
		a.settle(a.adminDecision(snap.User, false, ReasonServerVerifiedCached))
		return a
	}

	a.verify(ctx)
	return a
}

// Decision returns the current decision; PENDING until settled.
func (a *Activation) Decision() Decision {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dec
}

// Done is closed once the decision is settled.
func (a *Activation) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the decision settles or ctx ends. A ctx that ends first cancels
// the activation, which settles DENY.
func (a *Activation) Wait(ctx context.Context) Decision {
	select {
	case <-a.done:
	case <-ctx.Done():
		a.Cancel()
	}
	return a.Decision()
}

// Cancel abandons an outstanding verification. A pending activation settles DENY.
func (a *Activation) Cancel() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.settle(a.deny(ReasonCancelled, nil))
}

func (a *Activation) verify(parent context.Context) {
	timeout := a.deps.VerifyTimeout
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	a.mu.Lock()
	a.cancel = cancel
	a.dec.Fetched = true
	a.mu.Unlock()

	go func() {
		defer cancel()
		res := a.deps.Verify(ctx)

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
			a.settle(a.deny(ReasonVerificationTimeout, res.Err))
			return
		}

		switch res.Failure {
		case VerifyFailureNone:
			if a.req.RequireAdmin {
				a.settle(a.adminDecision(res.Session.User, true, ReasonAdmin))
				return
			}
			a.settle(Decision{Outcome: OutcomeAllow, Reason: ReasonVerified, Fetched: true, User: res.Session.User})
		case VerifyFailureStale:
			a.settle(a.deny(ReasonStaleResult, res.Err))
		case VerifyFailureCancelled:
			a.settle(a.deny(ReasonCancelled, nil))
		default:
			a.settle(a.deny(ReasonVerificationFailed, res.Err))
		}
	}()
}

func (a *Activation) adminDecision(user *session.UserProfile, fetched bool, allowReason string) Decision {
	if IsAuthorizedAdmin(user, a.deps.AdminEmails) {
		return Decision{Outcome: OutcomeAllow, Reason: allowReason, Admin: true, Fetched: fetched, User: user}
	}
	d := a.deny(ReasonNotAdmin, nil)
	d.Fetched = fetched
	d.User = user
	return d
}

func (a *Activation) deny(reason string, err *apierror.Error) Decision {
	return Decision{
		Outcome:  OutcomeDeny,
		Redirect: a.deps.SignInPath,
		Reason:   reason,
		Err:      err,
	}
}

// settle records d if the activation is still pending. The first settlement wins.
func (a *Activation) settle(d Decision) {
	a.mu.Lock()
	if a.dec.Outcome != OutcomePending {
		a.mu.Unlock()
		return
	}
	d.Admin = a.req.RequireAdmin
	if a.dec.Fetched {
		d.Fetched = true
	}
	a.dec = d
	close(a.done)
	a.mu.Unlock()

	if a.deps.OnSettle != nil {
		a.deps.OnSettle(a.req, d)
	}
}

// IsAuthorizedAdmin requires role ADMIN and an allow-listed email.
func IsAuthorizedAdmin(user *session.UserProfile, allow map[string]struct{}) bool {
	if user == nil || user.Role != session.RoleAdmin {
		return false
	}
	_, ok := allow[NormalizeEmail(user.Email)]
	return ok
}

// NormalizeEmail trims and lower-cases an address for allow-list comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminAllowList builds the normalized allow-list set.
func AdminAllowList(emails []string) map[string]struct{} {
	out := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if n := NormalizeEmail(e); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}
