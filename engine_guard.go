package goGuard

import (
	"context"

	"github.com/MrEthical07/goGuard/hint"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/session"
)

// GuardRequest describes one protected-view activation.
type GuardRequest struct {
	// RequireAdmin marks an elevated route. Only a fresh server verification of an
	// allow-listed ADMIN profile admits it.
	RequireAdmin bool
	// Hint is the script-readable liveness flag carried by the request, if any.
	Hint hint.Hint
	// Route is reported on audit events.
	Route string
}

// GuardActivation is one in-progress guard evaluation.
type GuardActivation struct {
	a *flows.Activation
}

// Decision returns the current decision; PENDING while a verification is
// outstanding.
func (g *GuardActivation) Decision() GuardDecision {
	return decisionFromFlow(g.a.Decision())
}

// Done is closed once the decision has settled.
func (g *GuardActivation) Done() <-chan struct{} {
	return g.a.Done()
}

// Wait blocks until the decision settles or ctx ends; an abandoned activation
// settles DENY.
func (g *GuardActivation) Wait(ctx context.Context) GuardDecision {
	return decisionFromFlow(g.a.Wait(ctx))
}

// Cancel abandons the activation. A pending decision settles DENY.
func (g *GuardActivation) Cancel() {
	g.a.Cancel()
}

// Guard starts evaluating req against the current session. Decisions that need no
// network call have settled when Guard returns. Otherwise the activation is PENDING
// until the verification settles or Guard.VerifyTimeout elapses. ctx must carry the
// forwarded cookies (see [WithForwardedCookies]) and bounds the verification.
func (e *Engine) Guard(ctx context.Context, req GuardRequest) (*GuardActivation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	a := e.flow.Guard(ctx, flows.GuardRequest{
		RequireAdmin: req.RequireAdmin,
		HintPresent:  req.Hint.Valid(e.now()),
		Route:        req.Route,
	})
	if a.Decision().Outcome == flows.OutcomePending {
		e.metricInc(MetricGuardPending)
	}
	return &GuardActivation{a: a}, nil
}

// Evaluate runs [Engine.Guard] and waits for the settled decision.
func (e *Engine) Evaluate(ctx context.Context, req GuardRequest) (GuardDecision, error) {
	g, err := e.Guard(ctx, req)
	if err != nil {
		return GuardDecision{}, err
	}
	return g.Wait(ctx), nil
}

// EvaluateRequest decides req for one inbound HTTP request. The decision is taken
// against a fresh session cell that starts empty: the engine's own store is neither
// read nor written and the profile cache is untouched. Non-admin routes therefore
// rest on req.Hint alone and admin routes always verify with the cookies ctx
// carries. Use it when one engine serves many visitors.
func (e *Engine) EvaluateRequest(ctx context.Context, req GuardRequest) (GuardDecision, error) {
	if err := e.ready(); err != nil {
		return GuardDecision{}, err
	}

	ctx = withRequestScope(ctx)
	store := session.NewStore()
	a := e.flow.GuardInto(ctx, flows.GuardRequest{
		RequireAdmin: req.RequireAdmin,
		HintPresent:  req.Hint.Valid(e.now()),
		Route:        req.Route,
	}, store, func(ctx context.Context) flows.VerifyResult {
		return e.observeVerify(ctx, func(ctx context.Context) flows.VerifyResult {
			return e.flow.VerifyInto(ctx, store)
		})
	}, func(req flows.GuardRequest, d flows.Decision) {
		e.recordGuardSettle(ctx, req, d)
	})
	if a.Decision().Outcome == flows.OutcomePending {
		e.metricInc(MetricGuardPending)
	}
	return decisionFromFlow(a.Wait(ctx)), nil
}

// IsAdmin reports whether profile would pass the admin check: role ADMIN and an
// allow-listed email.
func (e *Engine) IsAdmin(profile UserProfile) bool {
	return flows.IsAuthorizedAdmin(&profile, e.adminAllow)
}

func (e *Engine) onGuardSettle(req flows.GuardRequest, d flows.Decision) {
	e.recordGuardSettle(context.Background(), req, d)
}

func (e *Engine) recordGuardSettle(ctx context.Context, req flows.GuardRequest, d flows.Decision) {
	if d.Outcome == flows.OutcomeAllow {
		e.metricInc(MetricGuardAllowed)
		return
	}

	e.metricInc(MetricGuardDenied)
	switch d.Reason {
	case flows.ReasonNotAdmin:
		e.metricInc(MetricAdminDenied)
	case flows.ReasonVerificationTimeout:
		e.metricInc(MetricVerifyTimeout)
	}

	userID := ""
	if d.User != nil {
		userID = d.User.ID
	}
	e.emitGuardDenied(ctx, req.Route, d.Reason, req.RequireAdmin, userID)
	e.logger.Debug("guard denied", "route", req.Route, "reason", d.Reason, "admin", req.RequireAdmin)
}
