package flows

import (
	"context"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Verify.Store != nil && s.deps.Verify.FetchProfile != nil
}

func (s Service) Verify(ctx context.Context) VerifyResult {
	return RunVerify(ctx, s.deps.Verify)
}

func (s Service) Guard(ctx context.Context, req GuardRequest) *Activation {
	deps := s.deps.Guard
	if deps.Verify == nil {
		deps.Verify = s.Verify
	}
	return StartGuard(ctx, req, deps)
}

// VerifyInto runs a verification that commits into store instead of the engine store.
// Nothing is written to the profile cache.
func (s Service) VerifyInto(ctx context.Context, store StateStore) VerifyResult {
	deps := s.deps.Verify
	deps.Store = store
	deps.SaveProfile = nil
	return RunVerify(ctx, deps)
}

// GuardInto evaluates req against store; verify must write into the same store.
// A nil onSettle keeps the service's hook.
func (s Service) GuardInto(ctx context.Context, req GuardRequest, store StateStore, verify func(context.Context) VerifyResult, onSettle func(GuardRequest, Decision)) *Activation {
	deps := s.deps.Guard
	deps.Store = store
	deps.Verify = verify
	if onSettle != nil {
		deps.OnSettle = onSettle
	}
	return StartGuard(ctx, req, deps)
}

func (s Service) Relay(ctx context.Context, rawQuery, cookieHeader string) RelayResult {
	return RunRelay(ctx, rawQuery, cookieHeader, s.deps.Relay)
}

func (s Service) LivenessTick(ctx context.Context, commit func(func()) bool) LivenessResult {
	return RunLivenessTick(ctx, commit, s.deps.Liveness)
}

func (s Service) LogoutAll(ctx context.Context) LogoutResult {
	return RunLogoutAll(ctx, s.deps.Logout)
}

// LogoutAllInto ends every remote session and clears store only. The profile cache
// is left alone.
func (s Service) LogoutAllInto(ctx context.Context, store StateStore) LogoutResult {
	deps := s.deps.Logout
	deps.Store = store
	deps.Purge = nil
	return RunLogoutAll(ctx, deps)
}

func (s Service) BlockStatusDeps() BlockStatusDeps {
	return s.deps.BlockStatus
}
