package goGuard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goGuard/apierror"
	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/backend"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/stores"
	"github.com/MrEthical07/goGuard/session"
)

// Engine coordinates the session state cell with the authentication backend.
//
// Engine instances are built once through [Builder.Build] and are safe for
// concurrent use. Call [Engine.Close] to stop background tasks.
type Engine struct {
	config     Config
	store      *session.Store
	client     *backend.Client
	cache      stores.ProfileCache
	flow       flows.Service
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
	adminAllow map[string]struct{}

	mu       sync.Mutex
	closed   bool
	liveness *LivenessPoller
	monitors map[*BlockMonitor]struct{}
}

// Close stops the liveness poller and every block-status monitor, then drains the
// audit dispatcher. It is idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	liveness := e.liveness
	e.liveness = nil
	monitors := make([]*BlockMonitor, 0, len(e.monitors))
	for m := range e.monitors {
		monitors = append(monitors, m)
	}
	e.monitors = map[*BlockMonitor]struct{}{}
	e.mu.Unlock()

	if liveness != nil {
		liveness.task.Stop()
		liveness.task.Wait()
	}
	for _, m := range monitors {
		m.task.Stop()
		m.task.Wait()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) ready() error {
	if e == nil || !e.flow.Initialized() {
		return ErrEngineNotReady
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineNotReady
	}
	return nil
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Store exposes the engine's state cell.
func (e *Engine) Store() *session.Store {
	return e.store
}

// Session returns the current session snapshot.
func (e *Engine) Session() Session {
	return e.store.Read()
}

// Subscribe registers fn for every session write, in write order. The returned
// function unsubscribes.
func (e *Engine) Subscribe(fn func(Session)) func() {
	return e.store.Subscribe(fn)
}

// AuditDropped reports audit events dropped due to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of every counter.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Verify fetches the authoritative profile and commits it unless a newer operation
// was started meanwhile. A fetch failure resets the session; cancelling ctx leaves
// it untouched. The returned error is an *apierror.Error, wraps [ErrStaleResult]
// when the result was discarded, or is [context.Canceled].
func (e *Engine) Verify(ctx context.Context) (Session, error) {
	if err := e.ready(); err != nil {
		return Session{}, err
	}
	res := e.runVerify(ctx)
	switch res.Failure {
	case flows.VerifyFailureNone:
		return res.Session, nil
	case flows.VerifyFailureStale:
		if res.Err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrStaleResult, res.Err)
		}
		return Session{}, ErrStaleResult
	case flows.VerifyFailureCancelled:
		if res.Err != nil {
			return Session{}, res.Err
		}
		return Session{}, context.Canceled
	default:
		return Session{}, res.Err
	}
}

func (e *Engine) runVerify(ctx context.Context) flows.VerifyResult {
	return e.observeVerify(ctx, e.flow.Verify)
}

// observeVerify runs one verification and records its latency, counters and audit
// events.
func (e *Engine) observeVerify(ctx context.Context, run func(context.Context) flows.VerifyResult) flows.VerifyResult {
	start := e.now()
	res := run(ctx)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyLatency, e.now().Sub(start))
	}

	switch res.Failure {
	case flows.VerifyFailureNone:
		e.metricInc(MetricVerifySuccess)
		e.logger.Debug("session verified", "user_id", res.Session.User.ID)
	case flows.VerifyFailureStale:
		e.metricInc(MetricStaleResultDiscarded)
		e.emitAudit(ctx, AuditEvent{EventType: auditEventStaleResult})
		e.logger.Debug("verification result discarded")
	case flows.VerifyFailureCancelled:
		e.logger.Debug("verification cancelled")
	default:
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, AuditEvent{EventType: auditEventVerificationFailed, Error: res.Err.Kind.String()})
		e.logger.Info("verification failed", "kind", res.Err.Kind.String(), "status", res.Err.HTTPStatus, "cleared", res.Cleared)
	}
	return res
}

// Restore loads the cached profile copy into an empty store as an unverified hint
// session. It never counts as server verification, so admin routes still fetch.
// It reports whether a session was adopted.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if e.cache == nil {
		return false, ErrCacheDisabled
	}

	cached, err := e.cache.LoadProfile(ctx)
	if errors.Is(err, stores.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		e.metricInc(MetricCacheFailure)
		return false, err
	}

	profile := cached.Profile
	adopted := e.store.Adopt(session.Hinted(&profile))
	if adopted {
		e.logger.Debug("session restored from cache", "user_id", profile.ID)
	}
	return adopted, nil
}

// SessionStatus performs one uncommitted session-status fetch.
func (e *Engine) SessionStatus(ctx context.Context) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	st, err := e.client.SessionStatus(ctx)
	if err != nil {
		return 0, apierror.Classify(err)
	}
	return st.ActiveSessions, nil
}

// BlockStatus performs one block-status fetch for identifier without starting a
// monitor.
func (e *Engine) BlockStatus(ctx context.Context, identifier string) (BlockStatus, error) {
	if err := e.ready(); err != nil {
		return BlockStatus{}, err
	}
	if isBlank(identifier) {
		return BlockStatus{}, ErrEmptyIdentifier
	}
	st, err := e.client.BlockStatus(ctx, identifier)
	if err != nil {
		return BlockStatus{}, apierror.Classify(err)
	}
	return st, nil
}

func (e *Engine) purgeCache(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.Purge(ctx); err != nil {
		e.metricInc(MetricCacheFailure)
		e.logger.Warn("profile cache purge failed", "error", err)
		return err
	}
	return nil
}
