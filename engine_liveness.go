package goGuard

import (
	"context"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/poller"
)

// LivenessPoller periodically asks the backend whether the current session is
// still active on any device.
type LivenessPoller struct {
	engine *Engine
	task   *poller.Task
}

// Stop cancels the poller immediately. Results of outstanding ticks are discarded.
func (p *LivenessPoller) Stop() {
	p.task.Stop()
	p.engine.mu.Lock()
	if p.engine.liveness == p {
		p.engine.liveness = nil
	}
	p.engine.mu.Unlock()
}

// Wait blocks until the loop and any outstanding tick have returned.
func (p *LivenessPoller) Wait() { p.task.Wait() }

// Trigger runs a tick now unless one is outstanding, e.g. when a window regains focus.
func (p *LivenessPoller) Trigger() bool { return p.task.Trigger() }

// Running reports whether the poller has not been stopped.
func (p *LivenessPoller) Running() bool { return p.task.Running() }

// Stats reports ticks run and firings skipped because a tick was outstanding.
func (p *LivenessPoller) Stats() (ticks, skipped uint64) { return p.task.Stats() }

// StartLivenessPoller starts the external-logout poller. Each tick runs only while
// the session is authenticated; a backend report of zero active sessions clears the
// session, purges cached copies and calls onLogout with the sign-in target in the
// same tick. Fetch failures are counted and otherwise ignored. ctx must carry the
// forwarded cookies and bounds the poller's lifetime.
func (e *Engine) StartLivenessPoller(ctx context.Context, onLogout func(redirect string, res LivenessResult)) (*LivenessPoller, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !e.config.Liveness.Enabled {
		return nil, ErrLivenessDisabled
	}

	p := &LivenessPoller{engine: e}
	task, err := poller.New(poller.Config{
		Interval: e.config.Liveness.Interval,
		OnSkip:   func() { e.metricInc(MetricLivenessSkipped) },
	}, func(ctx context.Context, commit poller.Commit) {
		e.livenessTick(ctx, commit, onLogout)
	})
	if err != nil {
		return nil, err
	}
	p.task = task

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineNotReady
	}
	if e.liveness != nil && e.liveness.Running() {
		e.mu.Unlock()
		return nil, ErrPollerRunning
	}
	e.liveness = p
	e.mu.Unlock()

	if err := task.Start(ctx); err != nil {
		return nil, err
	}
	e.logger.Debug("liveness poller started", "interval", e.config.Liveness.Interval)
	return p, nil
}

func (e *Engine) livenessTick(ctx context.Context, commit poller.Commit, onLogout func(string, LivenessResult)) {
	res := e.flow.LivenessTick(ctx, commit)

	switch res.Outcome {
	case flows.LivenessIdle:
		return
	case flows.LivenessAlive:
		e.metricInc(MetricLivenessTick)
	case flows.LivenessFetchFailed:
		e.metricInc(MetricLivenessTick)
		e.metricInc(MetricLivenessFetchFailed)
		e.logger.Debug("liveness fetch failed", "kind", res.Err.Kind.String())
	case flows.LivenessDiscarded:
		e.metricInc(MetricLivenessTick)
		e.logger.Debug("liveness result discarded")
	case flows.LivenessExternalLogout:
		e.metricInc(MetricLivenessTick)
		e.metricInc(MetricExternalLogout)
		e.emitAudit(ctx, AuditEvent{EventType: auditEventExternalLogout, Success: true})
		e.logger.Info("session ended on another device")
		if onLogout != nil {
			onLogout(e.config.Guard.SignInPath, res)
		}
	}
}
