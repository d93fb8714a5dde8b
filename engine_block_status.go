package goGuard

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/poller"
)

// BlockMonitor republishes the backend's lockout state for one identifier. It never
// counts attempts itself.
type BlockMonitor struct {
	engine     *Engine
	identifier string
	task       *poller.Task
	onUpdate   func(BlockStatus)

	mu     sync.RWMutex
	latest BlockStatus
	seen   bool
}

// Identifier returns the monitored identifier.
func (m *BlockMonitor) Identifier() string { return m.identifier }

// Latest returns the most recent published status and whether one exists yet.
func (m *BlockMonitor) Latest() (BlockStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.seen
}

// Trigger polls now unless a fetch is outstanding.
func (m *BlockMonitor) Trigger() bool { return m.task.Trigger() }

// Stop cancels the monitor. Results of outstanding fetches are discarded.
func (m *BlockMonitor) Stop() {
	m.task.Stop()
	m.engine.mu.Lock()
	delete(m.engine.monitors, m)
	m.engine.mu.Unlock()
}

// Wait blocks until the loop and any outstanding fetch have returned.
func (m *BlockMonitor) Wait() { m.task.Wait() }

// WatchBlockStatus starts polling the block status of identifier every
// BlockStatus.Interval. onUpdate, when non-nil, receives each published status.
// It returns [ErrMonitorDisabled] when BlockStatus.Enforce is false.
func (e *Engine) WatchBlockStatus(ctx context.Context, identifier string, onUpdate func(BlockStatus)) (*BlockMonitor, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !e.config.BlockStatus.Enforce {
		return nil, ErrMonitorDisabled
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}

	m := &BlockMonitor{engine: e, identifier: identifier, onUpdate: onUpdate}
	task, err := poller.New(poller.Config{
		Interval:  e.config.BlockStatus.Interval,
		Immediate: e.config.BlockStatus.Immediate,
	}, m.tick)
	if err != nil {
		return nil, err
	}
	m.task = task

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineNotReady
	}
	e.monitors[m] = struct{}{}
	e.mu.Unlock()

	if err := task.Start(ctx); err != nil {
		m.Stop()
		return nil, err
	}
	return m, nil
}

func (m *BlockMonitor) tick(ctx context.Context, commit poller.Commit) {
	e := m.engine
	e.metricInc(MetricBlockStatusTick)

	var wasBlocked bool
	res := flows.RunBlockStatusTick(ctx, m.identifier, commit, func(st BlockStatus) {
		m.mu.Lock()
		wasBlocked = m.seen && m.latest.IsBlocked
		m.latest = st
		m.seen = true
		m.mu.Unlock()
	}, e.flow.BlockStatusDeps())

	if res.Err != nil {
		e.metricInc(MetricBlockStatusFailure)
		e.logger.Debug("block status fetch failed", "kind", res.Err.Kind.String())
		return
	}
	if !res.Published {
		return
	}

	if res.Status.IsBlocked && !wasBlocked {
		e.metricInc(MetricBlockStatusBlocked)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventBlockStatusBlocked,
			Email:     m.identifier,
			Success:   true,
			Metadata: map[string]string{
				"attempts":          strconv.Itoa(res.Status.Attempts),
				"remaining_minutes": strconv.Itoa(res.Status.RemainingMinutes),
			},
		})
	}
	if m.onUpdate != nil {
		m.onUpdate(res.Status)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
