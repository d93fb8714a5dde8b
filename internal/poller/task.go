package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrAlreadyStarted = errors.New("poller already started")
	ErrStopped        = errors.New("poller stopped")
	ErrInvalidConfig  = errors.New("poller interval must be > 0")
)

// Commit applies a tick result if the tick's generation is still current. apply runs
// under the task lock and must not call back into the Task.
type Commit func(apply func()) bool

// TickFunc is one polling step. ctx is cancelled when the task stops.
type TickFunc func(ctx context.Context, commit Commit)

// Config tunes a [Task].
type Config struct {
	Interval  time.Duration
	Immediate bool

	// OnSkip is called when a firing is dropped because a tick is outstanding.
	OnSkip func()
}

// Task is a periodic, non-overlapping poll loop.
type Task struct {
	cfg Config
	fn  TickFunc

	mu      sync.Mutex
	gen     uint64
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc

	inFlight atomic.Bool
	ticks    atomic.Uint64
	skipped  atomic.Uint64
	wg       sync.WaitGroup
}

// New validates cfg and returns a stopped-but-not-started task.
func New(cfg Config, fn TickFunc) (*Task, error) {
	if cfg.Interval <= 0 {
		return nil, ErrInvalidConfig
	}
	if fn == nil {
		return nil, errors.New("poller tick function required")
	}
	return &Task{cfg: cfg, fn: fn}, nil
}

// Start launches the loop. It can be called once.
func (t *Task) Start(parent context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return ErrStopped
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	t.ctx, t.cancel = context.WithCancel(parent)

	t.wg.Add(1)
	go t.loop(t.ctx)
	return nil
}

// Stop cancels the loop and any outstanding tick. Results committed after Stop are
// discarded. Stop is idempotent and does not wait; use [Task.Wait] for that.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	t.gen++
	if t.cancel != nil {
		t.cancel()
	}
}

// Wait blocks until the loop and every tick goroutine have returned.
func (t *Task) Wait() {
	t.wg.Wait()
}

// Trigger fires a tick now unless one is outstanding or the task is not running. It
// reports whether a tick was started.
func (t *Task) Trigger() bool {
	t.mu.Lock()
	ctx := t.ctx
	running := t.started && !t.stopped
	t.mu.Unlock()

	if !running {
		return false
	}
	return t.fire(ctx)
}

// Running reports whether the task was started and not yet stopped.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started && !t.stopped
}

// Stats returns how many ticks ran and how many firings were skipped.
func (t *Task) Stats() (ticks, skipped uint64) {
	return t.ticks.Load(), t.skipped.Load()
}

func (t *Task) loop(ctx context.Context) {
	defer t.wg.Done()

	if t.cfg.Immediate {
		t.fire(ctx)
	}

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fire(ctx)
		}
	}
}

func (t *Task) fire(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !t.inFlight.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		if t.cfg.OnSkip != nil {
			t.cfg.OnSkip()
		}
		return false
	}

	t.mu.Lock()
	gen := t.gen
	if t.stopped {
		t.mu.Unlock()
		t.inFlight.Store(false)
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()

	t.ticks.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.inFlight.Store(false)
		t.fn(ctx, func(apply func()) bool {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.stopped || t.gen != gen {
				return false
			}
			apply()
			return true
		})
	}()
	return true
}
