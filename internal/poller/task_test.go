package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsZeroInterval(t *testing.T) {
	if _, err := New(Config{}, func(context.Context, Commit) {}); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestTaskImmediateTick(t *testing.T) {
	done := make(chan struct{}, 1)
	task, err := New(Config{Interval: time.Hour, Immediate: true}, func(ctx context.Context, commit Commit) {
		commit(func() { done <- struct{}{} })
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer task.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("immediate tick did not run")
	}
}

func TestTaskNeverOverlapsTicks(t *testing.T) {
	release := make(chan struct{})
	var concurrent, maxConcurrent atomic.Int32
	var skips atomic.Int32

	task, err := New(Config{Interval: 5 * time.Millisecond, Immediate: true, OnSkip: func() { skips.Add(1) }}, func(ctx context.Context, commit Commit) {
		n := concurrent.Add(1)
		for {
			m := maxConcurrent.Load()
			if n <= m || maxConcurrent.CompareAndSwap(m, n) {
				break
			}
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		concurrent.Add(-1)
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for skips.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	task.Stop()
	task.Wait()

	if maxConcurrent.Load() != 1 {
		t.Fatalf("expected at most one outstanding tick, got %d", maxConcurrent.Load())
	}
	if skips.Load() < 3 {
		t.Fatalf("expected skipped firings while a tick was outstanding, got %d", skips.Load())
	}
	_, skipped := task.Stats()
	if skipped < 3 {
		t.Fatalf("expected stats to count skips, got %d", skipped)
	}
}

func TestTaskDiscardsResultsAfterStop(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	committed := make(chan bool, 1)

	task, err := New(Config{Interval: time.Hour, Immediate: true}, func(ctx context.Context, commit Commit) {
		close(started)
		<-proceed
		committed <- commit(func() { t.Error("apply must not run after stop") })
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	<-started
	task.Stop()
	close(proceed)
	task.Wait()

	if <-committed {
		t.Fatal("commit after stop should report false")
	}
}

func TestTaskTrigger(t *testing.T) {
	var runs atomic.Int32
	task, err := New(Config{Interval: time.Hour}, func(ctx context.Context, commit Commit) {
		runs.Add(1)
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if task.Trigger() {
		t.Fatal("trigger before start should be refused")
	}
	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !task.Trigger() {
		t.Fatal("trigger on idle task should start a tick")
	}
	task.Stop()
	task.Wait()

	if runs.Load() != 1 {
		t.Fatalf("expected one run, got %d", runs.Load())
	}
	if task.Trigger() {
		t.Fatal("trigger after stop should be refused")
	}
}

func TestTaskStopIsIdempotentAndStartOnce(t *testing.T) {
	task, err := New(Config{Interval: time.Hour}, func(context.Context, Commit) {})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := task.Start(context.Background()); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	task.Stop()
	task.Stop()
	task.Wait()
	if task.Running() {
		t.Fatal("task should not be running after stop")
	}
	if err := task.Start(context.Background()); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}
