package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher must report zero")
	}
}

func TestDispatcherDeliversAndStampsTimestamp(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: "logout_all", Success: true})

	select {
	case ev := <-sink.Events():
		if ev.EventType != "logout_all" || ev.Timestamp.IsZero() {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestDispatcherDropIfFullCountsDrops(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 20; i++ {
		d.Emit(context.Background(), Event{EventType: "guard_denied"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and buffer of one")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "relay_redirect"})
	}
	d.Close()

	if got := d.Delivered(); got != 5 {
		t.Fatalf("expected 5 delivered, got %d", got)
	}
	d.Emit(context.Background(), Event{EventType: "after_close"})
	if got := d.Delivered(); got != 5 {
		t.Fatalf("emit after close must be ignored, got %d", got)
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONWriterSink(&buf)
	s.Emit(context.Background(), Event{EventType: "external_logout", UserID: "u1"})
	s.Emit(context.Background(), Event{EventType: "logout_all"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventType != "external_logout" || ev.UserID != "u1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestLoggerSinkWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	NewLoggerSink(logger, slog.LevelInfo).Emit(context.Background(), Event{
		EventType: "guard_denied",
		Route:     "/admin",
		Error:     "not_admin",
	})

	out := buf.String()
	for _, want := range []string{`"event_type":"guard_denied"`, `"route":"/admin"`, `"error":"not_admin"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}
