package prometheus

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/session"
)

type fakeSource struct {
	snapshot goGuard.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGuard.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{
				goGuard.MetricExternalLogout:     7,
			},
			Histograms: map[goGuard.MetricID][]uint64{
				goGuard.MetricVerifyLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if strings.Contains(out, "goguard_session_authenticated") {
		t.Fatal("session gauge requires a session source")
	}
	for _, want := range []string{
		"goguard_external_logout_total 7",
		"goguard_guard_denied_total 0",
		`goguard_verify_latency_seconds_bucket{le="0.005"} 1`,
		`goguard_verify_latency_seconds_bucket{le="+Inf"} 36`,
		"goguard_verify_latency_seconds_count 36",
		"goguard_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderFromEngine(t *testing.T) {
	engine, err := goGuard.New().
		WithBackendURL("http://127.0.0.1:1").
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	// No session and no hint settles without a backend call.
	if _, err := engine.Evaluate(context.Background(), goGuard.GuardRequest{}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	out := NewPrometheusExporter(engine).Render()
	if !strings.Contains(out, "goguard_guard_denied_total 1") {
		t.Fatalf("expected denied counter, got:\n%s", out)
	}
	if !strings.Contains(out, "goguard_session_authenticated 0") {
		t.Fatalf("expected session gauge, got:\n%s", out)
	}
}

type sessionFake struct {
	fakeSource
	session goGuard.Session
}

func (f sessionFake) Session() goGuard.Session { return f.session }

func TestRenderSessionGauges(t *testing.T) {
	src := sessionFake{
		fakeSource: fakeSource{snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{goGuard.MetricVerifySuccess: 1},
		}},
		session: session.Verified(session.UserProfile{ID: "u1"}, time.Now()),
	}

	out := NewPrometheusExporterFromSource(src).Render()
	for _, want := range []string{
		"# TYPE goguard_session_authenticated gauge",
		"goguard_session_authenticated 1",
		"goguard_session_server_verified 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}

	src.session = session.Hinted(nil)
	out = NewPrometheusExporterFromSource(src).Render()
	if !strings.Contains(out, "goguard_session_authenticated 1") || !strings.Contains(out, "goguard_session_server_verified 0") {
		t.Fatalf("hint session must not count as verified, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{goGuard.MetricGuardAllowed: 1},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{
				goGuard.MetricGuardAllowed:       1000,
				goGuard.MetricGuardDenied:        40,
				goGuard.MetricVerifySuccess:      800,
				goGuard.MetricVerifyFailure:      10,
				goGuard.MetricLivenessTick:       800,
				goGuard.MetricExternalLogout:     20,
				goGuard.MetricBlockStatusBlocked: 3,
			},
			Histograms: map[goGuard.MetricID][]uint64{
				goGuard.MetricVerifyLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
