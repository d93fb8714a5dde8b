package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/internaldefs"
	"github.com/MrEthical07/goGuard/session"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDropped() uint64
}

// sessionSource adds the engine's own session gauges. *goGuard.Engine implements it.
type sessionSource interface {
	Session() goGuard.Session
}

// PrometheusExporter serves guard, verification, liveness, relay and logout counters
// plus the verify latency histogram. Every scrape reads a fresh snapshot.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from engine, including its session gauges.
func NewPrometheusExporter(engine *goGuard.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource reads from source. Session gauges are emitted
// only when source also reports a session.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves [PrometheusExporter.Render] for a /metrics route.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the text exposition of the current snapshot. It is empty when the
// engine was built with metrics disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	w := exposition{}
	w.b.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		w.family(def.Name, def.Help, "counter")
		w.sample(def.Name, "", snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		w.family(def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			w.sample(def.Name+"_bucket", `le="`+le+`"`, buckets[i])
		}
		w.sample(def.Name+"_count", "", buckets[len(buckets)-1])
		// Snapshots carry bucket counts only.
		w.sample(def.Name+"_sum", "", 0)
	}

	w.family(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	w.sample(internaldefs.AuditDroppedName, "", dropped)

	if src, ok := p.source.(sessionSource); ok {
		s := src.Session()
		w.family(internaldefs.SessionAuthenticatedName, internaldefs.SessionAuthenticatedHelp, "gauge")
		w.sample(internaldefs.SessionAuthenticatedName, "", flag(s.Authenticated))
		w.family(internaldefs.SessionVerifiedName, internaldefs.SessionVerifiedHelp, "gauge")
		w.sample(internaldefs.SessionVerifiedName, "", flag(s.Source == session.SourceServerVerified))
	}

	return w.b.String()
}

type exposition struct {
	b strings.Builder
}

func (w *exposition) family(name, help, kind string) {
	w.b.WriteString("# HELP ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(escapeHelp(help))
	w.b.WriteString("\n# TYPE ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(kind)
	w.b.WriteByte('\n')
}

func (w *exposition) sample(name, labels string, value uint64) {
	w.b.WriteString(name)
	if labels != "" {
		w.b.WriteByte('{')
		w.b.WriteString(labels)
		w.b.WriteByte('}')
	}
	w.b.WriteByte(' ')
	w.b.WriteString(strconv.FormatUint(value, 10))
	w.b.WriteByte('\n')
}

func flag(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	return strings.ReplaceAll(help, "\n", "\\n")
}
