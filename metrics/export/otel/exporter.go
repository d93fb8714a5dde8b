package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/internaldefs"
	"github.com/MrEthical07/goGuard/session"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDropped() uint64
}

// sessionSource adds the engine's own session gauges. *goGuard.Engine implements it.
type sessionSource interface {
	Session() goGuard.Session
}

// latencyInstruments mirrors one fixed-layout histogram as cumulative gauges.
type latencyInstruments struct {
	id      goGuard.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter observes an engine snapshot once per collection cycle.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[goGuard.MetricID]metric.Int64ObservableCounter
	latency      []latencyInstruments
	auditDropped metric.Int64ObservableCounter

	sessions      sessionSource
	authenticated metric.Int64ObservableGauge
	verified      metric.Int64ObservableGauge
}

// NewOTelExporter registers instruments for engine, including its session gauges.
func NewOTelExporter(meter metric.Meter, engine *goGuard.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments over source. Session gauges are
// registered only when source also reports a session.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[goGuard.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}
	var observables []metric.Observable

	counter := func(name, help string) (metric.Int64ObservableCounter, error) {
		ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", name, err)
		}
		observables = append(observables, ins)
		return ins, nil
	}
	gauge := func(name, help string) (metric.Int64ObservableGauge, error) {
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(help))
		if err != nil {
			return nil, fmt.Errorf("gauge %s: %w", name, err)
		}
		observables = append(observables, ins)
		return ins, nil
	}

	for _, def := range internaldefs.CounterDefs {
		ins, err := counter(def.Name, def.Help)
		if err != nil {
			return nil, err
		}
		e.counters[def.ID] = ins
	}

	for _, def := range internaldefs.HistogramDefs {
		l := latencyInstruments{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			ins, err := gauge(def.Name+"_bucket_le_"+suffix, "Cumulative bucket count of "+def.Name+".")
			if err != nil {
				return nil, err
			}
			l.buckets[i] = ins
		}
		ins, err := gauge(def.Name+"_count", "Sample count of "+def.Name+".")
		if err != nil {
			return nil, err
		}
		l.count = ins
		e.latency = append(e.latency, l)
	}

	var err error
	if e.auditDropped, err = counter(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp); err != nil {
		return nil, err
	}

	if sessions, ok := source.(sessionSource); ok {
		e.sessions = sessions
		if e.authenticated, err = gauge(internaldefs.SessionAuthenticatedName, internaldefs.SessionAuthenticatedHelp); err != nil {
			return nil, err
		}
		if e.verified, err = gauge(internaldefs.SessionVerifiedName, internaldefs.SessionVerifiedHelp); err != nil {
			return nil, err
		}
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snapshot.Counters[id]))
	}
	for _, l := range e.latency {
		buckets := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[l.id]))
		for i, ins := range l.buckets {
			o.ObserveInt64(ins, int64(buckets[i]))
		}
		o.ObserveInt64(l.count, int64(buckets[len(buckets)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	if e.sessions != nil {
		s := e.sessions.Session()
		o.ObserveInt64(e.authenticated, flag(s.Authenticated))
		o.ObserveInt64(e.verified, flag(s.Source == session.SourceServerVerified))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

func flag(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
