package metrics

import (
	"sync/atomic"
	"testing"
	"time"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := New(Config{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricGuardAllowed)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := New(Config{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricGuardAllowed)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := New(Config{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricGuardAllowed)
		}
	})
}

func BenchmarkMetricsObserveVerifyLatencyParallel(b *testing.B) {
	m := New(Config{Enabled: true, EnableLatencyHistograms: true})
	d := 12 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricVerifyLatency, d)
		}
	})
}

type packedBenchmarkMetrics struct {
	counters [MetricIDCount]uint64
}

func (m *packedBenchmarkMetrics) Inc(id MetricID) {
	atomic.AddUint64(&m.counters[id], 1)
}

// Counters touched together on a typical request and poll cycle.
var mixedHotMetricIDs = [...]MetricID{
	MetricGuardAllowed,
	MetricGuardDenied,
	MetricGuardPending,
	MetricVerifySuccess,
	MetricLivenessTick,
	MetricBlockStatusTick,
	MetricRelayPassthrough,
	MetricLogoutAll,
}

func BenchmarkMetricsIncMixedParallelPadded(b *testing.B) {
	m := New(Config{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(mixedHotMetricIDs[idx])
			idx++
			if idx == len(mixedHotMetricIDs) {
				idx = 0
			}
		}
	})
}

func BenchmarkMetricsIncMixedParallelPacked(b *testing.B) {
	m := &packedBenchmarkMetrics{}
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(mixedHotMetricIDs[idx])
			idx++
			if idx == len(mixedHotMetricIDs) {
				idx = 0
			}
		}
	})
}
