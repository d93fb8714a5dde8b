package internaldefs

import (
	"strings"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
)

func TestCounterDefsCoverEveryCounter(t *testing.T) {
	seenID := map[goGuard.MetricID]bool{}
	seenName := map[string]bool{}
	for _, def := range CounterDefs {
		if seenID[def.ID] || seenName[def.Name] {
			t.Fatalf("duplicate definition %+v", def)
		}
		seenID[def.ID] = true
		seenName[def.Name] = true
		if !strings.HasPrefix(def.Name, "goguard_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("unexpected counter name %q", def.Name)
		}
	}

	for id := goGuard.MetricID(0); id < goGuard.MetricVerifyLatency; id++ {
		if !seenID[id] {
			t.Fatalf("metric %d has no counter definition", id)
		}
	}
	if seenID[goGuard.MetricVerifyLatency] {
		t.Fatal("latency histogram must not be exported as a counter")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(HistogramBounds) != len(HistogramBoundSuffix) || len(HistogramBounds) != 8 {
		t.Fatal("bucket layout mismatch")
	}
}
