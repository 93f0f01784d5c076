package internaldefs

import (
	"testing"

	"github.com/MrEthical07/sessauth"
)

func TestEveryCounterHasADefinition(t *testing.T) {
	snap := sessauth.NewMetrics(sessauth.MetricsConfig{Enabled: true}).Snapshot()

	seen := map[sessauth.MetricID]bool{}
	names := map[string]bool{}
	for _, def := range CounterDefs {
		if seen[def.ID] || names[def.Name] {
			t.Fatalf("duplicate definition %+v", def)
		}
		seen[def.ID] = true
		names[def.Name] = true
	}

	for id := range snap.Counters {
		if !seen[id] {
			t.Fatalf("counter %d has no exporter definition", id)
		}
	}
}

func TestBucketNames(t *testing.T) {
	want := []string{"0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "1", "inf"}
	if len(HistogramBoundSuffix) != len(want) {
		t.Fatalf("got %v", HistogramBoundSuffix)
	}
	for i := range want {
		if HistogramBoundSuffix[i] != want[i] {
			t.Fatalf("got %v", HistogramBoundSuffix)
		}
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [BucketCount]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}
