package stats

import (
	"math"
	"testing"
)

func TestCutPointMatchesReference(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	want := []float64{1.5, 3, 4.5}
	for i, w := range want {
		if got := cutPoint(sorted, 4, i+1); math.Abs(got-w) > 1e-9 {
			t.Fatalf("cut %d = %v, want %v", i+1, got, w)
		}
	}
}

// Below the sample-count floor the exclusive method extrapolates past the data,
// which is why Summarize falls back to max for small samples.
func TestCutPointExtrapolatesForTinySamples(t *testing.T) {
	sorted := []float64{10, 20}
	if got := cutPoint(sorted, 100, 99); math.Abs(got-29.7) > 1e-9 {
		t.Fatalf("upper cut = %v, want 29.7", got)
	}
	if got := cutPoint(sorted, 100, 1); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("lower cut = %v, want 0.3", got)
	}
	s := Summarize(sorted, 2, 2, 0, 1)
	if s.P99 != 20 || s.P95 != 20 {
		t.Fatalf("p95/p99 = %v/%v, want max 20", s.P95, s.P99)
	}
}
