// Package stats reduces raw latency samples and counters into summary statistics.
//
// Percentiles follow a fixed policy so that results stay comparable between runs:
// p95 is the 19th of 20 quantile cut points and needs at least 20 samples, p99 is
// the 99th of 100 cut points and needs at least 100 samples. Below those counts
// both fall back to the maximum sample. Cut points use the exclusive method
// (the sample is treated as drawn from a larger population).
package stats

import (
	"math"
	"sort"
)

// Summary is a read-only view derived from one run's samples and counters.
// Latencies are in milliseconds.
type Summary struct {
	TotalOps      int     `json:"total_ops" yaml:"total_ops"`
	SuccessfulOps int     `json:"successful_ops" yaml:"successful_ops"`
	Errors        int     `json:"errors" yaml:"errors"`
	WallTimeS     float64 `json:"wall_time_s" yaml:"wall_time_s"`
	Avg           float64 `json:"avg_ms" yaml:"avg_ms"`
	Min           float64 `json:"min_ms" yaml:"min_ms"`
	Max           float64 `json:"max_ms" yaml:"max_ms"`
	P50           float64 `json:"p50_ms" yaml:"p50_ms"`
	P95           float64 `json:"p95_ms" yaml:"p95_ms"`
	P99           float64 `json:"p99_ms" yaml:"p99_ms"`
	OpsPerSec     float64 `json:"ops_per_sec" yaml:"ops_per_sec"`
	SuccessRate   float64 `json:"success_rate" yaml:"success_rate"`
}

const (
	p95Cuts = 20
	p99Cuts = 100
)

// Summarize computes the summary statistics. samples is not modified.
func Summarize(samples []float64, totalOps, successfulOps, errors int, wallTimeS float64) Summary {
	s := Summary{
		TotalOps:      totalOps,
		SuccessfulOps: successfulOps,
		Errors:        errors,
		WallTimeS:     wallTimeS,
		SuccessRate:   SuccessRate(successfulOps, totalOps),
		OpsPerSec:     Throughput(successfulOps, wallTimeS),
	}
	if len(samples) == 0 {
		return s
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	s.Avg = mean(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.P50 = median(sorted)
	s.P95 = s.Max
	if len(sorted) >= p95Cuts {
		s.P95 = cutPoint(sorted, p95Cuts, p95Cuts-1)
	}
	s.P99 = s.Max
	if len(sorted) >= p99Cuts {
		s.P99 = cutPoint(sorted, p99Cuts, p99Cuts-1)
	}
	return s
}

// SuccessRate returns successful/total as a percentage, or 0 when total is 0.
func SuccessRate(successful, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}

// Throughput returns successful operations per second, or 0 when the wall time
// is not positive.
func Throughput(successful int, wallTimeS float64) float64 {
	if wallTimeS <= 0 {
		return 0
	}
	return float64(successful) / wallTimeS
}

// cutPoint returns the i-th of n exclusive-method cut points of sorted.
func cutPoint(sorted []float64, n, i int) float64 {
	ld := len(sorted)
	m := ld + 1
	j := i * m / n
	if j < 1 {
		j = 1
	} else if j > ld-1 {
		j = ld - 1
	}
	delta := i*m - j*n
	return (sorted[j-1]*float64(n-delta) + sorted[j]*float64(delta)) / float64(n)
}

func mean(xs []float64) float64 {
	// Compensated (Kahan) summation.
	var sum, c float64
	for _, x := range xs {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum / float64(len(xs))
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
