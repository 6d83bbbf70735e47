package runner

import (
	"fmt"
	"time"

	"github.com/torosent/kvbench/internal/clientmetrics"
	"github.com/torosent/kvbench/internal/stats"
)

// RunResult is the frozen record of one single-stream run.
type RunResult struct {
	Label           string
	TotalOps        int
	SuccessfulOps   int
	Errors          int
	TransportErrors int
	LogicalErrors   int
	WallTime        time.Duration
	Samples         []float64 // milliseconds, one per successful operation
	Traffic         clientmetrics.Snapshot
}

// Summary derives the summary statistics of the run.
func (r RunResult) Summary() stats.Summary {
	return stats.Summarize(r.Samples, r.TotalOps, r.SuccessfulOps, r.Errors, r.WallTime.Seconds())
}

// Check verifies the counters of a completed run are consistent.
func (r RunResult) Check() error {
	if r.SuccessfulOps+r.Errors != r.TotalOps {
		return fmt.Errorf("%s: successful (%d) + errors (%d) != total (%d)", r.Label, r.SuccessfulOps, r.Errors, r.TotalOps)
	}
	if len(r.Samples) != r.SuccessfulOps {
		return fmt.Errorf("%s: %d samples for %d successful operations", r.Label, len(r.Samples), r.SuccessfulOps)
	}
	if r.TransportErrors+r.LogicalErrors != r.Errors {
		return fmt.Errorf("%s: error kinds (%d + %d) != errors (%d)", r.Label, r.TransportErrors, r.LogicalErrors, r.Errors)
	}
	return nil
}

// WorkerResult is what one concurrent worker reports back.
type WorkerResult struct {
	WorkerID   int
	Successful int
	Errors     int
	Samples    []float64
	Traffic    clientmetrics.Snapshot
}

// CombinedResult folds the results of every worker of a concurrent run.
type CombinedResult struct {
	Label           string
	Workers         int
	OpsPerWorker    int
	TotalSuccessful int
	TotalErrors     int
	WallTime        time.Duration
	PerWorker       []WorkerResult // completion order
	Traffic         clientmetrics.Snapshot
}

// TotalOps is the number of operations the run was asked to perform.
func (c CombinedResult) TotalOps() int {
	return c.Workers * c.OpsPerWorker
}

// Throughput returns successful operations per second of wall time.
func (c CombinedResult) Throughput() float64 {
	return stats.Throughput(c.TotalSuccessful, c.WallTime.Seconds())
}

// SuccessRate returns the percentage of planned operations that succeeded.
func (c CombinedResult) SuccessRate() float64 {
	return stats.SuccessRate(c.TotalSuccessful, c.TotalOps())
}

// Summary derives statistics over the samples of every worker.
func (c CombinedResult) Summary() stats.Summary {
	var n int
	for _, w := range c.PerWorker {
		n += len(w.Samples)
	}
	samples := make([]float64, 0, n)
	for _, w := range c.PerWorker {
		samples = append(samples, w.Samples...)
	}
	return stats.Summarize(samples, c.TotalOps(), c.TotalSuccessful, c.TotalErrors, c.WallTime.Seconds())
}

// Check verifies the combined counters against the plan.
func (c CombinedResult) Check() error {
	if len(c.PerWorker) != c.Workers {
		return fmt.Errorf("%s: %d worker results for %d workers", c.Label, len(c.PerWorker), c.Workers)
	}
	if c.TotalSuccessful+c.TotalErrors != c.TotalOps() {
		return fmt.Errorf("%s: successful (%d) + errors (%d) != %d", c.Label, c.TotalSuccessful, c.TotalErrors, c.TotalOps())
	}
	return nil
}
