package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/torosent/kvbench/internal/runner"
	"github.com/torosent/kvbench/internal/scenario"
	"github.com/torosent/kvbench/internal/stats"
	"github.com/torosent/kvbench/internal/threshold"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// PrintEntry writes the report block matching the kind of entry.
func PrintEntry(w io.Writer, e scenario.Entry) {
	switch {
	case e.Concurrent != nil:
		PrintConcurrencyReport(w, *e.Concurrent)
	case e.Run != nil:
		PrintRunReport(w, *e.Run)
	}
}

// PrintRunReport outputs the result block of one single-stream run.
func PrintRunReport(w io.Writer, r runner.RunResult) {
	s := r.Summary()
	banner := strings.Repeat("=", 15)
	fmt.Fprintf(w, "\n%s %s RESULTS %s\n", banner, strings.ToUpper(r.Label), banner)
	fmt.Fprintf(w, "Total Operations:    %s\n", humanize.Comma(int64(s.TotalOps)))
	fmt.Fprintf(w, "Successful:          %s\n", humanize.Comma(int64(s.SuccessfulOps)))
	fmt.Fprintf(w, "Errors:              %s\n", humanize.Comma(int64(s.Errors)))
	if s.Errors > 0 {
		fmt.Fprintf(w, "  Transport:         %s\n", humanize.Comma(int64(r.TransportErrors)))
		fmt.Fprintf(w, "  Service:           %s\n", humanize.Comma(int64(r.LogicalErrors)))
	}
	fmt.Fprintf(w, "Success Rate:        %.2f%%\n", s.SuccessRate)
	fmt.Fprintf(w, "Total Time:          %.3fs\n", s.WallTimeS)
	fmt.Fprintf(w, "Throughput:          %s ops/sec\n", humanize.Commaf(stats.Round(s.OpsPerSec, 0)))

	if len(r.Samples) > 0 {
		writeLatency(w, s)
	}
}

// PrintConcurrencyReport outputs the result block of a concurrent run.
func PrintConcurrencyReport(w io.Writer, c runner.CombinedResult) {
	s := c.Summary()
	banner := strings.Repeat("=", 20)
	fmt.Fprintf(w, "\n%s %s RESULTS %s\n", banner, strings.ToUpper(c.Label), banner)
	fmt.Fprintf(w, "Workers:             %d\n", c.Workers)
	fmt.Fprintf(w, "Ops per worker:      %s\n", humanize.Comma(int64(c.OpsPerWorker)))
	fmt.Fprintf(w, "Total operations:    %s\n", humanize.Comma(int64(c.TotalOps())))
	fmt.Fprintf(w, "Successful:          %s\n", humanize.Comma(int64(c.TotalSuccessful)))
	fmt.Fprintf(w, "Errors:              %s\n", humanize.Comma(int64(c.TotalErrors)))
	fmt.Fprintf(w, "Success rate:        %.2f%%\n", c.SuccessRate())
	fmt.Fprintf(w, "Total time:          %.3fs\n", c.WallTime.Seconds())
	fmt.Fprintf(w, "Throughput:          %s ops/sec\n", humanize.Commaf(stats.Round(c.Throughput(), 0)))
	if c.Workers > 0 {
		fmt.Fprintf(w, "Avg per worker:      %.1f ops\n", float64(c.TotalSuccessful)/float64(c.Workers))
	}
	if s.SuccessfulOps > 0 {
		writeLatency(w, s)
	}
}

func writeLatency(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "Average Latency:     %.3fms\n", s.Avg)
	fmt.Fprintf(w, "Min Latency:         %.3fms\n", s.Min)
	fmt.Fprintf(w, "Max Latency:         %.3fms\n", s.Max)
	fmt.Fprintf(w, "P50 Latency:         %.3fms\n", s.P50)
	fmt.Fprintf(w, "P95 Latency:         %.3fms\n", s.P95)
	fmt.Fprintf(w, "P99 Latency:         %.3fms\n", s.P99)
}

// PrintSummary outputs the closing table over every single-stream scenario,
// followed by the best and worst performers.
func PrintSummary(w io.Writer, res *scenario.Results, elapsed time.Duration) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nBENCHMARK SUMMARY\n%s\n", rule, rule)

	runs := res.Runs()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No results to display")
		return
	}

	fmt.Fprintf(w, "%-20s %-12s %-12s %-12s %-10s\n", "Command", "Ops/sec", "Avg (ms)", "P95 (ms)", "Success %")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, e := range runs {
		s := e.Summary()
		fmt.Fprintf(w, "%-20s %-12.0f %-12.3f %-12.3f %-10.2f\n", e.Label, s.OpsPerSec, s.Avg, s.P95, s.SuccessRate)
	}
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total benchmark time: %.2f seconds\n", elapsed.Seconds())

	if len(runs) < 2 {
		return
	}
	if best, ok := res.Best(); ok {
		fmt.Fprintf(w, "\nBest performance:  %s (%.0f ops/sec)\n", best.Label, best.Summary().OpsPerSec)
	}
	if worst, ok := res.Worst(); ok {
		fmt.Fprintf(w, "Worst performance: %s (%.0f ops/sec)\n", worst.Label, worst.Summary().OpsPerSec)
	}
}

// PrintThresholds outputs one coloured line per threshold result and a
// closing verdict.
func PrintThresholds(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	failed := 0
	for _, r := range results {
		c := passColor
		if !r.Pass {
			c = failColor
			failed++
		}
		c.Fprintf(w, "  %s\n", r.Message)
	}
	if failed > 0 {
		failColor.Fprintf(w, "%d of %d thresholds failed\n", failed, len(results))
		return
	}
	passColor.Fprintf(w, "All %d thresholds passed\n", len(results))
}
