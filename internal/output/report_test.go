package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/kvbench/internal/runner"
	"github.com/torosent/kvbench/internal/scenario"
	"github.com/torosent/kvbench/internal/threshold"
)

func sampleRun(label string, wall time.Duration, samples ...float64) runner.RunResult {
	return runner.RunResult{
		Label:         label,
		TotalOps:      len(samples),
		SuccessfulOps: len(samples),
		WallTime:      wall,
		Samples:       samples,
	}
}

func sampleResults() *scenario.Results {
	res := scenario.NewResults("localhost:5555")
	fast := sampleRun("SET", time.Second, 1, 1, 1, 1)
	slow := sampleRun("GET", 2*time.Second, 2, 2)
	res.Add(scenario.Entry{Group: "basic", Label: "SET", Run: &fast})
	res.Add(scenario.Entry{Group: "basic", Label: "GET", Run: &slow})
	res.Add(scenario.Entry{Group: "concurrency", Label: "CONCURRENCY", Concurrent: &runner.CombinedResult{
		Label:           "CONCURRENCY",
		Workers:         2,
		OpsPerWorker:    3,
		TotalSuccessful: 5,
		TotalErrors:     1,
		WallTime:        time.Second,
		PerWorker: []runner.WorkerResult{
			{WorkerID: 1, Successful: 2, Errors: 1, Samples: []float64{1, 2}},
			{WorkerID: 0, Successful: 3, Samples: []float64{1, 1, 1}},
		},
	}})
	res.Finished = res.Started.Add(3 * time.Second)
	return res
}

func TestPrintRunReport(t *testing.T) {
	r := runner.RunResult{
		Label:           "set",
		TotalOps:        12345,
		SuccessfulOps:   12340,
		Errors:          5,
		TransportErrors: 2,
		LogicalErrors:   3,
		WallTime:        2 * time.Second,
		Samples:         []float64{0.25, 0.5},
	}

	var buf bytes.Buffer
	PrintRunReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"SET RESULTS",
		"Total Operations:    12,345",
		"Successful:          12,340",
		"Transport:         2",
		"Service:           3",
		"Throughput:          6,170 ops/sec",
		"Average Latency:     0.375ms",
		"P99 Latency:         0.500ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRunReportWithoutSamplesOmitsLatency(t *testing.T) {
	var buf bytes.Buffer
	PrintRunReport(&buf, runner.RunResult{Label: "GET", TotalOps: 10, Errors: 10, TransportErrors: 10})
	out := buf.String()
	if strings.Contains(out, "Latency") {
		t.Errorf("latency block printed without samples:\n%s", out)
	}
	if !strings.Contains(out, "Success Rate:        0.00%") {
		t.Errorf("expected zero success rate:\n%s", out)
	}
}

func TestPrintConcurrencyReport(t *testing.T) {
	e, _ := sampleResults().Get("CONCURRENCY")

	var buf bytes.Buffer
	PrintEntry(&buf, e)
	out := buf.String()

	for _, want := range []string{
		"CONCURRENCY RESULTS",
		"Workers:             2",
		"Total operations:    6",
		"Errors:              1",
		"Success rate:        83.33%",
		"Avg per worker:      2.5 ops",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	res := sampleResults()

	var buf bytes.Buffer
	PrintSummary(&buf, res, res.Elapsed())
	out := buf.String()

	if !strings.Contains(out, "BENCHMARK SUMMARY") || !strings.Contains(out, "Total benchmark time: 3.00 seconds") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if strings.Contains(out, "CONCURRENCY ") {
		t.Errorf("concurrent scenario should not be in the table:\n%s", out)
	}
	if !strings.Contains(out, "Best performance:  SET (4 ops/sec)") {
		t.Errorf("best performer missing:\n%s", out)
	}
	if !strings.Contains(out, "Worst performance: GET (1 ops/sec)") {
		t.Errorf("worst performer missing:\n%s", out)
	}
}

func TestPrintSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, scenario.NewResults("x"), time.Second)
	if !strings.Contains(buf.String(), "No results to display") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestPrintThresholds(t *testing.T) {
	results := []threshold.Result{
		{Label: "GET", Pass: true, Message: "✓ GET:p95: 1.00 < 5.00"},
		{Label: "SET", Pass: false, Message: "✗ SET:p95: 9.00 < 5.00"},
	}

	var buf bytes.Buffer
	PrintThresholds(&buf, results)
	out := buf.String()
	if !strings.Contains(out, "GET:p95") || !strings.Contains(out, "SET:p95") {
		t.Errorf("threshold lines missing:\n%s", out)
	}
	if !strings.Contains(out, "1 of 2 thresholds failed") {
		t.Errorf("verdict missing:\n%s", out)
	}

	buf.Reset()
	PrintThresholds(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for no thresholds, got %q", buf.String())
	}
}
