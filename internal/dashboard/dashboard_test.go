package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/torosent/kvbench/internal/metrics"
	"github.com/torosent/kvbench/internal/runner"
	"github.com/torosent/kvbench/internal/scenario"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		n, of, want int
	}{
		{0, 0, 0},
		{5, 10, 50},
		{10, 10, 100},
		{12, 10, 100},
		{1, 3, 33},
	}
	for _, tt := range tests {
		if got := percent(tt.n, tt.of); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.n, tt.of, got, tt.want)
		}
	}
}

func TestFormatParams(t *testing.T) {
	got := formatParams(RunConfig{
		Groups:       []string{"basic", "list"},
		Iterations:   1000,
		Workers:      5,
		OpsPerWorker: 200,
		Timeout:      5 * time.Second,
	})
	for _, want := range []string{"Groups: basic,list", "Iterations: 1000", "Workers: 5 x 200", "Rate: unlimited", "Timeout: 5s"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatParams() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "Config:") {
		t.Errorf("config file shown when unset: %q", got)
	}

	got = formatParams(RunConfig{Rate: 50, ConfigFile: "bench.yaml"})
	if !strings.Contains(got, "Rate: 50/s") || !strings.Contains(got, "Config: bench.yaml") {
		t.Errorf("formatParams() = %q", got)
	}
}

func TestFormatCompletedRow(t *testing.T) {
	ok := scenario.Entry{Label: "GET", Run: &runner.RunResult{
		Label: "GET", TotalOps: 2, SuccessfulOps: 2, WallTime: time.Second, Samples: []float64{1, 3},
	}}
	row := formatCompletedRow(ok)
	if !strings.Contains(row, "GET") || !strings.Contains(row, "2 ops/s") || !strings.Contains(row, "fg:green") {
		t.Errorf("row = %q", row)
	}

	failing := scenario.Entry{Label: "SET", Run: &runner.RunResult{Label: "SET", TotalOps: 1, Errors: 1}}
	if row := formatCompletedRow(failing); !strings.Contains(row, "fg:red") {
		t.Errorf("failing row = %q", row)
	}
}

func TestObserverUpdatesWidgets(t *testing.T) {
	d := newDashboard(RunConfig{Target: "localhost:5555", Scenarios: 2}, nil)

	c := metrics.NewCollector()
	c.Record(2*time.Millisecond, nil)
	c.Record(0, errors.New("timeout"))
	d.ScenarioStarted(scenario.Scenario{Label: "SET", Iterations: 4}, []*metrics.Collector{c})
	d.update()

	if d.progressGauge.Percent != 50 {
		t.Errorf("scenario gauge = %d%%, want 50%%", d.progressGauge.Percent)
	}
	if !strings.Contains(d.metricsPara.Text, "Failed:       1") {
		t.Errorf("metrics text = %q", d.metricsPara.Text)
	}
	if len(d.latencyHistory) != 1 {
		t.Errorf("latency history = %v", d.latencyHistory)
	}
	if !strings.Contains(d.summaryPara.Text, "Running: SET") {
		t.Errorf("summary text = %q", d.summaryPara.Text)
	}

	d.ScenarioDone(scenario.Entry{Label: "SET", Run: &runner.RunResult{Label: "SET", TotalOps: 4}})
	d.update()
	if d.suiteGauge.Percent != 50 || d.suiteGauge.Label != "1/2 scenarios" {
		t.Errorf("suite gauge = %d%% %q", d.suiteGauge.Percent, d.suiteGauge.Label)
	}
	if len(d.completedList.Rows) != 1 || !strings.Contains(d.completedList.Rows[0], "SET") {
		t.Errorf("completed rows = %v", d.completedList.Rows)
	}
}

func TestCompletedListIsBounded(t *testing.T) {
	d := newDashboard(RunConfig{}, nil)
	for i := 0; i < maxCompleted+5; i++ {
		d.ScenarioDone(scenario.Entry{Label: "X", Run: &runner.RunResult{}})
	}
	if len(d.completedList.Rows) != maxCompleted {
		t.Errorf("rows = %d, want %d", len(d.completedList.Rows), maxCompleted)
	}
}
