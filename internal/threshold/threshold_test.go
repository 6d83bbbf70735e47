package threshold

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/kvbench/internal/runner"
	"github.com/torosent/kvbench/internal/scenario"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "p95 latency",
			input: "GET:p95 < 5",
			want: Threshold{
				Label:     "GET",
				Aggregate: "p95",
				Operator:  "<",
				Value:     5,
				Raw:       "GET:p95 < 5",
			},
		},
		{
			name:  "wildcard success rate",
			input: "*:success_rate >= 99.5",
			want: Threshold{
				Label:     "*",
				Aggregate: "success_rate",
				Operator:  ">=",
				Value:     99.5,
				Raw:       "*:success_rate >= 99.5",
			},
		},
		{
			name:  "underscored label without spaces",
			input: "LDEL_INDEX:errors==0",
			want: Threshold{
				Label:     "LDEL_INDEX",
				Aggregate: "errors",
				Operator:  "==",
				Value:     0,
				Raw:       "LDEL_INDEX:errors==0",
			},
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  SET:ops > 1000 ",
			want: Threshold{
				Label:     "SET",
				Aggregate: "ops",
				Operator:  ">",
				Value:     1000,
				Raw:       "SET:ops > 1000",
			},
		},
		{name: "empty string", input: "", wantError: true},
		{name: "missing label", input: "p95 < 5", wantError: true},
		{name: "unknown aggregate", input: "GET:p90 < 5", wantError: true},
		{name: "unknown operator", input: "GET:p95 != 5", wantError: true},
		{name: "negative value", input: "GET:p95 < -1", wantError: true},
		{name: "bad number", input: "GET:p95 < 1.2.3", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	got, err := ParseMultiple([]string{"GET:p95 < 5", "*:errors == 0"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	if len(got) != 2 || got[1].Label != Wildcard {
		t.Fatalf("ParseMultiple() = %+v", got)
	}

	_, err = ParseMultiple([]string{"GET:p95 < 5", "bogus", "SET:nope > 1"})
	if err == nil {
		t.Fatal("expected error for invalid thresholds")
	}
	if !strings.Contains(err.Error(), "threshold[1]") || !strings.Contains(err.Error(), "threshold[2]") {
		t.Errorf("error should list every invalid entry: %v", err)
	}

	if got, err := ParseMultiple(nil); got != nil || err != nil {
		t.Errorf("ParseMultiple(nil) = %v, %v", got, err)
	}
}

func sampleResults() *scenario.Results {
	res := scenario.NewResults("localhost:5555")
	res.Add(scenario.Entry{Group: "basic", Label: "GET", Run: &runner.RunResult{
		Label:         "GET",
		TotalOps:      5,
		SuccessfulOps: 4,
		Errors:        1,
		LogicalErrors: 1,
		WallTime:      2 * time.Second,
		Samples:       []float64{1, 2, 3, 4},
	}})
	res.Add(scenario.Entry{Group: "basic", Label: "SET", Run: &runner.RunResult{
		Label:         "SET",
		TotalOps:      2,
		SuccessfulOps: 2,
		WallTime:      time.Second,
		Samples:       []float64{0.5, 0.5},
	}})
	return res
}

func TestEvaluator(t *testing.T) {
	tests := []struct {
		threshold string
		wantPass  []bool
		wantValue float64
	}{
		{"GET:avg == 2.5", []bool{true}, 2.5},
		{"GET:min == 1", []bool{true}, 1},
		{"GET:max < 4", []bool{false}, 4},
		{"GET:p50 <= 2.5", []bool{true}, 2.5},
		{"GET:p95 <= 4", []bool{true}, 4}, // fewer than 20 samples falls back to max
		{"GET:p99 > 4", []bool{false}, 4},
		{"GET:ops >= 2", []bool{true}, 2},
		{"GET:success_rate >= 90", []bool{false}, 80},
		{"GET:errors == 1", []bool{true}, 1},
		{"*:errors == 0", []bool{false, true}, 1},
		{"LOAD:avg < 1", []bool{false}, 0},
	}

	res := sampleResults()
	for _, tt := range tests {
		t.Run(tt.threshold, func(t *testing.T) {
			th, err := Parse(tt.threshold)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got := NewEvaluator([]Threshold{th}).Evaluate(res)
			if len(got) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(got), len(tt.wantPass))
			}
			for i, r := range got {
				if r.Pass != tt.wantPass[i] {
					t.Errorf("result %d (%s) pass = %v, want %v: %s", i, r.Label, r.Pass, tt.wantPass[i], r.Message)
				}
			}
			if got[0].Actual != tt.wantValue {
				t.Errorf("actual = %v, want %v", got[0].Actual, tt.wantValue)
			}
		})
	}
}

func TestEvaluatorWildcardLabels(t *testing.T) {
	th, _ := Parse("*:p50 < 10")
	got := NewEvaluator([]Threshold{th}).Evaluate(sampleResults())
	if len(got) != 2 || got[0].Label != "GET" || got[1].Label != "SET" {
		t.Fatalf("wildcard results = %+v", got)
	}
	if !Passed(got) {
		t.Errorf("Passed() = false for %+v", got)
	}
}

func TestEvaluatorMissingScenarioFails(t *testing.T) {
	th, _ := Parse("LKEYS:ops > 1")
	got := NewEvaluator([]Threshold{th}).Evaluate(sampleResults())
	if len(got) != 1 || got[0].Pass {
		t.Fatalf("missing scenario should fail: %+v", got)
	}
	if !strings.Contains(got[0].Message, "no results for LKEYS") {
		t.Errorf("message = %q", got[0].Message)
	}

	th, _ = Parse("*:ops > 1")
	empty := scenario.NewResults("x")
	if got := NewEvaluator([]Threshold{th}).Evaluate(empty); len(got) != 1 || got[0].Pass {
		t.Errorf("wildcard over no results should fail: %+v", got)
	}
}

func TestEvaluatorNoThresholds(t *testing.T) {
	if got := NewEvaluator(nil).Evaluate(sampleResults()); got != nil {
		t.Errorf("Evaluate() = %v, want nil", got)
	}
	if !Passed(nil) {
		t.Error("Passed(nil) = false")
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{1, "<", 2, true},
		{2, "<", 2, false},
		{2, "<=", 2, true},
		{3, ">", 2, true},
		{2, ">", 2, false},
		{2, ">=", 2, true},
		{0.1 + 0.2, "==", 0.3, true},
		{1, "!=", 2, false},
	}
	for _, tt := range tests {
		if got := compareValues(tt.actual, tt.operator, tt.expected); got != tt.want {
			t.Errorf("compareValues(%v %s %v) = %v, want %v", tt.actual, tt.operator, tt.expected, got, tt.want)
		}
	}
}
