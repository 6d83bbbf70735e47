package runner_test

import (
	"errors"
	"testing"
	"time"

	"github.com/torosent/kvbench/internal/runner"
)

func TestClassify(t *testing.T) {
	ioErr := errors.New("broken pipe")
	tests := []struct {
		name     string
		response string
		err      error
		want     runner.OutcomeKind
	}{
		{"ok", "OK", nil, runner.Success},
		{"missing key is a value", "-1", nil, runner.Success},
		{"err prefix", "ERR Unknown Command", nil, runner.LogicalError},
		{"error prefix", "ERROR: out of memory", nil, runner.LogicalError},
		{"lowercase is data", "error", nil, runner.Success},
		{"transport wins", "ERR x", ioErr, runner.TransportError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runner.Classify(tt.response, tt.err, time.Millisecond, runner.DefaultErrorPrefixes)
			if out.Kind != tt.want {
				t.Fatalf("Classify(%q, %v) = %s, want %s", tt.response, tt.err, out.Kind, tt.want)
			}
			if out.Failed() != (tt.want != runner.Success) {
				t.Fatalf("Failed() = %v for %s", out.Failed(), out.Kind)
			}
		})
	}
}

func TestOutcomeCause(t *testing.T) {
	ok := runner.Classify("OK", nil, 3*time.Millisecond, runner.DefaultErrorPrefixes)
	if ok.Cause() != nil || ok.Latency != 3*time.Millisecond {
		t.Fatalf("success outcome = %+v", ok)
	}

	logical := runner.Classify("ERR Wrong Number of Arguments", nil, time.Millisecond, runner.DefaultErrorPrefixes)
	var respErr *runner.ResponseError
	if !errors.As(logical.Cause(), &respErr) || respErr.Response != "ERR Wrong Number of Arguments" {
		t.Fatalf("logical cause = %v", logical.Cause())
	}
	if logical.Latency != 0 {
		t.Fatalf("logical error carries latency %s", logical.Latency)
	}
}

func TestClassifyCustomPrefixes(t *testing.T) {
	out := runner.Classify("FAIL busy", nil, 0, []string{"FAIL"})
	if out.Kind != runner.LogicalError {
		t.Fatalf("custom prefix not honoured: %s", out.Kind)
	}
	out = runner.Classify("ERR busy", nil, 0, []string{"FAIL"})
	if out.Kind != runner.Success {
		t.Fatalf("default prefixes applied despite override: %s", out.Kind)
	}
}
