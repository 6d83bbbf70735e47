package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"250ms", 250 * time.Millisecond},
		{10, 10 * time.Second}, // int treated as seconds
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsStringSliceSplitsEnvironmentLists(t *testing.T) {
	got, err := asStringSlice("basic, list,,mixed")
	if err != nil {
		t.Fatalf("asStringSlice() error = %v", err)
	}
	want := []string{"basic", "list", "mixed"}
	if len(got) != len(want) {
		t.Fatalf("asStringSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("asStringSlice() = %v, want %v", got, want)
		}
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Default()
	settings := map[string]interface{}{
		"host":           "kv.internal",
		"port":           6000,
		"timeout":        "2s",
		"ops_per_worker": 50,
		"groups":         []interface{}{"basic", "custom"},
		"scenarios": []interface{}{
			map[string]interface{}{
				"label":      "HOT_GET",
				"command":    "GET hot_{{number:10}}",
				"iterations": 300,
			},
			map[interface{}]interface{}{
				"label":   "PAR_SET",
				"command": "SET w{{worker}}_{{i}} {{value}}",
				"workers": 4,
			},
		},
		"tracing": map[string]interface{}{
			"endpoint":    "collector:4317",
			"sample_rate": 0.5,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.Host != "kv.internal" || cfg.Port != 6000 {
		t.Errorf("target = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
	if cfg.OpsPerWorker != 50 {
		t.Errorf("OpsPerWorker = %d, want 50", cfg.OpsPerWorker)
	}
	if len(cfg.Groups) != 2 || cfg.Groups[1] != "custom" {
		t.Errorf("Groups = %v", cfg.Groups)
	}
	if len(cfg.Scenarios) != 2 {
		t.Fatalf("len(Scenarios) = %d, want 2", len(cfg.Scenarios))
	}
	if cfg.Scenarios[0].Iterations != 300 || cfg.Scenarios[1].Workers != 4 {
		t.Errorf("Scenarios = %+v", cfg.Scenarios)
	}
	if cfg.Tracing.Endpoint != "collector:4317" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Errorf("Tracing.Protocol = %q, want default grpc kept", cfg.Tracing.Protocol)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := Default()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--port=7000",
		"--workers=8",
		"--group=basic",
		"--group=list",
		"--threshold=GET:p95 < 5",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Port)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if len(cfg.Groups) != 2 {
		t.Errorf("Groups = %v", cfg.Groups)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "GET:p95 < 5" {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.Iterations != DefaultIterations {
		t.Errorf("unchanged flag overrode Iterations: %d", cfg.Iterations)
	}
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load([]string{"--host=10.0.0.5", "-p", "5556"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr() != "10.0.0.5:5556" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}
