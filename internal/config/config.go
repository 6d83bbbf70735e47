package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Built-in scenario groups, in execution order.
const (
	GroupBasic       = "basic"
	GroupList        = "list"
	GroupPersistence = "persistence"
	GroupMixed       = "mixed"
	GroupConcurrency = "concurrency"
	GroupCustom      = "custom"
)

// DefaultGroups is the group selection used when none is configured.
var DefaultGroups = []string{GroupBasic, GroupList, GroupPersistence, GroupMixed, GroupConcurrency}

var knownGroups = map[string]bool{
	GroupBasic:       true,
	GroupList:        true,
	GroupPersistence: true,
	GroupMixed:       true,
	GroupConcurrency: true,
	GroupCustom:      true,
}

const (
	DefaultHost         = "localhost"
	DefaultPort         = 5555
	DefaultTimeout      = 5 * time.Second
	DefaultIterations   = 1000
	DefaultWorkers      = 5
	DefaultOpsPerWorker = 200
	DefaultLogLevel     = "info"

	QuickIterations = 100
	QuickWorkers    = 3
)

type Config struct {
	Host          string           `mapstructure:"host"`
	Port          int              `mapstructure:"port"`
	Timeout       time.Duration    `mapstructure:"timeout"`
	Iterations    int              `mapstructure:"iterations"`
	Workers       int              `mapstructure:"workers"`
	OpsPerWorker  int              `mapstructure:"ops_per_worker"`
	Quick         bool             `mapstructure:"quick"`
	Groups        []string         `mapstructure:"groups"`
	Rate          int              `mapstructure:"rate"`
	Seed          int64            `mapstructure:"seed"`
	ErrorPrefixes []string         `mapstructure:"error_prefixes"`
	Output        string           `mapstructure:"output"`
	JSONOutput    bool             `mapstructure:"json_output"`
	NoProgress    bool             `mapstructure:"no_progress"`
	Dashboard     bool             `mapstructure:"dashboard"`
	LogLevel      string           `mapstructure:"log_level"`
	Thresholds    []string         `mapstructure:"thresholds"`
	Feeder        FeederConfig     `mapstructure:"feeder"`
	Scenarios     []CustomScenario `mapstructure:"scenarios"`
	Tracing       TracingConfig    `mapstructure:"tracing"`
	ConfigFile    string           `mapstructure:"-"`
}

// CustomScenario is a user-declared command template.
type CustomScenario struct {
	Label      string `mapstructure:"label"`
	Command    string `mapstructure:"command"`
	Iterations int    `mapstructure:"iterations"` // 0 uses the global iteration count
	Workers    int    `mapstructure:"workers"`    // > 0 runs the template concurrently
}

type FeederConfig struct {
	Path string `mapstructure:"path"`
	Type string `mapstructure:"type"` // "csv" or "json"
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		Timeout:      DefaultTimeout,
		Iterations:   DefaultIterations,
		Workers:      DefaultWorkers,
		OpsPerWorker: DefaultOpsPerWorker,
		LogLevel:     DefaultLogLevel,
		Tracing:      TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// Addr returns the host:port of the target service.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SelectedGroups returns the configured groups, or the defaults plus custom
// when custom scenarios are declared.
func (c Config) SelectedGroups() []string {
	if len(c.Groups) > 0 {
		return append([]string(nil), c.Groups...)
	}
	groups := append([]string(nil), DefaultGroups...)
	if len(c.Scenarios) > 0 {
		groups = append(groups, GroupCustom)
	}
	return groups
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Host) == "" {
		issues = append(issues, "host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		issues = append(issues, fmt.Sprintf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.Iterations < 0 {
		issues = append(issues, "iterations must be >= 0")
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.OpsPerWorker < 0 {
		issues = append(issues, "ops_per_worker must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard cannot be combined with json_output")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}

	if out := strings.TrimSpace(c.Output); out != "" {
		switch strings.ToLower(filepath.Ext(out)) {
		case ".json", ".yaml", ".yml":
		default:
			issues = append(issues, fmt.Sprintf("output: unsupported file type %q (use .json, .yaml or .yml)", out))
		}
	}

	for _, g := range c.Groups {
		if !knownGroups[g] {
			issues = append(issues, fmt.Sprintf("groups: unknown group %q", g))
		}
	}

	issues = append(issues, validateScenarios(c.Scenarios, c.Groups)...)
	issues = append(issues, validateFeederConfig(c.Feeder)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateScenarios(scenarios []CustomScenario, groups []string) []string {
	var issues []string
	seen := map[string]int{}
	for idx, sc := range scenarios {
		label := strings.TrimSpace(sc.Label)
		if label == "" {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: label is required", idx))
		} else if prev, ok := seen[label]; ok {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: duplicate label also defined at index %d", idx, prev))
		} else {
			seen[label] = idx
		}
		if strings.TrimSpace(sc.Command) == "" {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: command is required", idx))
		}
		if sc.Iterations < 0 {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: iterations must be >= 0", idx))
		}
		if sc.Workers < 0 {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: workers must be >= 0", idx))
		}
	}
	for _, g := range groups {
		if g == GroupCustom && len(scenarios) == 0 {
			issues = append(issues, "groups: custom selected but no scenarios are declared")
		}
	}
	return issues
}

func validateFeederConfig(feeder FeederConfig) []string {
	if strings.TrimSpace(feeder.Path) == "" {
		return nil
	}
	switch feeder.Type {
	case "", "csv", "json":
		return nil
	default:
		return []string{fmt.Sprintf("feeder: type must be 'csv' or 'json', got %q", feeder.Type)}
	}
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
