package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kvbench",
		Short:         "Latency and throughput benchmark for a line-protocol key-value service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.StringP("host", "H", DefaultHost, "Target service host")
	flags.IntP("port", "p", DefaultPort, "Target service port")
	flags.Duration("timeout", DefaultTimeout, "Connect and per-command response timeout")

	// Workload flags
	flags.IntP("iterations", "i", DefaultIterations, "Iterations per single-stream scenario")
	flags.IntP("workers", "w", DefaultWorkers, "Workers for the concurrency scenario")
	flags.Int("ops-per-worker", DefaultOpsPerWorker, "Operations per worker in concurrent scenarios")
	flags.BoolP("quick", "q", false, fmt.Sprintf("Quick run (%d iterations, %d workers)", QuickIterations, QuickWorkers))
	flags.StringSliceP("group", "g", nil, "Scenario group to run (repeatable: basic, list, persistence, mixed, concurrency, custom)")
	flags.IntP("rate", "r", 0, "Per-stream operations per second limit (0 means unlimited)")
	flags.Int64("seed", 0, "Random seed for generated test data (0 means time based)")
	flags.StringSlice("error-prefix", nil, "Response prefix counted as a service error (repeatable, default ERROR and ERR)")

	// Output flags
	flags.StringP("output", "o", "", "Write results to a .json, .yaml or .yml file")
	flags.Bool("json-output", false, "Emit JSON formatted results on stdout")
	flags.Bool("no-progress", false, "Disable the live progress line")
	flags.Bool("dashboard", false, "Show a live terminal dashboard instead of the progress line")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")

	// Feeder flags
	flags.String("feeder-path", "", "CSV or JSON file with values for custom scenario templates")
	flags.String("feeder-type", "", "Type of feeder file: 'csv' or 'json' (default from extension)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Pass/fail threshold (repeatable, e.g. 'GET:p95 < 5')")

	// Tracing flags
	flags.String("otel-endpoint", "", "OTLP endpoint for scenario spans (empty disables tracing)")
	flags.String("otel-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.String("otel-service-name", "", "Service name reported on spans")
	flags.Float64("otel-sample-rate", 1.0, "Span sampling ratio between 0.0 and 1.0")
	flags.Bool("otel-insecure", false, "Use an insecure connection to the OTLP endpoint")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\nUsage: %s\n\nFlags:\n", cmd.Short, cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file and environment.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("host") {
		val, err := fs.GetString("host")
		if err != nil {
			return err
		}
		cfg.Host = strings.TrimSpace(val)
	}
	if fs.Changed("port") {
		val, err := fs.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Port = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("iterations") {
		val, err := fs.GetInt("iterations")
		if err != nil {
			return err
		}
		cfg.Iterations = val
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("ops-per-worker") {
		val, err := fs.GetInt("ops-per-worker")
		if err != nil {
			return err
		}
		cfg.OpsPerWorker = val
	}
	if fs.Changed("quick") {
		val, err := fs.GetBool("quick")
		if err != nil {
			return err
		}
		cfg.Quick = val
	}
	if fs.Changed("group") {
		val, err := fs.GetStringSlice("group")
		if err != nil {
			return err
		}
		cfg.Groups = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("error-prefix") {
		val, err := fs.GetStringSlice("error-prefix")
		if err != nil {
			return err
		}
		cfg.ErrorPrefixes = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = strings.TrimSpace(val)
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("no-progress") {
		val, err := fs.GetBool("no-progress")
		if err != nil {
			return err
		}
		cfg.NoProgress = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = val
	}
	if fs.Changed("feeder-path") {
		val, err := fs.GetString("feeder-path")
		if err != nil {
			return err
		}
		cfg.Feeder.Path = strings.TrimSpace(val)
	}
	if fs.Changed("feeder-type") {
		val, err := fs.GetString("feeder-type")
		if err != nil {
			return err
		}
		cfg.Feeder.Type = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = append(cfg.Thresholds, val...)
	}
	if fs.Changed("otel-endpoint") {
		val, err := fs.GetString("otel-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("otel-protocol") {
		val, err := fs.GetString("otel-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("otel-service-name") {
		val, err := fs.GetString("otel-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = val
	}
	if fs.Changed("otel-sample-rate") {
		val, err := fs.GetFloat64("otel-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("otel-insecure") {
		val, err := fs.GetBool("otel-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	return nil
}
