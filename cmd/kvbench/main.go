package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/torosent/kvbench/internal/config"
	"github.com/torosent/kvbench/internal/dashboard"
	"github.com/torosent/kvbench/internal/feeder"
	"github.com/torosent/kvbench/internal/generator"
	"github.com/torosent/kvbench/internal/metrics"
	"github.com/torosent/kvbench/internal/output"
	"github.com/torosent/kvbench/internal/runner"
	"github.com/torosent/kvbench/internal/scenario"
	"github.com/torosent/kvbench/internal/threshold"
	"github.com/torosent/kvbench/internal/tracing"
)

const (
	progressInterval = 250 * time.Millisecond
	shutdownTimeout  = 5 * time.Second
)

func main() {
	err := run(os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, scenario.ErrInterrupted):
		os.Exit(130)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return execute(ctx, args, os.Stdout)
}

// execute runs the whole benchmark and writes human output to stdout.
func execute(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var feed feeder.Feeder
	if cfg.Feeder.Path != "" {
		ds, err := feeder.Load(cfg.Feeder.Path, cfg.Feeder.Type)
		if err != nil {
			return err
		}
		log.Debug("feeder loaded", zap.String("path", cfg.Feeder.Path), zap.Int("records", ds.Len()))
		feed = ds
	}

	provider, err := tracing.Init(ctx, cfg.Tracing, tracing.TargetAttr(cfg.Addr()))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(sctx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	scenarios, err := scenario.Build(cfg.SelectedGroups(), scenario.Params{
		Iterations:   cfg.Iterations,
		Workers:      cfg.Workers,
		OpsPerWorker: cfg.OpsPerWorker,
		Source:       generator.NewSource(cfg.Seed),
		Custom:       cfg.Scenarios,
		Feeder:       feed,
	})
	if err != nil {
		return err
	}

	target := cfg.Addr()
	dial := runner.TCPDialer(target, cfg.Timeout)
	r := runner.New(runner.Options{
		Dial:          dial,
		ErrorPrefixes: cfg.ErrorPrefixes,
		RatePerSecond: cfg.Rate,
		Logger:        log,
		Tracer:        provider.Tracer(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	human := !cfg.JSONOutput
	obs := &consoleObserver{out: stdout, reports: human}
	switch {
	case cfg.Dashboard:
		dash, err := dashboard.New(dashboard.RunConfig{
			Target:       target,
			Iterations:   cfg.Iterations,
			Workers:      cfg.Workers,
			OpsPerWorker: cfg.OpsPerWorker,
			Rate:         cfg.Rate,
			Timeout:      cfg.Timeout,
			Groups:       cfg.SelectedGroups(),
			Scenarios:    len(scenarios),
			ConfigFile:   cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		obs.dash = dash
		dash.Start()
	case human && !cfg.NoProgress:
		obs.progress = output.NewProgressReporter(progressInterval, stdout)
	}

	if human && obs.dash == nil {
		printHeader(stdout, cfg, target)
	}

	suite := &scenario.Suite{
		Runner:    r,
		Dial:      dial,
		Target:    target,
		Scenarios: scenarios,
		Observer:  obs,
		Tracer:    provider.Tracer(),
		Logger:    log,
	}
	results, err := suite.Run(ctx)
	obs.stop()
	switch {
	case errors.Is(err, scenario.ErrUnreachable):
		fmt.Fprintf(stdout, "Failed to connect to %s\n", target)
		return err
	case errors.Is(err, scenario.ErrInterrupted):
		fmt.Fprintln(stdout, "\nBenchmark interrupted by user")
		return err
	case err != nil:
		return err
	}

	if human {
		output.PrintSummary(stdout, results, results.Elapsed())
	} else if err := output.PrintJSON(stdout, results); err != nil {
		return err
	}

	if cfg.Output != "" {
		if err := output.WriteResults(cfg.Output, results); err != nil {
			return err
		}
		log.Info("results saved", zap.String("path", cfg.Output), zap.String("run_id", results.RunID))
	}

	if len(thresholds) > 0 {
		outcomes := threshold.NewEvaluator(thresholds).Evaluate(results)
		if human {
			output.PrintThresholds(stdout, outcomes)
		}
		if !threshold.Passed(outcomes) {
			failed := 0
			for _, o := range outcomes {
				if !o.Pass {
					failed++
				}
			}
			return fmt.Errorf("%d of %d thresholds failed", failed, len(outcomes))
		}
	}
	return nil
}

func printHeader(w io.Writer, cfg *config.Config, target string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, "KV Benchmark Suite")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Target:              %s\n", target)
	fmt.Fprintf(w, "Iterations per test: %d\n", cfg.Iterations)
	fmt.Fprintf(w, "Concurrency workers: %d\n", cfg.Workers)
	fmt.Fprintf(w, "Groups:              %s\n", strings.Join(cfg.SelectedGroups(), ", "))
	fmt.Fprintln(w, rule)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true
	zcfg.Sampling = nil
	return zcfg.Build()
}

// consoleObserver drives the progress line or the dashboard and prints each
// scenario report as soon as it completes. While the dashboard owns the
// terminal, reports are held back until stop.
type consoleObserver struct {
	out      io.Writer
	reports  bool
	progress *output.ProgressReporter
	dash     *dashboard.Dashboard
	held     []scenario.Entry
}

func (o *consoleObserver) ScenarioStarted(sc scenario.Scenario, collectors []*metrics.Collector) {
	switch {
	case o.dash != nil:
		o.dash.ScenarioStarted(sc, collectors)
	case o.progress != nil:
		o.progress.ScenarioStarted(sc, collectors)
	}
}

func (o *consoleObserver) ScenarioDone(e scenario.Entry) {
	switch {
	case o.dash != nil:
		o.dash.ScenarioDone(e)
		o.held = append(o.held, e)
		return
	case o.progress != nil:
		o.progress.ScenarioDone(e)
	}
	if o.reports {
		output.PrintEntry(o.out, e)
	}
}

func (o *consoleObserver) stop() {
	if o.progress != nil {
		o.progress.Stop()
	}
	if o.dash != nil {
		o.dash.Stop()
		o.dash = nil
		for _, e := range o.held {
			output.PrintEntry(o.out, e)
		}
		o.held = nil
	}
}
