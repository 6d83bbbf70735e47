package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/torosent/kvbench/internal/metrics"
	"github.com/torosent/kvbench/internal/runner"
	"github.com/torosent/kvbench/internal/tracing"
)

var (
	// ErrUnreachable is returned when the pre-run connectivity check fails.
	ErrUnreachable = errors.New("target unreachable")
	// ErrInterrupted is returned when the suite is cancelled part way.
	ErrInterrupted = errors.New("benchmark interrupted")
)

// Observer is notified as the suite progresses. Collectors holds one live
// collector per stream of the scenario about to run.
type Observer interface {
	ScenarioStarted(sc Scenario, collectors []*metrics.Collector)
	ScenarioDone(e Entry)
}

// Suite runs scenarios one after another against a single target.
type Suite struct {
	Runner    *runner.Runner
	Dial      runner.Dialer // used for the connectivity check
	Target    string
	Scenarios []Scenario
	Observer  Observer     // optional
	Tracer    trace.Tracer // optional
	Logger    *zap.Logger  // optional
}

// Run checks the target is reachable, then runs every scenario in order.
// When ctx is cancelled the scenario in flight is discarded, the remaining
// ones are skipped and the completed results are returned with ErrInterrupted.
func (s *Suite) Run(ctx context.Context) (*Results, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tracer := s.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("kvbench")
	}

	results := NewResults(s.Target)
	defer func() { results.Finished = time.Now() }()

	if err := s.checkReachable(ctx); err != nil {
		if ctx.Err() != nil {
			return results, ErrInterrupted
		}
		return results, fmt.Errorf("%w at %s: %w", ErrUnreachable, s.Target, err)
	}
	log.Info("target reachable", zap.String("target", s.Target), zap.String("run_id", results.RunID))

	for _, sc := range s.Scenarios {
		if ctx.Err() != nil {
			return results, ErrInterrupted
		}

		entry, err := s.runOne(ctx, tracer, sc)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("scenario interrupted", zap.String("label", sc.Label))
				return results, ErrInterrupted
			}
			return results, fmt.Errorf("scenario %s: %w", sc.Label, err)
		}

		results.Add(entry)
		if s.Observer != nil {
			s.Observer.ScenarioDone(entry)
		}
	}
	return results, nil
}

func (s *Suite) checkReachable(ctx context.Context) error {
	if s.Dial == nil {
		return errors.New("no dialer configured")
	}
	c, err := s.Dial(ctx)
	if err != nil {
		return err
	}
	return c.Close()
}

func (s *Suite) runOne(ctx context.Context, tracer trace.Tracer, sc Scenario) (Entry, error) {
	streams := 1
	if sc.Concurrent() {
		streams = sc.Workers
	}
	collectors := make([]*metrics.Collector, streams)
	recorders := make([]runner.Recorder, streams)
	for i := range collectors {
		collectors[i] = metrics.NewCollector()
		recorders[i] = collectors[i]
	}
	if s.Observer != nil {
		s.Observer.ScenarioStarted(sc, collectors)
	}
	// Rates are measured from here, not from when the collectors were built.
	for _, c := range collectors {
		c.Start()
	}

	ctx, span := tracing.StartScenarioSpan(ctx, tracer, sc.Group, sc.Label)
	entry := Entry{Group: sc.Group, Label: sc.Label}

	if sc.Concurrent() {
		res, err := s.Runner.RunConcurrent(ctx, runner.ConcurrentJob{
			Label:        sc.Label,
			Workers:      sc.Workers,
			OpsPerWorker: sc.OpsPerWorker,
			Factory:      sc.Factory,
			Recorders:    recorders,
		})
		tracing.EndSpan(span, err,
			attribute.Int("kvbench.successful", res.TotalSuccessful),
			attribute.Int("kvbench.errors", res.TotalErrors),
		)
		if err != nil {
			return Entry{}, err
		}
		entry.Concurrent = &res
		return entry, nil
	}

	res, err := s.Runner.Run(ctx, runner.Job{
		Label:      sc.Label,
		Generator:  sc.Generator,
		Iterations: sc.Iterations,
		Recorder:   recorders[0],
	})
	tracing.EndSpan(span, err,
		attribute.Int("kvbench.successful", res.SuccessfulOps),
		attribute.Int("kvbench.errors", res.Errors),
	)
	if err != nil {
		return Entry{}, err
	}
	entry.Run = &res
	return entry, nil
}
