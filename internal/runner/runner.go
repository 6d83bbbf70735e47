package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/kvbench/internal/clientmetrics"
	"github.com/torosent/kvbench/internal/generator"
)

// Recorder observes every operation of one stream as it completes.
// Failed operations are reported with a zero latency.
type Recorder interface {
	Record(latency time.Duration, err error)
}

// Job describes a single-stream run.
type Job struct {
	Label      string
	Generator  generator.Generator
	Iterations int
	Recorder   Recorder // optional
}

// Runner executes jobs with the configured dialer and pacing.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run executes job over one connection. When ctx is cancelled the loop stops,
// the connection is released and ctx.Err() is returned with the partial result.
func (r *Runner) Run(ctx context.Context, job Job) (RunResult, error) {
	if err := r.validate(job.Generator == nil, job.Iterations); err != nil {
		return RunResult{Label: job.Label}, err
	}

	start := time.Now()
	st := r.stream(ctx, job.Label, 0, job.Generator, job.Iterations, job.Recorder)
	res := RunResult{
		Label:           job.Label,
		TotalOps:        st.successful + st.transport + st.logical,
		SuccessfulOps:   st.successful,
		Errors:          st.transport + st.logical,
		TransportErrors: st.transport,
		LogicalErrors:   st.logical,
		WallTime:        time.Since(start),
		Samples:         st.samples,
		Traffic:         st.traffic,
	}
	return res, st.err
}

func (r *Runner) validate(noGenerator bool, iterations int) error {
	if r.opt.Dial == nil {
		return errors.New("runner: no dialer configured")
	}
	if noGenerator {
		return errors.New("runner: no command generator")
	}
	if iterations < 0 {
		return fmt.Errorf("runner: negative iteration count %d", iterations)
	}
	return nil
}

type streamResult struct {
	successful int
	transport  int
	logical    int
	samples    []float64
	traffic    clientmetrics.Snapshot
	err        error
}

// stream runs iterations operations over a freshly dialled connection.
func (r *Runner) stream(ctx context.Context, label string, workerID int, gen generator.Generator, iterations int, rec Recorder) streamResult {
	log := r.opt.Logger.With(zap.String("label", label), zap.Int("worker", workerID))

	c, err := r.opt.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return streamResult{err: ctx.Err()}
		}
		log.Warn("connect failed", zap.Error(err), zap.Int("skipped", iterations))
		st := failedStream(iterations, err, rec)
		st.traffic = clientmetrics.Snapshot{Errors: 1}
		return st
	}

	var res streamResult
	defer func() {
		if cerr := c.Close(); cerr != nil {
			log.Debug("close failed", zap.Error(cerr))
		}
	}()

	limiter := r.opt.LimiterFactory(r.opt.RatePerSecond)
	res.samples = make([]float64, 0, iterations)
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			res.err = err
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			res.err = ctxErrOr(ctx, err)
			break
		}

		out := r.do(ctx, c, gen, i)
		if out.Kind == TransportError && ctx.Err() != nil {
			// Interrupted mid-flight; not an outcome of the target.
			res.err = ctx.Err()
			break
		}
		if rec != nil {
			rec.Record(out.Latency, out.Cause())
		}

		switch out.Kind {
		case Success:
			res.successful++
			res.samples = append(res.samples, durationMs(out.Latency))
		case TransportError:
			res.transport++
			log.Debug("operation failed", zap.Int("iteration", i), zap.Stringer("kind", out.Kind), zap.Error(out.Err))
		case LogicalError:
			res.logical++
			log.Debug("operation failed", zap.Int("iteration", i), zap.Stringer("kind", out.Kind), zap.String("response", out.Response))
		}
	}

	if tr, ok := c.(trafficReporter); ok {
		res.traffic = tr.Traffic()
	}
	return res
}

// failedStream accounts every planned operation of a stream that never started.
func failedStream(iterations int, cause error, rec Recorder) streamResult {
	if rec != nil {
		for i := 0; i < iterations; i++ {
			rec.Record(0, cause)
		}
	}
	return streamResult{transport: iterations}
}

// do performs one timed round trip. A panicking generator or connection is
// converted into a failed outcome for that iteration.
func (r *Runner) do(ctx context.Context, c Connection, gen generator.Generator, i int) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = Outcome{Kind: TransportError, Err: fmt.Errorf("iteration %d: %v", i, p)}
		}
	}()

	command := gen(i)
	begin := time.Now()
	response, err := c.Send(ctx, command)
	elapsed := time.Since(begin)
	return Classify(response, err, elapsed, r.opt.ErrorPrefixes)
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func ctxErrOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
