package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/kvbench/internal/generator"
	"github.com/torosent/kvbench/internal/tracing"
)

// ConcurrentJob describes a run of several independent streams.
type ConcurrentJob struct {
	Label        string
	Workers      int
	OpsPerWorker int
	Factory      generator.Factory
	Recorders    []Recorder // optional, indexed by worker id
}

// RunConcurrent starts exactly job.Workers streams, each with its own
// connection and generator, and blocks until all of them have returned.
// A worker that cannot connect reports every planned operation as an error.
func (r *Runner) RunConcurrent(ctx context.Context, job ConcurrentJob) (CombinedResult, error) {
	combined := CombinedResult{
		Label:        job.Label,
		Workers:      job.Workers,
		OpsPerWorker: job.OpsPerWorker,
	}
	if err := r.validate(job.Factory == nil, job.OpsPerWorker); err != nil {
		return combined, err
	}
	if job.Workers <= 0 {
		return combined, fmt.Errorf("runner: worker count must be positive, got %d", job.Workers)
	}

	results := make(chan WorkerResult, job.Workers)
	g, gctx := errgroup.WithContext(ctx)

	start := time.Now()
	for w := 0; w < job.Workers; w++ {
		w := w
		g.Go(func() error {
			wctx, span := tracing.StartWorkerSpan(gctx, r.opt.Tracer, job.Label, w)
			rec := recorderAt(job.Recorders, w)
			var st streamResult
			if gen, ferr := buildGenerator(job.Factory, w); ferr != nil {
				r.opt.Logger.Warn("worker generator failed", zap.String("label", job.Label), zap.Int("worker", w), zap.Error(ferr))
				st = failedStream(job.OpsPerWorker, ferr, rec)
			} else {
				st = r.stream(wctx, job.Label, w, gen, job.OpsPerWorker, rec)
			}
			tracing.EndSpan(span, st.err,
				attribute.Int("kvbench.successful", st.successful),
				attribute.Int("kvbench.errors", st.transport+st.logical),
			)
			if st.err != nil {
				return st.err
			}
			results <- WorkerResult{
				WorkerID:   w,
				Successful: st.successful,
				Errors:     st.transport + st.logical,
				Samples:    st.samples,
				Traffic:    st.traffic,
			}
			return nil
		})
	}

	err := g.Wait()
	combined.WallTime = time.Since(start)
	close(results)

	for wr := range results {
		combined.TotalSuccessful += wr.Successful
		combined.TotalErrors += wr.Errors
		combined.Traffic = combined.Traffic.Add(wr.Traffic)
		combined.PerWorker = append(combined.PerWorker, wr)
	}
	if err != nil {
		if ctx.Err() != nil {
			return combined, ctx.Err()
		}
		return combined, errors.Join(errors.New("runner: concurrent run aborted"), err)
	}
	return combined, nil
}

// buildGenerator calls factory for one worker, turning a panic into an error.
func buildGenerator(factory generator.Factory, workerID int) (gen generator.Generator, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker %d: generator factory panicked: %v", workerID, p)
		}
	}()
	return factory(workerID), nil
}

func recorderAt(recs []Recorder, i int) Recorder {
	if i < len(recs) {
		return recs[i]
	}
	return nil
}
