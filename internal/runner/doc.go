// Package runner executes command streams against the target service and
// records how each operation went.
//
// A stream owns exactly one connection. [Runner.Run] drives a single stream
// for a fixed number of iterations; [Runner.RunConcurrent] starts one stream
// per worker and folds the per-worker results once every worker has returned.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		Dial:          runner.TCPDialer("localhost:5555", 5*time.Second),
//		RatePerSecond: 200,
//	})
//	res, err := r.Run(ctx, runner.Job{
//		Label:      "SET",
//		Iterations: 1000,
//		Generator:  generator.Format("SET key_%d v"),
//	})
//
// # Outcomes
//
// Every round trip is classified once into an [Outcome]: a success with its
// latency, a transport error (dial, write, read, timeout) or a logical error
// (the service answered with a recognised error prefix such as "ERR").
// Only successes contribute latency samples. Both failure kinds count as errors.
//
// # Timing
//
// The per-operation timer wraps the send/receive round trip and nothing else.
// Rate limiter waits and command synthesis happen outside it. The wall time of
// a run is measured separately and includes connection setup.
package runner
