// Package metrics tracks live progress of a running benchmark.
//
// Each stream (a single-stream run or one concurrent worker) owns its own
// [Collector]; collectors are never shared between workers. A progress
// reporter reads them while the run is in flight:
//
//	col := metrics.NewCollector()
//	col.Record(latency, err) // called by the owning stream only
//
//	snap := metrics.Merge(workerCollectors...)
//	fmt.Printf("%d done, p99 ~%.2fms\n", snap.Total, snap.P99LatencyMs)
//
// Latencies are kept in an HDR histogram (1µs to 60s, 3 significant figures),
// so snapshot percentiles are approximations intended for progress display.
// Reported statistics are computed exactly from the run's samples by package stats.
package metrics
