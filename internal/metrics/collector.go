package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	lowestLatencyUs  = 1
	highestLatencyUs = 60_000_000
	sigFigs          = 3
)

// Collector records the outcome of every operation of one stream.
type Collector struct {
	mu        sync.Mutex
	hist      *hdrhistogram.Histogram
	successes int64
	failures  int64
	start     time.Time
}

// Snapshot is a point-in-time view of one or more collectors.
type Snapshot struct {
	Total          int64
	Successes      int64
	Failures       int64
	P50LatencyMs   float64
	P99LatencyMs   float64
	Elapsed        time.Duration
	RequestsPerSec float64
}

func NewCollector() *Collector {
	return &Collector{
		hist:  newHistogram(),
		start: time.Now(),
	}
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(lowestLatencyUs, highestLatencyUs, sigFigs)
}

// Start resets the clock used for the snapshot rate.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Record records a single operation. Failed operations carry no latency.
func (c *Collector) Record(latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.failures++
		return
	}
	c.successes++
	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
}

// Snapshot returns the current state of this collector.
func (c *Collector) Snapshot() Snapshot {
	return Merge(c)
}

// Merge folds several collectors into one snapshot. The result does not depend
// on argument order. Nil collectors are skipped.
func Merge(collectors ...*Collector) Snapshot {
	hist := newHistogram()
	var snap Snapshot
	var start time.Time
	for _, c := range collectors {
		if c == nil {
			continue
		}
		c.mu.Lock()
		snap.Successes += c.successes
		snap.Failures += c.failures
		_ = hist.Merge(c.hist)
		if start.IsZero() || c.start.Before(start) {
			start = c.start
		}
		c.mu.Unlock()
	}
	snap.Total = snap.Successes + snap.Failures
	if hist.TotalCount() > 0 {
		snap.P50LatencyMs = usToMs(hist.ValueAtQuantile(50))
		snap.P99LatencyMs = usToMs(hist.ValueAtQuantile(99))
	}
	if !start.IsZero() {
		snap.Elapsed = time.Since(start)
		if secs := snap.Elapsed.Seconds(); secs > 0 {
			snap.RequestsPerSec = float64(snap.Successes) / secs
		}
	}
	return snap
}

func usToMs(us int64) float64 {
	return float64(us) / 1000
}
