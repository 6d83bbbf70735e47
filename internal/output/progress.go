package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/torosent/kvbench/internal/metrics"
	"github.com/torosent/kvbench/internal/scenario"
)

// ProgressReporter redraws a single status line for the scenario in flight.
// It implements scenario.Observer.
type ProgressReporter struct {
	interval time.Duration
	writer   io.Writer

	mu         sync.Mutex
	label      string
	planned    int
	collectors []*metrics.Collector
	done       chan struct{}
	finished   chan struct{}
	width      int
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &ProgressReporter{
		interval: interval,
		writer:   writer,
	}
}

// ScenarioStarted begins redrawing the line for sc from its collectors.
func (p *ProgressReporter) ScenarioStarted(sc scenario.Scenario, collectors []*metrics.Collector) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = sc.Label
	p.planned = sc.PlannedOps()
	p.collectors = collectors
	p.done = make(chan struct{})
	p.finished = make(chan struct{})
	go p.run(p.done, p.finished)
}

// ScenarioDone stops the updates and clears the line.
func (p *ProgressReporter) ScenarioDone(scenario.Entry) {
	p.Stop()
}

// Stop halts progress updates and clears the line. It is safe to call when
// no scenario is running.
func (p *ProgressReporter) Stop() {
	p.mu.Lock()
	done, finished := p.done, p.finished
	p.done, p.finished = nil, nil
	p.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-finished

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.width > 0 {
		fmt.Fprint(p.writer, "\r"+strings.Repeat(" ", p.width)+"\r")
		p.width = 0
	}
}

func (p *ProgressReporter) run(done <-chan struct{}, finished chan<- struct{}) {
	defer close(finished)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			line := p.line()
			fmt.Fprint(p.writer, "\r"+line)
			p.width = max(p.width, len(line))
			p.mu.Unlock()
		case <-done:
			return
		}
	}
}

// line renders the current status. Callers hold p.mu.
func (p *ProgressReporter) line() string {
	snap := metrics.Merge(p.collectors...)
	pct := 0.0
	if p.planned > 0 {
		pct = float64(snap.Total) / float64(p.planned) * 100
	}
	return fmt.Sprintf("%s: %3.0f%% [%d/%d] | Errors: %d | RPS: %.1f | P99≈%.2fms",
		p.label, pct, snap.Total, p.planned, snap.Failures, snap.RequestsPerSec, snap.P99LatencyMs)
}
