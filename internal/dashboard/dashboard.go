// Package dashboard renders a live terminal view of a benchmark suite.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/kvbench/internal/metrics"
	"github.com/torosent/kvbench/internal/scenario"
)

const (
	refreshInterval = 500 * time.Millisecond
	historySize     = 100
	maxCompleted    = 20
)

// RunConfig holds suite parameters for display.
type RunConfig struct {
	Target       string
	Iterations   int
	Workers      int
	OpsPerWorker int
	Rate         int
	Timeout      time.Duration
	Groups       []string
	Scenarios    int // number of scenarios planned
	ConfigFile   string
}

// Dashboard renders a live terminal UI for the suite. It implements
// scenario.Observer.
type Dashboard struct {
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid           *ui.Grid
	summaryPara    *widgets.Paragraph
	progressGauge  *widgets.Gauge
	suiteGauge     *widgets.Gauge
	latencySparkle *widgets.SparklineGroup
	metricsPara    *widgets.Paragraph
	completedList  *widgets.List

	// State
	cfg            RunConfig
	startTime      time.Time
	label          string
	planned        int
	collectors     []*metrics.Collector
	done           int
	completedRows  []string
	latencyHistory []float64
}

// New initialises the terminal and creates a Dashboard. shutdownFunc is
// called when the user presses q or Ctrl-C.
func New(cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}
	d := newDashboard(cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

// newDashboard builds the widgets without touching the terminal.
func newDashboard(cfg RunConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		cfg:            cfg,
		startTime:      time.Now(),
		latencyHistory: make([]float64, 0, historySize),
	}
	d.initWidgets()
	return d
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Benchmark"
	d.summaryPara.Text = "Connecting..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Scenario"
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.suiteGauge = widgets.NewGauge()
	d.suiteGauge.Title = "Suite"
	d.suiteGauge.BarColor = ui.ColorGreen
	d.suiteGauge.BorderStyle.Fg = ui.ColorCyan
	d.suiteGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	sparkline := widgets.NewSparkline()
	sparkline.Title = "P99 (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}
	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Current Scenario"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan

	d.completedList = widgets.NewList()
	d.completedList.Title = "Completed"
	d.completedList.Rows = []string{"[No scenarios completed yet](fg:green)"}
	d.completedList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.completedList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(0.5, d.progressGauge),
			ui.NewCol(0.5, d.suiteGauge),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.6, d.latencySparkle),
			ui.NewCol(0.4, d.metricsPara),
		),
		ui.NewRow(0.40,
			ui.NewCol(1.0, d.completedList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
}

// ScenarioStarted switches the live panels to sc.
func (d *Dashboard) ScenarioStarted(sc scenario.Scenario, collectors []*metrics.Collector) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.label = sc.Label
	d.planned = sc.PlannedOps()
	d.collectors = collectors
	d.latencyHistory = d.latencyHistory[:0]
}

// ScenarioDone appends the finished scenario to the completed list.
func (d *Dashboard) ScenarioDone(e scenario.Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.done++
	if len(d.completedRows) >= maxCompleted {
		d.completedRows = d.completedRows[1:]
	}
	d.completedRows = append(d.completedRows, formatCompletedRow(e))
	d.completedList.Rows = d.completedRows
}

func (d *Dashboard) run() {
	defer d.wg.Done()
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes widget data from the live collectors.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	current := d.label
	if current == "" {
		current = "-"
	}
	d.summaryPara.Text = fmt.Sprintf("Target: %s\n%s\nElapsed: %s | Running: %s",
		d.cfg.Target, formatParams(d.cfg), elapsed.Round(time.Second), current)

	d.suiteGauge.Percent = percent(d.done, d.cfg.Scenarios)
	d.suiteGauge.Label = fmt.Sprintf("%d/%d scenarios", d.done, d.cfg.Scenarios)

	if d.collectors == nil {
		return
	}
	snap := metrics.Merge(d.collectors...)

	d.progressGauge.Title = "Scenario " + d.label
	d.progressGauge.Percent = percent(int(snap.Total), d.planned)
	d.progressGauge.Label = fmt.Sprintf("%d/%d ops", snap.Total, d.planned)

	if snap.Successes > 0 {
		d.latencyHistory = append(d.latencyHistory, snap.P99LatencyMs)
		if len(d.latencyHistory) > historySize {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf("Latency | P50: %.2fms | P99: %.2fms", snap.P50LatencyMs, snap.P99LatencyMs)
	}

	d.metricsPara.Text = formatSnapshot(d.label, len(d.collectors), snap)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	ui.Render(d.grid)
}

func formatSnapshot(label string, streams int, snap metrics.Snapshot) string {
	return fmt.Sprintf(
		"Scenario:     %s\nStreams:      %d\nOperations:   %d\nSuccessful:   %d\nFailed:       %d\nOps/sec:      %.1f\nP50/P99:      %.2f / %.2f ms",
		label,
		streams,
		snap.Total,
		snap.Successes,
		snap.Failures,
		snap.RequestsPerSec,
		snap.P50LatencyMs,
		snap.P99LatencyMs,
	)
}

func formatCompletedRow(e scenario.Entry) string {
	s := e.Summary()
	color := "green"
	if s.Errors > 0 {
		color = "red"
	}
	return fmt.Sprintf("[%-16s](fg:cyan) | %9.0f ops/s | avg %7.3fms | p95 %7.3fms | [%6.2f%%](fg:%s)",
		e.Label, s.OpsPerSec, s.Avg, s.P95, s.SuccessRate, color)
}

// formatParams formats the suite parameters for display.
func formatParams(cfg RunConfig) string {
	var parts []string

	if len(cfg.Groups) > 0 {
		parts = append(parts, "Groups: "+strings.Join(cfg.Groups, ","))
	}
	if cfg.Iterations > 0 {
		parts = append(parts, fmt.Sprintf("Iterations: %d", cfg.Iterations))
	}
	if cfg.Workers > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d x %d", cfg.Workers, cfg.OpsPerWorker))
	}
	if cfg.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", cfg.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if cfg.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", cfg.Timeout))
	}
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.ConfigFile))
	}
	return strings.Join(parts, " | ")
}

func percent(n, of int) int {
	if of <= 0 {
		return 0
	}
	p := n * 100 / of
	if p > 100 {
		return 100
	}
	return p
}
