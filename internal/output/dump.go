package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/torosent/kvbench/internal/clientmetrics"
	"github.com/torosent/kvbench/internal/scenario"
	"github.com/torosent/kvbench/internal/stats"
)

// Dump is the machine-readable form of a suite run.
type Dump struct {
	RunID     string                  `json:"run_id" yaml:"run_id"`
	Target    string                  `json:"target" yaml:"target"`
	Started   time.Time               `json:"started" yaml:"started"`
	Finished  time.Time               `json:"finished" yaml:"finished"`
	Order     []string                `json:"order" yaml:"order"`
	Scenarios map[string]ScenarioDump `json:"scenarios" yaml:"scenarios"`
}

// ScenarioDump carries every aggregate field of one scenario.
type ScenarioDump struct {
	Group         string `json:"group" yaml:"group"`
	stats.Summary `yaml:",inline"`

	TransportErrors int                    `json:"transport_errors,omitempty" yaml:"transport_errors,omitempty"`
	LogicalErrors   int                    `json:"logical_errors,omitempty" yaml:"logical_errors,omitempty"`
	Workers         int                    `json:"workers,omitempty" yaml:"workers,omitempty"`
	OpsPerWorker    int                    `json:"ops_per_worker,omitempty" yaml:"ops_per_worker,omitempty"`
	PerWorker       []WorkerDump           `json:"per_worker,omitempty" yaml:"per_worker,omitempty"`
	Traffic         clientmetrics.Snapshot `json:"traffic" yaml:"traffic"`
}

// WorkerDump is the outcome of one concurrent worker.
type WorkerDump struct {
	WorkerID   int `json:"worker_id" yaml:"worker_id"`
	Successful int `json:"successful" yaml:"successful"`
	Errors     int `json:"errors" yaml:"errors"`
}

// NewDump converts suite results into their serialisable form.
func NewDump(res *scenario.Results) Dump {
	d := Dump{
		RunID:     res.RunID,
		Target:    res.Target,
		Started:   res.Started,
		Finished:  res.Finished,
		Order:     res.Labels(),
		Scenarios: make(map[string]ScenarioDump, res.Len()),
	}
	for _, e := range res.Entries() {
		sd := ScenarioDump{Group: e.Group, Summary: e.Summary()}
		switch {
		case e.Run != nil:
			sd.TransportErrors = e.Run.TransportErrors
			sd.LogicalErrors = e.Run.LogicalErrors
			sd.Traffic = e.Run.Traffic
		case e.Concurrent != nil:
			sd.Workers = e.Concurrent.Workers
			sd.OpsPerWorker = e.Concurrent.OpsPerWorker
			sd.Traffic = e.Concurrent.Traffic
			for _, w := range e.Concurrent.PerWorker {
				sd.PerWorker = append(sd.PerWorker, WorkerDump{WorkerID: w.WorkerID, Successful: w.Successful, Errors: w.Errors})
			}
		}
		d.Scenarios[e.Label] = sd
	}
	return d
}

// PrintJSON outputs the results as indented JSON.
func PrintJSON(w io.Writer, res *scenario.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDump(res))
}

// WriteResults writes the results to path as JSON or YAML, chosen by the file
// extension. The file is replaced while an exclusive lock on path+".lock" is
// held, so concurrent runs sharing an output path do not interleave.
func WriteResults(path string, res *scenario.Results) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(NewDump(res), "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(NewDump(res))
	default:
		return fmt.Errorf("unsupported output format %q (use .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
