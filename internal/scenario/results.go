package scenario

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/kvbench/internal/runner"
	"github.com/torosent/kvbench/internal/stats"
)

// Entry is the outcome of one completed scenario. Exactly one of Run and
// Concurrent is set.
type Entry struct {
	Group      string
	Label      string
	Run        *runner.RunResult
	Concurrent *runner.CombinedResult
}

// Summary returns the statistics of the entry.
func (e Entry) Summary() stats.Summary {
	if e.Concurrent != nil {
		return e.Concurrent.Summary()
	}
	if e.Run != nil {
		return e.Run.Summary()
	}
	return stats.Summary{}
}

// Results holds every scenario completed during one suite run, in
// execution order. It is filled by the suite and read-only afterwards.
type Results struct {
	RunID    string
	Target   string
	Started  time.Time
	Finished time.Time

	entries []Entry
	index   map[string]int
}

// NewResults starts an empty result set for target.
func NewResults(target string) *Results {
	return &Results{
		RunID:   ulid.Make().String(),
		Target:  target,
		Started: time.Now(),
		index:   map[string]int{},
	}
}

// Add appends a completed scenario. A repeated label replaces the earlier entry.
func (r *Results) Add(e Entry) {
	if i, ok := r.index[e.Label]; ok {
		r.entries[i] = e
		return
	}
	r.index[e.Label] = len(r.entries)
	r.entries = append(r.entries, e)
}

// Len returns the number of completed scenarios.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Entries returns every entry in execution order.
func (r *Results) Entries() []Entry {
	if r == nil {
		return nil
	}
	return append([]Entry(nil), r.entries...)
}

// Labels returns the scenario labels in execution order.
func (r *Results) Labels() []string {
	if r == nil {
		return nil
	}
	labels := make([]string, len(r.entries))
	for i, e := range r.entries {
		labels[i] = e.Label
	}
	return labels
}

// Get looks an entry up by label.
func (r *Results) Get(label string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	i, ok := r.index[label]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Runs returns the single-stream entries, which make up the summary table.
func (r *Results) Runs() []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Run != nil {
			out = append(out, e)
		}
	}
	return out
}

// Best returns the single-stream entry with the highest throughput.
// Ties keep the earliest entry.
func (r *Results) Best() (Entry, bool) {
	return r.pick(func(a, b float64) bool { return a > b })
}

// Worst returns the single-stream entry with the lowest throughput.
func (r *Results) Worst() (Entry, bool) {
	return r.pick(func(a, b float64) bool { return a < b })
}

func (r *Results) pick(better func(a, b float64) bool) (Entry, bool) {
	runs := r.Runs()
	if len(runs) == 0 {
		return Entry{}, false
	}
	best, bestOps := runs[0], runs[0].Summary().OpsPerSec
	for _, e := range runs[1:] {
		if ops := e.Summary().OpsPerSec; better(ops, bestOps) {
			best, bestOps = e, ops
		}
	}
	return best, true
}

// Elapsed returns the wall time of the suite, or the time so far when it
// has not finished.
func (r *Results) Elapsed() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}
