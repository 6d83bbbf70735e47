// Package threshold evaluates pass/fail assertions against suite results.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/torosent/kvbench/internal/scenario"
	"github.com/torosent/kvbench/internal/stats"
)

// Wildcard selects every completed scenario.
const Wildcard = "*"

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Label     string  // scenario label, e.g. "GET", or Wildcard
	Aggregate string  // e.g. "p95", "avg", "ops", "success_rate"
	Operator  string  // e.g. "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // as written, for display
}

// Result represents the outcome of evaluating a threshold against one scenario.
type Result struct {
	Threshold Threshold
	Label     string // the scenario actually checked
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against suite results.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided results. A wildcard
// threshold yields one result per completed scenario.
func (e *Evaluator) Evaluate(res *scenario.Results) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		if t.Label == Wildcard {
			entries := res.Entries()
			if len(entries) == 0 {
				results = append(results, missing(t, t.Label))
			}
			for _, entry := range entries {
				results = append(results, evaluateOne(t, entry.Label, entry.Summary()))
			}
			continue
		}
		entry, ok := res.Get(t.Label)
		if !ok {
			results = append(results, missing(t, t.Label))
			continue
		}
		results = append(results, evaluateOne(t, entry.Label, entry.Summary()))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func missing(t Threshold, label string) Result {
	return Result{
		Threshold: t,
		Label:     label,
		Message:   fmt.Sprintf("✗ %s: no results for %s", t.Raw, label),
	}
}

func evaluateOne(t Threshold, label string, s stats.Summary) Result {
	actual, err := extractValue(t.Aggregate, s)
	if err != nil {
		return Result{
			Threshold: t,
			Label:     label,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s:%s: %.2f %s %.2f", status, label, t.Aggregate, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Label:     label,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

var pattern = regexp.MustCompile(`^([A-Za-z0-9_\-]+|\*):([a-z0-9_]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// aggregates maps each supported aggregate name to its summary field.
// Latencies are in milliseconds, ops is successful operations per second and
// success_rate is a percentage.
var aggregates = map[string]func(stats.Summary) float64{
	"avg":          func(s stats.Summary) float64 { return s.Avg },
	"min":          func(s stats.Summary) float64 { return s.Min },
	"max":          func(s stats.Summary) float64 { return s.Max },
	"p50":          func(s stats.Summary) float64 { return s.P50 },
	"p95":          func(s stats.Summary) float64 { return s.P95 },
	"p99":          func(s stats.Summary) float64 { return s.P99 },
	"ops":          func(s stats.Summary) float64 { return s.OpsPerSec },
	"success_rate": func(s stats.Summary) float64 { return s.SuccessRate },
	"errors":       func(s stats.Summary) float64 { return float64(s.Errors) },
}

var operators = []string{"<", "<=", ">", ">=", "=="}

// Parse reads one "LABEL:aggregate op value" assertion, for example
// "GET:p95 < 5", "*:success_rate >= 99.9" or "LPUSH:errors == 0".
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: label:aggregate operator value, e.g., 'GET:p95 < 5')", s)
	}
	label, aggregate, operator := m[1], m[2], m[3]

	value, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", m[4], err)
	}
	if _, ok := aggregates[aggregate]; !ok {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: %s)", aggregate, strings.Join(aggregateNames(), ", "))
	}
	if !slices.Contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: %s)", operator, strings.Join(operators, ", "))
	}

	return Threshold{
		Label:     label,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses every assertion and reports all malformed ones at once.
func ParseMultiple(raw []string) ([]Threshold, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make([]Threshold, 0, len(raw))
	var problems []string
	for i, s := range raw {
		t, err := Parse(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		out = append(out, t)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(problems, "; "))
	}
	return out, nil
}

func aggregateNames() []string {
	names := make([]string, 0, len(aggregates))
	for name := range aggregates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func extractValue(aggregate string, s stats.Summary) (float64, error) {
	get, ok := aggregates[aggregate]
	if !ok {
		return 0, fmt.Errorf("unsupported aggregate %q", aggregate)
	}
	return get(s), nil
}

const epsilon = 1e-9

func compareValues(actual float64, operator string, expected float64) bool {
	equal := math.Abs(actual-expected) < epsilon
	switch operator {
	case "<":
		return actual < expected && !equal
	case "<=":
		return actual < expected || equal
	case ">":
		return actual > expected && !equal
	case ">=":
		return actual > expected || equal
	case "==":
		return equal
	default:
		return false
	}
}
