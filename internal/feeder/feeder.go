// Package feeder supplies data sets for templated commands.
//
// A data set is loaded once from a CSV or JSON file and handed out record by
// record in round-robin order; after the last record it starts over.
package feeder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Record represents a single row of data with named fields.
type Record map[string]string

// Feeder provides per-command data. Implementations must be safe for concurrent use.
type Feeder interface {
	// Next returns the next record in round-robin order.
	Next(ctx context.Context) (Record, error)

	// Close releases any resources held by the feeder.
	Close() error

	// Len returns the total number of records in the dataset.
	Len() int
}

// ErrEmpty is returned when a data file holds no records.
var ErrEmpty = errors.New("feeder: data set has no records")

// Dataset is an in-memory Feeder.
type Dataset struct {
	mu      sync.Mutex
	records []Record
	next    int
}

// NewDataset wraps records in a round-robin Feeder.
func NewDataset(records []Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return &Dataset{records: records}, nil
}

// Next returns the next record, wrapping around at the end of the data set.
func (d *Dataset) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.records[d.next]
	d.next = (d.next + 1) % len(d.records)
	return rec, nil
}

// Close is a no-op for in-memory data sets.
func (d *Dataset) Close() error { return nil }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Load reads a data set from path. kind is "csv" or "json"; when empty it is
// taken from the file extension.
func Load(path, kind string) (*Dataset, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch kind {
	case "csv":
		return LoadCSV(path)
	case "json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("feeder: unsupported data set type %q (use csv or json)", kind)
	}
}
