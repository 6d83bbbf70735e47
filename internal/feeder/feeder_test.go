package feeder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestCSVLoadAndRoundRobin(t *testing.T) {
	path := writeFile(t, "keys.csv", `key,value
alpha,1
beta,2
gamma,3`)

	ds, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	defer ds.Close()

	if ds.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ds.Len())
	}

	ctx := context.Background()
	want := []string{"alpha", "beta", "gamma", "alpha"}
	for i, key := range want {
		rec, err := ds.Next(ctx)
		if err != nil {
			t.Fatalf("Next() #%d error = %v", i, err)
		}
		if rec["key"] != key {
			t.Errorf("Next() #%d key = %q, want %q", i, rec["key"], key)
		}
	}
}

func TestJSONLoadConvertsScalars(t *testing.T) {
	path := writeFile(t, "items.json", `[
		{"key": "k1", "size": 10},
		{"key": "k2", "size": 20.5}
	]`)

	ds, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}

	rec, _ := ds.Next(context.Background())
	if rec["key"] != "k1" || rec["size"] != "10" {
		t.Errorf("first record = %v", rec)
	}
	rec, _ = ds.Next(context.Background())
	if rec["size"] != "20.5" {
		t.Errorf("second record size = %q, want 20.5", rec["size"])
	}
}

func TestLoadPicksTypeFromExtension(t *testing.T) {
	csvPath := writeFile(t, "data.csv", "a,b\n1,2")
	if _, err := Load(csvPath, ""); err != nil {
		t.Fatalf("Load(csv) error = %v", err)
	}

	jsonPath := writeFile(t, "data.txt", `[{"a":"1"}]`)
	if _, err := Load(jsonPath, "json"); err != nil {
		t.Fatalf("Load(explicit json) error = %v", err)
	}

	if _, err := Load(jsonPath, ""); err == nil {
		t.Fatal("Load(.txt) error = nil, want unsupported type")
	}
}

func TestDatasetConcurrentAccess(t *testing.T) {
	var rows []string
	rows = append(rows, "id,value")
	for i := 1; i <= 100; i++ {
		rows = append(rows, fmt.Sprintf("%d,value-%d", i, i))
	}
	path := writeFile(t, "concurrent.csv", strings.Join(rows, "\n"))

	ds, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}

	const numGoroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := ds.Next(context.Background())
			if err != nil {
				t.Errorf("Next() error = %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[rec["id"]] {
				t.Errorf("duplicate record id %s", rec["id"])
			}
			seen[rec["id"]] = true
		}()
	}
	wg.Wait()

	if len(seen) != numGoroutines {
		t.Errorf("got %d distinct records, want %d", len(seen), numGoroutines)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := LoadCSV("/nonexistent/path/file.csv"); err == nil {
		t.Error("LoadCSV() with missing file error = nil")
	}

	empty := writeFile(t, "empty.csv", "")
	if _, err := LoadCSV(empty); !errors.Is(err, ErrEmpty) {
		t.Errorf("LoadCSV(empty) error = %v, want ErrEmpty", err)
	}

	ragged := writeFile(t, "ragged.csv", "a,b\n1")
	if _, err := LoadCSV(ragged); err == nil {
		t.Error("LoadCSV(ragged) error = nil")
	}

	invalid := writeFile(t, "invalid.json", `{invalid json`)
	if _, err := LoadJSON(invalid); err == nil {
		t.Error("LoadJSON(invalid) error = nil")
	}

	emptyArray := writeFile(t, "empty.json", `[]`)
	if _, err := LoadJSON(emptyArray); !errors.Is(err, ErrEmpty) {
		t.Errorf("LoadJSON([]) error = %v, want ErrEmpty", err)
	}
}

func TestDatasetContextCancellation(t *testing.T) {
	ds, err := NewDataset([]Record{{"id": "1"}})
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ds.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() with cancelled context error = %v, want context.Canceled", err)
	}
}
