package generator_test

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/torosent/kvbench/internal/feeder"
	"github.com/torosent/kvbench/internal/generator"
)

func TestSourceString(t *testing.T) {
	src := generator.NewSource(42)
	s := src.String(20)
	if len(s) != 20 {
		t.Fatalf("len = %d, want 20", len(s))
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			t.Fatalf("unexpected rune %q in %q", r, s)
		}
	}
	if src.String(0) != "" {
		t.Fatalf("String(0) should be empty")
	}
}

func TestSourceIntnBounds(t *testing.T) {
	src := generator.NewSource(7)
	for i := 0; i < 1000; i++ {
		n := src.Intn(3, 5)
		if n < 3 || n > 5 {
			t.Fatalf("Intn(3,5) = %d", n)
		}
	}
	if got := src.Intn(4, 4); got != 4 {
		t.Fatalf("Intn(4,4) = %d", got)
	}
}

func TestSourceValueShapes(t *testing.T) {
	src := generator.NewSource(1)
	for i := 0; i < 200; i++ {
		v := src.Value()
		if v == "" || strings.ContainsAny(v, " \n\r") {
			t.Fatalf("value %q is not a single token", v)
		}
		switch {
		case len(v) == 8, len(v) == 100:
		case strings.Contains(v, "_"):
			parts := strings.SplitN(v, "_", 2)
			if len(parts[0]) != 5 {
				t.Fatalf("mixed value prefix %q", v)
			}
		default:
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 10000 {
				t.Fatalf("numeric value %q out of range", v)
			}
		}
	}
}

func TestSourceConcurrentUse(t *testing.T) {
	src := generator.NewSource(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = src.Value()
			}
		}()
	}
	wg.Wait()
}

func TestCycleAndFormat(t *testing.T) {
	g := generator.Cycle(generator.Format("SET k_%d v"), generator.Constant("KEYS"))
	if got := g(0); got != "SET k_0 v" {
		t.Fatalf("g(0) = %q", got)
	}
	if got := g(1); got != "KEYS" {
		t.Fatalf("g(1) = %q", got)
	}
	if got := g(4); got != "SET k_4 v" {
		t.Fatalf("g(4) = %q", got)
	}
}

func TestPickChoosesFromSet(t *testing.T) {
	src := generator.NewSource(3)
	g := generator.Pick(src, generator.Constant("A"), generator.Constant("B"))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[g(i)] = true
	}
	if !seen["A"] || !seen["B"] || len(seen) != 2 {
		t.Fatalf("unexpected picks: %v", seen)
	}
}

func TestTemplatePlaceholders(t *testing.T) {
	src := generator.NewSource(9)
	factory := generator.Template("SET w{{worker}}_k{{i}} {{string:4}} {{unknown}}", src, nil)

	cmd := factory(2)(17)
	fields := strings.Fields(cmd)
	if len(fields) != 4 {
		t.Fatalf("command %q has %d fields", cmd, len(fields))
	}
	if fields[1] != "w2_k17" {
		t.Fatalf("key = %q, want w2_k17", fields[1])
	}
	if len(fields[2]) != 4 {
		t.Fatalf("string:4 expanded to %q", fields[2])
	}
	if fields[3] != "{{unknown}}" {
		t.Fatalf("unknown placeholder should be kept, got %q", fields[3])
	}
}

func TestTemplateUsesFeederRecords(t *testing.T) {
	ds, err := feeder.NewDataset([]feeder.Record{{"key": "a"}, {"key": "b"}})
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}
	g := generator.Template("GET {{key}}", generator.NewSource(1), ds)(0)

	got := []string{g(0), g(1), g(2)}
	want := []string{"GET a", "GET b", "GET a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}
