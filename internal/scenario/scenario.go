// Package scenario defines the benchmark workloads and runs them in order
// against one target.
package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/torosent/kvbench/internal/config"
	"github.com/torosent/kvbench/internal/feeder"
	"github.com/torosent/kvbench/internal/generator"
)

// Scenario is one labelled workload. A scenario with Workers > 0 runs
// concurrently using Factory; otherwise it is a single stream using Generator.
type Scenario struct {
	Group      string
	Label      string
	Iterations int
	Generator  generator.Generator

	Workers      int
	OpsPerWorker int
	Factory      generator.Factory
}

// Concurrent reports whether the scenario runs several streams.
func (s Scenario) Concurrent() bool {
	return s.Workers > 0
}

// PlannedOps is the number of operations the scenario will attempt.
func (s Scenario) PlannedOps() int {
	if s.Concurrent() {
		return s.Workers * s.OpsPerWorker
	}
	return s.Iterations
}

// Params size the built-in groups.
type Params struct {
	Iterations   int
	Workers      int
	OpsPerWorker int
	Source       *generator.Source
	Custom       []config.CustomScenario
	Feeder       feeder.Feeder // optional, used by custom templates
}

// Build expands the selected groups, in the order given, into scenarios.
func Build(groups []string, p Params) ([]Scenario, error) {
	if p.Source == nil {
		p.Source = generator.NewSource(0)
	}

	var out []Scenario
	for _, g := range groups {
		switch g {
		case config.GroupBasic:
			out = append(out, Basic(p.Iterations, p.Source)...)
		case config.GroupList:
			out = append(out, List(p.Iterations, p.Source)...)
		case config.GroupPersistence:
			out = append(out, Persistence()...)
		case config.GroupMixed:
			out = append(out, Mixed(p.Iterations, p.Source))
		case config.GroupConcurrency:
			out = append(out, Concurrency(p.Workers, p.OpsPerWorker, p.Source))
		case config.GroupCustom:
			custom, err := Custom(p.Custom, p)
			if err != nil {
				return nil, err
			}
			out = append(out, custom...)
		default:
			return nil, fmt.Errorf("unknown scenario group %q", g)
		}
	}

	seen := make(map[string]string, len(out))
	for _, sc := range out {
		if prev, ok := seen[sc.Label]; ok {
			return nil, fmt.Errorf("scenario label %q defined by both %s and %s groups", sc.Label, prev, sc.Group)
		}
		seen[sc.Label] = sc.Group
	}
	return out, nil
}

// Basic covers the string commands.
func Basic(n int, src *generator.Source) []Scenario {
	return []Scenario{
		single(config.GroupBasic, "SET", n, func(i int) string {
			return "SET key_" + strconv.Itoa(i) + " " + src.Value()
		}),
		single(config.GroupBasic, "GET", n, func(i int) string {
			return "GET key_" + strconv.Itoa(mod(i, n))
		}),
		single(config.GroupBasic, "DEL", min(n, 500), generator.Format("DEL key_%d")),
		single(config.GroupBasic, "KEYS", min(50, n/20), generator.Constant("KEYS")),
		single(config.GroupBasic, "APP", n/10, func(i int) string {
			return "APP key_" + strconv.Itoa(i) + " " + src.String(5)
		}),
	}
}

// List covers the list commands.
func List(n int, src *generator.Source) []Scenario {
	return []Scenario{
		single(config.GroupList, "LSET", n, func(i int) string {
			return "LSET list_" + strconv.Itoa(i) + " " + strings.Join(src.Values(src.Intn(1, 5)), " ")
		}),
		single(config.GroupList, "LGET", n, func(i int) string {
			return "LGET list_" + strconv.Itoa(mod(i, n))
		}),
		single(config.GroupList, "LPUSH", n/2, func(i int) string {
			return "LPUSH push_list_" + strconv.Itoa(i%50) + " " + strings.Join(src.Values(3), " ")
		}),
		single(config.GroupList, "LDEL_INDEX", min(n, 500), func(i int) string {
			return fmt.Sprintf("LDEL list_%d %d", mod(i, n), src.Intn(0, 3))
		}),
		single(config.GroupList, "LDEL_FULL", min(n, 300), generator.Format("LDEL list_%d")),
		single(config.GroupList, "LKEYS", min(50, n/20), generator.Constant("LKEYS")),
	}
}

// Persistence covers snapshot save and restore.
func Persistence() []Scenario {
	return []Scenario{
		single(config.GroupPersistence, "STORE", 20, generator.Constant("STORE")),
		single(config.GroupPersistence, "LOAD", 20, generator.Constant("LOAD")),
	}
}

// Mixed picks uniformly among reads, writes and deletes on small key spaces.
func Mixed(n int, src *generator.Source) Scenario {
	key := func(prefix string, hi int) string {
		return prefix + strconv.Itoa(src.Intn(1, hi))
	}
	return single(config.GroupMixed, "MIXED_WORKLOAD", n, generator.Pick(src,
		func(int) string { return "SET " + key("mixed_", 100) + " " + src.Value() },
		func(int) string { return "GET " + key("mixed_", 100) },
		func(int) string { return "LSET " + key("mixed_list_", 50) + " " + src.Value() + " " + src.Value() },
		func(int) string { return "LGET " + key("mixed_list_", 50) },
		func(int) string { return "DEL " + key("mixed_", 100) },
	))
}

// Concurrency runs workers streams cycling through writes and reads of
// worker-private keys.
func Concurrency(workers, opsPerWorker int, src *generator.Source) Scenario {
	return Scenario{
		Group:        config.GroupConcurrency,
		Label:        "CONCURRENCY",
		Workers:      workers,
		OpsPerWorker: opsPerWorker,
		Factory: func(w int) generator.Generator {
			id := strconv.Itoa(w)
			return generator.Cycle(
				func(i int) string { return "SET worker_" + id + "_" + strconv.Itoa(i) + " value_" + strconv.Itoa(i) },
				func(i int) string { return "GET worker_" + id + "_" + strconv.Itoa(src.Intn(0, max(1, i))) },
				func(i int) string { return "LSET worker_list_" + id + "_" + strconv.Itoa(i) + " item1 item2" },
				func(i int) string { return "LGET worker_list_" + id + "_" + strconv.Itoa(src.Intn(0, max(1, i))) },
			)
		},
	}
}

// Custom compiles user-declared templates. Iterations default to the global
// count, or to the per-worker count for concurrent templates.
func Custom(defs []config.CustomScenario, p Params) ([]Scenario, error) {
	out := make([]Scenario, 0, len(defs))
	for idx, def := range defs {
		if strings.TrimSpace(def.Command) == "" {
			return nil, fmt.Errorf("custom scenario %d (%s): empty command", idx, def.Label)
		}
		factory := generator.Template(def.Command, p.Source, p.Feeder)
		if def.Workers > 0 {
			ops := def.Iterations
			if ops == 0 {
				ops = p.OpsPerWorker
			}
			out = append(out, Scenario{
				Group:        config.GroupCustom,
				Label:        def.Label,
				Workers:      def.Workers,
				OpsPerWorker: ops,
				Factory:      factory,
			})
			continue
		}
		n := def.Iterations
		if n == 0 {
			n = p.Iterations
		}
		out = append(out, single(config.GroupCustom, def.Label, n, factory(0)))
	}
	return out, nil
}

func single(group, label string, n int, gen generator.Generator) Scenario {
	return Scenario{Group: group, Label: label, Iterations: max(n, 0), Generator: gen}
}

// mod keeps key indices inside the populated range, or returns i when n is 0.
func mod(i, n int) int {
	if n <= 0 {
		return i
	}
	return i % n
}
