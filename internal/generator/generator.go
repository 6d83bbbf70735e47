// Package generator builds the command sequences a benchmark sends.
//
// A [Generator] maps an iteration index to the command text for that iteration.
// Generators are called from exactly one stream; any randomness comes from a
// shared [Source], which is safe for concurrent use.
package generator

import "fmt"

// Generator returns the command for iteration i.
type Generator func(i int) string

// Factory builds the generator for one concurrent worker.
type Factory func(workerID int) Generator

// Constant returns a generator that always yields command.
func Constant(command string) Generator {
	return func(int) string { return command }
}

// Cycle returns a generator that walks gens round-robin by iteration index.
func Cycle(gens ...Generator) Generator {
	if len(gens) == 0 {
		return Constant("")
	}
	return func(i int) string {
		return gens[i%len(gens)](i)
	}
}

// Pick returns a generator that chooses one of gens at random for every call.
func Pick(src *Source, gens ...Generator) Generator {
	if len(gens) == 0 {
		return Constant("")
	}
	return func(i int) string {
		return gens[src.Intn(0, len(gens)-1)](i)
	}
}

// Format returns a generator producing fmt.Sprintf(format, i).
func Format(format string) Generator {
	return func(i int) string { return fmt.Sprintf(format, i) }
}
