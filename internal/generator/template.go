package generator

import (
	"context"
	"regexp"
	"strconv"

	"github.com/torosent/kvbench/internal/feeder"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)(?::([0-9]+))?\s*\}\}`)

// Template compiles a command template into a worker-aware factory.
//
// Recognised placeholders:
//
//	{{i}}         iteration index
//	{{worker}}    worker id (0 for single-stream runs)
//	{{value}}     random value, see Source.Value
//	{{string}}    10 random alphanumerics; {{string:N}} for N characters
//	{{number}}    random integer in [1, 10000]; {{number:N}} for [1, N]
//	{{field}}     column of the next feeder record, when feed is set
//
// Unknown placeholders are left as they are.
func Template(text string, src *Source, feed feeder.Feeder) Factory {
	return func(workerID int) Generator {
		return func(i int) string {
			var record feeder.Record
			if feed != nil {
				// Feeders loop forever, so Next only fails on cancellation.
				record, _ = feed.Next(context.Background())
			}
			return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
				parts := placeholderPattern.FindStringSubmatch(match)
				name, arg := parts[1], parts[2]
				switch name {
				case "i":
					return strconv.Itoa(i)
				case "worker":
					return strconv.Itoa(workerID)
				case "value":
					return src.Value()
				case "string":
					return src.String(atoiDefault(arg, 10))
				case "number":
					return strconv.Itoa(src.Intn(1, atoiDefault(arg, 10000)))
				}
				if v, ok := record[name]; ok {
					return v
				}
				return match
			})
		}
	}
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
