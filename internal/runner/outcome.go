package runner

import (
	"fmt"
	"strings"
	"time"
)

// OutcomeKind tags the result of one operation.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	TransportError
	LogicalError
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case TransportError:
		return "transport_error"
	case LogicalError:
		return "logical_error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is decided once per operation and then folded into counts.
type Outcome struct {
	Kind     OutcomeKind
	Latency  time.Duration // set for Success only
	Err      error         // set for TransportError only
	Response string        // set for LogicalError only
}

// ResponseError is the error form of a logical failure.
type ResponseError struct {
	Response string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("service error: %s", e.Response)
}

// Classify turns the raw result of a round trip into an Outcome.
// A transport error always wins over the response text.
func Classify(response string, err error, latency time.Duration, prefixes []string) Outcome {
	if err != nil {
		return Outcome{Kind: TransportError, Err: err}
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(response, p) {
			return Outcome{Kind: LogicalError, Response: response}
		}
	}
	return Outcome{Kind: Success, Latency: latency}
}

// Failed reports whether the operation counts as an error.
func (o Outcome) Failed() bool {
	return o.Kind != Success
}

// Cause returns the failure as an error, or nil for a success.
func (o Outcome) Cause() error {
	switch o.Kind {
	case TransportError:
		return o.Err
	case LogicalError:
		return &ResponseError{Response: o.Response}
	default:
		return nil
	}
}
