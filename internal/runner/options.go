package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/kvbench/internal/clientmetrics"
	"github.com/torosent/kvbench/internal/conn"
)

// DefaultErrorPrefixes mark a response as a service-side failure.
var DefaultErrorPrefixes = []string{"ERROR", "ERR"}

// Connection abstracts one exclusively owned session with the target.
type Connection interface {
	Send(ctx context.Context, command string) (string, error)
	Close() error
}

// trafficReporter is implemented by connections that count their own traffic.
type trafficReporter interface {
	Traffic() clientmetrics.Snapshot
}

// Dialer opens a new Connection. It is called once per stream.
type Dialer func(ctx context.Context) (Connection, error)

// TCPDialer dials addr with the line protocol client.
func TCPDialer(addr string, timeout time.Duration) Dialer {
	return func(ctx context.Context) (Connection, error) {
		c, err := conn.Dial(ctx, conn.Options{Addr: addr, Timeout: timeout})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Options configure the Runner.
type Options struct {
	Dial           Dialer                      // connection factory (required)
	ErrorPrefixes  []string                    // response prefixes counted as logical errors
	RatePerSecond  int                         // per-stream pacing (0 means unlimited)
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	Logger         *zap.Logger                 // failure logging; nop when nil
	Tracer         trace.Tracer                // worker spans; nop when nil
}

func (o *Options) normalize() {
	if o.ErrorPrefixes == nil {
		o.ErrorPrefixes = DefaultErrorPrefixes
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("kvbench")
	}
}
