package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartScenarioSpan starts the span covering one benchmark scenario.
func StartScenarioSpan(ctx context.Context, tracer trace.Tracer, group, label string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "scenario "+label,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("kvbench.group", group),
		attribute.String("kvbench.command", label),
	)
	return ctx, span
}

// StartWorkerSpan starts the span covering one worker of a concurrent scenario.
func StartWorkerSpan(ctx context.Context, tracer trace.Tracer, label string, workerID int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "worker "+label,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("kvbench.command", label),
		attribute.Int("kvbench.worker", workerID),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
