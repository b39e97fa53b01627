package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/pushsync/queue"
)

// tracerName is the instrumentation scope name for pushsync tracing.
const tracerName = "github.com/xraph/pushsync"

// Tracing returns middleware that wraps job handling in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: pushsync.job.id and pushsync.job.kind.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, e queue.Entry, next Handler) error {
		ctx, span := tracer.Start(ctx, "pushsync.job.handle",
			trace.WithAttributes(
				attribute.String("pushsync.job.id", e.ID.String()),
				attribute.String("pushsync.job.kind", string(e.Job.Kind())),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
