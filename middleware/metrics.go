package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/pushsync/queue"
)

// meterName is the instrumentation scope name for pushsync metrics.
const meterName = "github.com/xraph/pushsync"

// Metrics returns middleware that records per-job handling metrics using
// the global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - pushsync.job.duration (Float64Histogram): handling time in seconds,
//     with attributes: job_kind, status ("ok" or "error")
//   - pushsync.job.handled (Int64Counter): total handled jobs,
//     with attributes: job_kind, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"pushsync.job.duration",
		metric.WithDescription("Duration of job handling in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	handled, hErr := meter.Int64Counter(
		"pushsync.job.handled",
		metric.WithDescription("Total number of handled jobs"),
		metric.WithUnit("{job}"),
	)
	_ = hErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, e queue.Entry, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("job_kind", string(e.Job.Kind())),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		handled.Add(ctx, 1, attrs)

		return err
	}
}
