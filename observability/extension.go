// Package observability provides an extension that records engine-wide
// lifecycle metrics through the OpenTelemetry metric API. With no global
// MeterProvider configured the instruments are noops and the extension
// costs nothing.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/pushsync/api"
	"github.com/xraph/pushsync/ext"
	"github.com/xraph/pushsync/queue"
)

// meterName is the instrumentation scope name for pushsync metrics.
const meterName = "github.com/xraph/pushsync/observability"

// Compile-time interface checks.
var (
	_ ext.Extension             = (*MetricsExtension)(nil)
	_ ext.JobSubmitted          = (*MetricsExtension)(nil)
	_ ext.JobCompleted          = (*MetricsExtension)(nil)
	_ ext.JobDropped            = (*MetricsExtension)(nil)
	_ ext.JobDeferred           = (*MetricsExtension)(nil)
	_ ext.RegistrationSucceeded = (*MetricsExtension)(nil)
	_ ext.RegistrationFailed    = (*MetricsExtension)(nil)
	_ ext.DeviceRecreated       = (*MetricsExtension)(nil)
	_ ext.DeviceStopped         = (*MetricsExtension)(nil)
)

// MetricsExtension records lifecycle counters: submissions, completions,
// drops (by reason), deferrals, registrations, recoveries, and stops.
type MetricsExtension struct {
	jobSubmitted  metric.Int64Counter
	jobCompleted  metric.Int64Counter
	jobDropped    metric.Int64Counter
	jobDeferred   metric.Int64Counter
	registrations metric.Int64Counter
	regFailures   metric.Int64Counter
	recreations   metric.Int64Counter
	stops         metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Errors from instrument creation are ignored: the OTel
// API guarantees noop fallbacks.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}
	m.jobSubmitted, _ = meter.Int64Counter("pushsync.job.submitted",
		metric.WithDescription("Jobs appended to the queue"))
	m.jobCompleted, _ = meter.Int64Counter("pushsync.job.completed",
		metric.WithDescription("Jobs whose effects were durably applied"))
	m.jobDropped, _ = meter.Int64Counter("pushsync.job.dropped",
		metric.WithDescription("Jobs removed without their effects being applied"))
	m.jobDeferred, _ = meter.Int64Counter("pushsync.job.deferred",
		metric.WithDescription("Jobs set aside by replay for post-registration execution"))
	m.registrations, _ = meter.Int64Counter("pushsync.device.registered",
		metric.WithDescription("Successful device registrations"))
	m.regFailures, _ = meter.Int64Counter("pushsync.device.registration_failed",
		metric.WithDescription("Failed start attempts"))
	m.recreations, _ = meter.Int64Counter("pushsync.device.recreated",
		metric.WithDescription("Successful device recreations after DeviceNotFound"))
	m.stops, _ = meter.Int64Counter("pushsync.device.stopped",
		metric.WithDescription("Device deletions"))
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobSubmitted implements ext.JobSubmitted.
func (m *MetricsExtension) OnJobSubmitted(ctx context.Context, e queue.Entry) error {
	m.jobSubmitted.Add(ctx, 1, kindAttr(e))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, e queue.Entry, _ time.Duration) error {
	m.jobCompleted.Add(ctx, 1, kindAttr(e))
	return nil
}

// OnJobDropped implements ext.JobDropped.
func (m *MetricsExtension) OnJobDropped(ctx context.Context, e queue.Entry, reason ext.DropReason, _ error) error {
	m.jobDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job_kind", string(e.Job.Kind())),
		attribute.String("reason", string(reason)),
	))
	return nil
}

// OnJobDeferred implements ext.JobDeferred.
func (m *MetricsExtension) OnJobDeferred(ctx context.Context, e queue.Entry) error {
	m.jobDeferred.Add(ctx, 1, kindAttr(e))
	return nil
}

// OnRegistrationSucceeded implements ext.RegistrationSucceeded.
func (m *MetricsExtension) OnRegistrationSucceeded(ctx context.Context, _ *api.Device) error {
	m.registrations.Add(ctx, 1)
	return nil
}

// OnRegistrationFailed implements ext.RegistrationFailed.
func (m *MetricsExtension) OnRegistrationFailed(ctx context.Context, _ error) error {
	m.regFailures.Add(ctx, 1)
	return nil
}

// OnDeviceRecreated implements ext.DeviceRecreated.
func (m *MetricsExtension) OnDeviceRecreated(ctx context.Context, _ *api.Device, _ string) error {
	m.recreations.Add(ctx, 1)
	return nil
}

// OnDeviceStopped implements ext.DeviceStopped.
func (m *MetricsExtension) OnDeviceStopped(ctx context.Context, _ string) error {
	m.stops.Add(ctx, 1)
	return nil
}

func kindAttr(e queue.Entry) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("job_kind", string(e.Job.Kind())))
}
