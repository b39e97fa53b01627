package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/pushsync/api"
	"github.com/xraph/pushsync/ext"
	"github.com/xraph/pushsync/job"
	"github.com/xraph/pushsync/observability"
	"github.com/xraph/pushsync/queue"
)

// With no global MeterProvider configured, every hook must be a safe noop.
func TestHooksAreNoopSafe(t *testing.T) {
	t.Parallel()

	m := observability.NewMetricsExtension()
	if m.Name() == "" {
		t.Fatal("extension must have a name")
	}

	ctx := context.Background()
	e := queue.New(1).Push(job.Subscribe{Interest: "news"})
	dev := &api.Device{ID: "dev-1"}

	hooks := []struct {
		name string
		fn   func() error
	}{
		{"OnJobSubmitted", func() error { return m.OnJobSubmitted(ctx, e) }},
		{"OnJobCompleted", func() error { return m.OnJobCompleted(ctx, e, time.Millisecond) }},
		{"OnJobDropped", func() error { return m.OnJobDropped(ctx, e, ext.DropRemoteError, errors.New("x")) }},
		{"OnJobDeferred", func() error { return m.OnJobDeferred(ctx, e) }},
		{"OnRegistrationSucceeded", func() error { return m.OnRegistrationSucceeded(ctx, dev) }},
		{"OnRegistrationFailed", func() error { return m.OnRegistrationFailed(ctx, errors.New("x")) }},
		{"OnDeviceRecreated", func() error { return m.OnDeviceRecreated(ctx, dev, "u1") }},
		{"OnDeviceStopped", func() error { return m.OnDeviceStopped(ctx, "dev-1") }},
	}

	for _, h := range hooks {
		if err := h.fn(); err != nil {
			t.Fatalf("%s: %v", h.name, err)
		}
	}
}
