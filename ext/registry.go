package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/pushsync/api"
	"github.com/xraph/pushsync/queue"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobSubmittedEntry struct {
	name string
	hook JobSubmitted
}

type jobStartedEntry struct {
	name string
	hook JobStarted
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type jobDroppedEntry struct {
	name string
	hook JobDropped
}

type jobDeferredEntry struct {
	name string
	hook JobDeferred
}

type registrationSucceededEntry struct {
	name string
	hook RegistrationSucceeded
}

type registrationFailedEntry struct {
	name string
	hook RegistrationFailed
}

type deviceRecreatedEntry struct {
	name string
	hook DeviceRecreated
}

type deviceStoppedEntry struct {
	name string
	hook DeviceStopped
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	jobSubmitted          []jobSubmittedEntry
	jobStarted            []jobStartedEntry
	jobCompleted          []jobCompletedEntry
	jobDropped            []jobDroppedEntry
	jobDeferred           []jobDeferredEntry
	registrationSucceeded []registrationSucceededEntry
	registrationFailed    []registrationFailedEntry
	deviceRecreated       []deviceRecreatedEntry
	deviceStopped         []deviceStoppedEntry
	shutdown              []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// SetLogger replaces the logger used to report hook errors. Registered
// extensions are unaffected.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobSubmitted); ok {
		r.jobSubmitted = append(r.jobSubmitted, jobSubmittedEntry{name, h})
	}
	if h, ok := e.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, jobStartedEntry{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, h})
	}
	if h, ok := e.(JobDropped); ok {
		r.jobDropped = append(r.jobDropped, jobDroppedEntry{name, h})
	}
	if h, ok := e.(JobDeferred); ok {
		r.jobDeferred = append(r.jobDeferred, jobDeferredEntry{name, h})
	}
	if h, ok := e.(RegistrationSucceeded); ok {
		r.registrationSucceeded = append(r.registrationSucceeded, registrationSucceededEntry{name, h})
	}
	if h, ok := e.(RegistrationFailed); ok {
		r.registrationFailed = append(r.registrationFailed, registrationFailedEntry{name, h})
	}
	if h, ok := e.(DeviceRecreated); ok {
		r.deviceRecreated = append(r.deviceRecreated, deviceRecreatedEntry{name, h})
	}
	if h, ok := e.(DeviceStopped); ok {
		r.deviceStopped = append(r.deviceStopped, deviceStoppedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Job event emitters
// ──────────────────────────────────────────────────

// EmitJobSubmitted notifies all extensions that implement JobSubmitted.
func (r *Registry) EmitJobSubmitted(ctx context.Context, e queue.Entry) {
	for _, h := range r.jobSubmitted {
		if err := h.hook.OnJobSubmitted(ctx, e); err != nil {
			r.logHookError("OnJobSubmitted", h.name, err)
		}
	}
}

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, e queue.Entry) {
	for _, h := range r.jobStarted {
		if err := h.hook.OnJobStarted(ctx, e); err != nil {
			r.logHookError("OnJobStarted", h.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, e queue.Entry, elapsed time.Duration) {
	for _, h := range r.jobCompleted {
		if err := h.hook.OnJobCompleted(ctx, e, elapsed); err != nil {
			r.logHookError("OnJobCompleted", h.name, err)
		}
	}
}

// EmitJobDropped notifies all extensions that implement JobDropped.
func (r *Registry) EmitJobDropped(ctx context.Context, e queue.Entry, reason DropReason, dropErr error) {
	for _, h := range r.jobDropped {
		if err := h.hook.OnJobDropped(ctx, e, reason, dropErr); err != nil {
			r.logHookError("OnJobDropped", h.name, err)
		}
	}
}

// EmitJobDeferred notifies all extensions that implement JobDeferred.
func (r *Registry) EmitJobDeferred(ctx context.Context, e queue.Entry) {
	for _, h := range r.jobDeferred {
		if err := h.hook.OnJobDeferred(ctx, e); err != nil {
			r.logHookError("OnJobDeferred", h.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Device event emitters
// ──────────────────────────────────────────────────

// EmitRegistrationSucceeded notifies extensions of a completed start.
func (r *Registry) EmitRegistrationSucceeded(ctx context.Context, device *api.Device) {
	for _, h := range r.registrationSucceeded {
		if err := h.hook.OnRegistrationSucceeded(ctx, device); err != nil {
			r.logHookError("OnRegistrationSucceeded", h.name, err)
		}
	}
}

// EmitRegistrationFailed notifies extensions of a failed start attempt.
func (r *Registry) EmitRegistrationFailed(ctx context.Context, regErr error) {
	for _, h := range r.registrationFailed {
		if err := h.hook.OnRegistrationFailed(ctx, regErr); err != nil {
			r.logHookError("OnRegistrationFailed", h.name, err)
		}
	}
}

// EmitDeviceRecreated notifies extensions of a recovery re-registration.
func (r *Registry) EmitDeviceRecreated(ctx context.Context, device *api.Device, staleUserID string) {
	for _, h := range r.deviceRecreated {
		if err := h.hook.OnDeviceRecreated(ctx, device, staleUserID); err != nil {
			r.logHookError("OnDeviceRecreated", h.name, err)
		}
	}
}

// EmitDeviceStopped notifies extensions that the device was deleted.
func (r *Registry) EmitDeviceStopped(ctx context.Context, deviceID string) {
	for _, h := range r.deviceStopped {
		if err := h.hook.OnDeviceStopped(ctx, deviceID); err != nil {
			r.logHookError("OnDeviceStopped", h.name, err)
		}
	}
}

// EmitShutdown notifies extensions that the engine is stopping.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, h := range r.shutdown {
		if err := h.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", h.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors never propagate: an
// extension cannot break job processing.
func (r *Registry) logHookError(hook, extension string, err error) {
	r.logger.Warn("extension hook failed",
		slog.String("hook", hook),
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}
