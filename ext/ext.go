// Package ext defines the extension system for the sync engine.
// Extensions are notified of lifecycle events (job submitted, completed,
// dropped, device registered, ...) and can react to them: logging,
// metrics, application callbacks.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about. The registry doubles as the engine's
// error-event sink: terminal errors reach extensions through JobDropped
// and RegistrationFailed instead of being returned to the submitter.
package ext

import (
	"context"
	"time"

	"github.com/xraph/pushsync/api"
	"github.com/xraph/pushsync/queue"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// DropReason classifies why a job left the queue without completing.
type DropReason string

// DropReason constants.
const (
	// DropNotRegistered: a non-start job arrived while no device exists.
	DropNotRegistered DropReason = "not_registered"

	// DropStartFailed: the job was discarded because the start attempt
	// covering it failed to register.
	DropStartFailed DropReason = "start_failed"

	// DropRemoteError: the remote service rejected the job terminally.
	DropRemoteError DropReason = "remote_error"

	// DropRecoveryFailed: re-registration after DeviceNotFound failed.
	DropRecoveryFailed DropReason = "recovery_failed"

	// DropInternal: the local state store failed while handling the job.
	DropInternal DropReason = "internal_error"
)

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobSubmitted is called after a job is appended to the queue.
type JobSubmitted interface {
	OnJobSubmitted(ctx context.Context, e queue.Entry) error
}

// JobStarted is called when the worker begins handling a job.
type JobStarted interface {
	OnJobStarted(ctx context.Context, e queue.Entry) error
}

// JobCompleted is called after a job's effects are durably applied.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, e queue.Entry, elapsed time.Duration) error
}

// JobDropped is called when a job is removed from the queue without its
// effects being applied. err may be nil (gate drops carry no error).
type JobDropped interface {
	OnJobDropped(ctx context.Context, e queue.Entry, reason DropReason, err error) error
}

// JobDeferred is called when replay sets a job aside for execution after
// registration completes.
type JobDeferred interface {
	OnJobDeferred(ctx context.Context, e queue.Entry) error
}

// ──────────────────────────────────────────────────
// Device lifecycle hooks
// ──────────────────────────────────────────────────

// RegistrationSucceeded is called after the device registers and its
// replayed state is persisted.
type RegistrationSucceeded interface {
	OnRegistrationSucceeded(ctx context.Context, device *api.Device) error
}

// RegistrationFailed is called when a start attempt's registration call
// fails terminally.
type RegistrationFailed interface {
	OnRegistrationFailed(ctx context.Context, err error) error
}

// DeviceRecreated is called after a successful re-registration recovery.
// staleUserID carries the user association the recovery did NOT restore;
// applications that need it re-submit a SetUserID job.
type DeviceRecreated interface {
	OnDeviceRecreated(ctx context.Context, device *api.Device, staleUserID string) error
}

// DeviceStopped is called after the device record is deleted and local
// state cleared.
type DeviceStopped interface {
	OnDeviceStopped(ctx context.Context, deviceID string) error
}

// Shutdown is called when the engine stops, before the worker exits.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
