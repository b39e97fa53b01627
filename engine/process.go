package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/pushsync/api"
	"github.com/xraph/pushsync/ext"
	"github.com/xraph/pushsync/interest"
	"github.com/xraph/pushsync/job"
	"github.com/xraph/pushsync/queue"
	"github.com/xraph/pushsync/state"
)

// processHead runs the head entry through the generic processor and
// removes it from the queue regardless of outcome.
func (eng *Engine) processHead(ctx context.Context, e queue.Entry, rec state.Record) error {
	began := time.Now()

	reason, err := eng.runJob(ctx, e, rec)
	eng.queue.DropHead()

	if reason != "" {
		eng.extensions.EmitJobDropped(ctx, e, reason, err)
		return err
	}
	eng.extensions.EmitJobCompleted(ctx, e, time.Since(began))
	return nil
}

// runJob executes one post-registration job against the remote service
// and the state store. It does not touch the queue: the caller decides
// how the entry leaves it. A non-empty DropReason means the job's effect
// was abandoned.
//
// A terminal DeviceNotFound triggers the recovery path exactly once: the
// device is re-created with the stored token and the job re-executed
// against the new device. A second DeviceNotFound, or any failure during
// recovery, drops the job.
func (eng *Engine) runJob(ctx context.Context, e queue.Entry, rec state.Record) (ext.DropReason, error) {
	err := eng.execute(ctx, e.Job, rec)
	if err == nil {
		return "", nil
	}
	if !api.IsDeviceNotFound(err) {
		eng.logger.Warn("job failed against remote service",
			slog.String("job_id", e.ID.String()),
			slog.String("job_kind", string(e.Job.Kind())),
			slog.String("error", err.Error()),
		)
		return ext.DropRemoteError, err
	}

	eng.logger.Warn("device no longer exists server-side, recreating",
		slog.String("job_id", e.ID.String()),
		slog.String("device_id", rec.DeviceID),
	)

	fresh, recErr := eng.recreateDevice(ctx, rec)
	if recErr != nil {
		eng.logger.Error("device recreation failed",
			slog.String("job_id", e.ID.String()),
			slog.String("error", recErr.Error()),
		)
		return ext.DropRecoveryFailed, recErr
	}

	if err := eng.execute(ctx, e.Job, fresh); err != nil {
		return ext.DropRemoteError, err
	}
	return "", nil
}

// execute performs the remote call and local-state update for one job
// kind. The record passed in is a snapshot; all writes go through
// Synchronize.
func (eng *Engine) execute(ctx context.Context, j job.Job, rec state.Record) error {
	switch j := j.(type) {
	case job.Subscribe:
		if err := eng.client.Subscribe(ctx, rec.DeviceID, j.Interest, eng.policy); err != nil {
			return err
		}
		return eng.store.Synchronize(ctx, func(r *state.Record) error {
			set := r.InterestSet()
			set.Add(j.Interest)
			r.SetInterests(set)
			return nil
		})

	case job.Unsubscribe:
		if err := eng.client.Unsubscribe(ctx, rec.DeviceID, j.Interest, eng.policy); err != nil {
			return err
		}
		return eng.store.Synchronize(ctx, func(r *state.Record) error {
			set := r.InterestSet()
			set.Remove(j.Interest)
			r.SetInterests(set)
			return nil
		})

	case job.SetSubscriptions:
		if err := eng.client.SetSubscriptions(ctx, rec.DeviceID, j.Interests, eng.policy); err != nil {
			return err
		}
		return eng.store.Synchronize(ctx, func(r *state.Record) error {
			r.SetInterests(interest.FromSlice(j.Interests))
			return nil
		})

	case job.SetUserID:
		if err := eng.client.SetUserID(ctx, rec.DeviceID, j.UserID, eng.policy); err != nil {
			return err
		}
		return eng.store.Synchronize(ctx, func(r *state.Record) error {
			r.UserID = j.UserID
			return nil
		})

	case job.RefreshToken:
		// A token refresh re-registers under the new token. The service
		// keys the device record on the token, so this may return the
		// same device id or a fresh one; either way the local record
		// follows the server.
		device, err := eng.client.Register(ctx, j.Token, eng.provider.Get(), eng.policy)
		if err != nil {
			return err
		}
		return eng.store.Synchronize(ctx, func(r *state.Record) error {
			r.DeviceID = device.ID
			r.Token = j.Token
			return nil
		})

	case job.ApplicationStarted:
		return eng.client.SetMetadata(ctx, rec.DeviceID, j.Metadata, eng.policy)

	default:
		// Start and Stop are routed before execute; anything else here
		// is a programming error in the job package.
		eng.logger.Error("unroutable job kind", slog.String("job_kind", string(j.Kind())))
		return nil
	}
}

// recreateDevice rebuilds a device the server has forgotten: register
// with the stored token, restore the local interest set, and persist the
// new device id. The user association is not restored (the engine has
// no auth token to prove it); the stale user id is surfaced through
// the DeviceRecreated hook for the application to re-authenticate.
func (eng *Engine) recreateDevice(ctx context.Context, rec state.Record) (state.Record, error) {
	device, err := eng.client.Register(ctx, rec.Token, eng.provider.Get(), eng.policy)
	if err != nil {
		return state.Record{}, err
	}

	local := rec.InterestSet()
	staleUserID := rec.UserID

	var fresh state.Record
	syncErr := eng.store.Synchronize(ctx, func(r *state.Record) error {
		r.DeviceID = device.ID
		r.Token = rec.Token
		r.UserID = ""
		r.SetInterests(local)
		fresh = *r
		return nil
	})
	if syncErr != nil {
		return state.Record{}, syncErr
	}

	// Reconcile the server with the locally known interests. Best effort:
	// the fresh device is usable either way, and a divergence heals on the
	// next interest change.
	if local.Len() > 0 && !local.Equal(device.InitialInterests) {
		if err := eng.client.SetSubscriptions(ctx, device.ID, local.Sorted(), eng.policy); err != nil {
			eng.logger.Warn("interest reconciliation after recreation failed",
				slog.String("device_id", device.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	eng.extensions.EmitDeviceRecreated(ctx, device, staleUserID)
	eng.logger.Info("device recreated",
		slog.String("device_id", device.ID),
		slog.String("previous_device_id", rec.DeviceID),
	)
	return fresh, nil
}

// handleStop tears the registration down: delete the remote device (best
// effort; a DeviceNotFound here means the work is already done), then
// clear the local record. Subsequent jobs fall to the registration gate
// until the next start.
func (eng *Engine) handleStop(ctx context.Context, e queue.Entry, rec state.Record) error {
	began := time.Now()

	if err := eng.client.DeleteDevice(ctx, rec.DeviceID, eng.policy); err != nil && !api.IsDeviceNotFound(err) {
		eng.logger.Warn("remote device deletion failed, clearing local state anyway",
			slog.String("device_id", rec.DeviceID),
			slog.String("error", err.Error()),
		)
	}

	syncErr := eng.store.Synchronize(ctx, func(r *state.Record) error {
		r.Clear()
		return nil
	})

	eng.queue.DropHead()

	if syncErr != nil {
		eng.extensions.EmitJobDropped(ctx, e, ext.DropInternal, syncErr)
		return syncErr
	}

	eng.extensions.EmitDeviceStopped(ctx, rec.DeviceID)
	eng.extensions.EmitJobCompleted(ctx, e, time.Since(began))
	eng.logger.Info("device stopped", slog.String("device_id", rec.DeviceID))
	return nil
}
