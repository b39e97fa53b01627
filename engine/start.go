package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/pushsync"
	"github.com/xraph/pushsync/ext"
	"github.com/xraph/pushsync/interest"
	"github.com/xraph/pushsync/job"
	"github.com/xraph/pushsync/queue"
	"github.com/xraph/pushsync/state"
)

// handleStart performs the registration sequence: create the device
// remotely, reconcile local intent against the server's initial interest
// set, persist in one transaction, and run jobs the replay deferred.
//
// The remote register call retries per the engine policy; a terminal
// failure abandons the whole start attempt, discarding the pre-start log
// and the start entry itself.
func (eng *Engine) handleStart(ctx context.Context, e queue.Entry, startJob job.StartRegistration) error {
	began := time.Now()

	device, err := eng.client.Register(ctx, startJob.Token, eng.provider.Get(), eng.policy)
	if err != nil {
		eng.logger.Error("device registration failed, abandoning start attempt",
			slog.String("job_id", e.ID.String()),
			slog.String("error", err.Error()),
		)
		eng.extensions.EmitRegistrationFailed(ctx, err)
		eng.discardStartAttempt(ctx, e, err)
		return err
	}

	// Replay and persistence form one exclusive store section: the fold,
	// the interest write, and the identity write must not interleave with
	// any other store access.
	var result ReplayResult
	var persisted interest.Set
	syncErr := eng.store.Synchronize(ctx, func(r *state.Record) error {
		result = Replay(device.InitialInterests, eng.preStartLog)
		r.DeviceID = device.ID
		r.Token = startJob.Token
		if !result.Interests.Equal(r.InterestSet()) {
			r.SetInterests(result.Interests)
		}
		persisted = r.InterestSet()
		return nil
	})
	if syncErr != nil {
		eng.logger.Error("persisting registration state failed, abandoning start attempt",
			slog.String("job_id", e.ID.String()),
			slog.String("error", syncErr.Error()),
		)
		eng.extensions.EmitRegistrationFailed(ctx, syncErr)
		eng.discardStartAttempt(ctx, e, syncErr)
		return syncErr
	}

	// Local state is committed. Pushing the reconciled set to the server
	// is best effort here; a divergence heals on the next interest change.
	if !persisted.Equal(device.InitialInterests) {
		if err := eng.client.SetSubscriptions(ctx, device.ID, persisted.Sorted(), eng.policy); err != nil {
			eng.logger.Warn("post-registration interest sync failed",
				slog.String("device_id", device.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	eng.extensions.EmitRegistrationSucceeded(ctx, device)
	eng.logger.Info("device registered",
		slog.String("device_id", device.ID),
		slog.Int("interests", persisted.Len()),
		slog.Int("deferred_jobs", len(result.Deferred)),
	)

	// Deferred jobs run now, in submission order, exactly once each,
	// through the same processor normal jobs use.
	for _, d := range result.Deferred {
		eng.extensions.EmitJobDeferred(ctx, d)
		eng.runDeferred(ctx, d)
	}

	eng.preStartLog = nil
	eng.queue.DrainThrough(e.ID)
	eng.extensions.EmitJobCompleted(ctx, e, time.Since(began))
	return nil
}

// runDeferred executes a single replay-deferred entry. Deferred entries
// are no longer queue members, so outcomes are reported directly instead
// of via head removal.
func (eng *Engine) runDeferred(ctx context.Context, d queue.Entry) {
	began := time.Now()

	rec, err := eng.store.Load(ctx)
	if err != nil {
		eng.extensions.EmitJobDropped(ctx, d, ext.DropInternal, err)
		return
	}
	if !rec.Registered() {
		eng.extensions.EmitJobDropped(ctx, d, ext.DropNotRegistered, pushsync.ErrNotRegistered)
		return
	}

	reason, runErr := eng.runJob(ctx, d, rec)
	if reason != "" {
		eng.extensions.EmitJobDropped(ctx, d, reason, runErr)
		return
	}
	eng.extensions.EmitJobCompleted(ctx, d, time.Since(began))
}

// discardStartAttempt abandons a failed start: the pre-start log is
// forgotten and the start entry (plus anything queued before it, should
// that ever happen) is drained. Log entries were already reported dropped
// at the gate, so only the start entry gets a drop event here.
func (eng *Engine) discardStartAttempt(ctx context.Context, e queue.Entry, cause error) {
	eng.preStartLog = nil
	eng.queue.DrainThrough(e.ID)
	eng.extensions.EmitJobDropped(ctx, e, ext.DropStartFailed, cause)
}
