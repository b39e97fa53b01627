package engine

import (
	"github.com/xraph/pushsync/interest"
	"github.com/xraph/pushsync/job"
	"github.com/xraph/pushsync/queue"
)

// ReplayResult is the outcome of folding pre-registration jobs over the
// interest set the server returned at registration time.
type ReplayResult struct {
	// Interests is the final working interest set.
	Interests interest.Set

	// Deferred holds the jobs that do not touch the interest set and must
	// run, in order, after registration completes.
	Deferred []queue.Entry
}

// Replay folds every queued entry over the device's initial interest set.
// It is a pure function: no store access, no network.
//
// Rules:
//   - Subscribe adds, Unsubscribe removes, SetSubscriptions replaces the
//     working set.
//   - StopRegistration resets the working set back to the initial set and
//     discards the deferred jobs collected so far: a stop-then-restart
//     sequence nullifies everything queued in between.
//   - SetUserID and RefreshToken are retained, in order, for execution
//     after replay.
//   - ApplicationStarted is ignored (registration itself carries a fresh
//     metadata snapshot).
//   - StartRegistration entries are ignored; only the triggering start
//     matters and it is not part of the fold's effects.
func Replay(initial interest.Set, entries []queue.Entry) ReplayResult {
	working := initial.Clone()
	var deferred []queue.Entry

	for _, e := range entries {
		switch j := e.Job.(type) {
		case job.Subscribe:
			working.Add(j.Interest)
		case job.Unsubscribe:
			working.Remove(j.Interest)
		case job.SetSubscriptions:
			working = interest.FromSlice(j.Interests)
		case job.StopRegistration:
			working = initial.Clone()
			deferred = deferred[:0]
		case job.SetUserID:
			deferred = append(deferred, e)
		case job.RefreshToken:
			deferred = append(deferred, e)
		case job.ApplicationStarted:
			// Superseded by the registration that triggered this replay.
		case job.StartRegistration:
			// Ignored; see rules above.
		}
	}

	return ReplayResult{Interests: working, Deferred: deferred}
}
