// Package queue provides the ordered, append-only sequence of pending
// synchronization jobs. Exactly one worker consumes it; submission is safe
// from any number of goroutines. Strict FIFO: only the head entry may be
// finished next, and an entry leaves the queue only after it has been
// durably handled or definitively dropped.
package queue

import (
	"sync"
	"time"

	"github.com/xraph/pushsync/id"
	"github.com/xraph/pushsync/job"
)

// Entry is one queued job with its identity and submission time.
type Entry struct {
	ID         id.JobID
	Job        job.Job
	EnqueuedAt time.Time
}

// Queue is the pending-job FIFO. Safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates an empty Queue with the given capacity hint.
func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{entries: make([]Entry, 0, capacity)}
}

// Push appends a job to the tail and returns its entry. It never blocks
// and never drops.
func (q *Queue) Push(j job.Job) Entry {
	e := Entry{
		ID:         id.NewJobID(),
		Job:        j,
		EnqueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()

	return e
}

// Head returns the entry at the front of the queue without removing it.
// The second result is false when the queue is empty.
func (q *Queue) Head() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return q.entries[0], true
}

// DropHead removes the front entry. It is the only way a single job leaves
// the queue: the dispatcher calls it after the job completes or after a
// defined drop.
func (q *Queue) DropHead() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) > 0 {
		q.entries = q.entries[1:]
	}
}

// Snapshot returns an ordered copy of every pending entry, for observers
// that need a consistent view without holding the queue lock. The copy is
// independent of concurrent submissions.
func (q *Queue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// DrainThrough removes every entry up to and including the one with the
// given ID, and returns how many were removed. When the ID is not present
// the queue is left untouched.
func (q *Queue) DrainThrough(entryID id.JobID) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ID.String() == entryID.String() {
			removed := i + 1
			q.entries = q.entries[removed:]
			return removed
		}
	}
	return 0
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
