// Package state defines the persisted device record boundary: the local
// device identity, registration token, user association, and interest set.
//
// All multi-step updates go through Store.Synchronize, which runs the
// caller's function under exclusive access and commits the mutated record
// atomically. Direct field mutation outside Synchronize does not exist;
// Load only hands out snapshots.
package state

import (
	"context"

	"github.com/xraph/pushsync/interest"
)

// Record is the persisted device state. The zero value means "not
// registered".
type Record struct {
	// DeviceID is the identifier issued by the remote service, or empty
	// when the device is not registered.
	DeviceID string

	// Token is the platform registration token last used to register.
	Token string

	// UserID is the authenticated user associated with the device, if any.
	UserID string

	// Interests is the local interest set, sorted for determinism.
	Interests []string
}

// Registered reports whether a device record exists.
func (r Record) Registered() bool { return r.DeviceID != "" }

// InterestSet returns the record's interests as a Set.
func (r Record) InterestSet() interest.Set {
	return interest.FromSlice(r.Interests)
}

// SetInterests replaces the record's interests from a Set, sorted.
func (r *Record) SetInterests(s interest.Set) {
	r.Interests = s.Sorted()
}

// Clear resets the record to the unregistered state.
func (r *Record) Clear() {
	*r = Record{}
}

// Store persists the device record. Implementations must make Synchronize
// an exclusive critical section: at most one caller runs fn at a time, and
// the record fn observes is the latest committed state.
type Store interface {
	// Load returns a snapshot of the current record.
	Load(ctx context.Context) (Record, error)

	// Synchronize loads the record, runs fn under exclusive access, and
	// commits the mutated record if fn returns nil. A non-nil error from
	// fn aborts the commit and is returned unchanged.
	Synchronize(ctx context.Context, fn func(r *Record) error) error

	// Close releases resources held by the store.
	Close() error
}
