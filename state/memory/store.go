// Package memory implements state.Store entirely in memory.
// Safe for concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/pushsync"
	"github.com/xraph/pushsync/state"
)

// Compile-time interface check.
var _ state.Store = (*Store)(nil)

// Store holds the device record behind a mutex.
type Store struct {
	mu     sync.Mutex
	record state.Record
	closed bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Load implements state.Store.
func (s *Store) Load(_ context.Context) (state.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return state.Record{}, pushsync.ErrStoreClosed
	}
	return cloneRecord(s.record), nil
}

// Synchronize implements state.Store.
func (s *Store) Synchronize(_ context.Context, fn func(r *state.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pushsync.ErrStoreClosed
	}

	working := cloneRecord(s.record)
	if err := fn(&working); err != nil {
		return err
	}
	s.record = working
	return nil
}

// Close marks the store closed; subsequent access fails with
// pushsync.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cloneRecord(r state.Record) state.Record {
	c := r
	c.Interests = append([]string(nil), r.Interests...)
	return c
}
