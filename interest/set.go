// Package interest defines the interest set: the collection of named
// topics a device is subscribed to. Set is the working type for the
// replay fold and the persisted local interest state.
package interest

import "sort"

// Set is an unordered collection of interest names.
// The zero value is not usable; call NewSet or FromSlice.
type Set map[string]struct{}

// NewSet creates a Set containing the given interests.
func NewSet(interests ...string) Set {
	s := make(Set, len(interests))
	for _, i := range interests {
		s[i] = struct{}{}
	}
	return s
}

// FromSlice creates a Set from a slice of interest names, deduplicating.
func FromSlice(interests []string) Set {
	return NewSet(interests...)
}

// Add inserts an interest into the set.
func (s Set) Add(name string) {
	s[name] = struct{}{}
}

// Remove deletes an interest from the set. Removing an absent interest
// is a no-op.
func (s Set) Remove(name string) {
	delete(s, name)
}

// Contains reports whether the set holds the given interest.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of interests in the set.
func (s Set) Len() int { return len(s) }

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// Equal reports whether both sets contain exactly the same interests.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the interests as a sorted slice. Stores and the wire
// encoding use this for deterministic output.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
