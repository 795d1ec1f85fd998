// Package idset provides an ordered set of numeric identifiers with a
// comma-joined string form used at storage boundaries.
//
// The host's metadata tables store lists of IDs as plain strings like
// "12,7,344". This package is the single place where that encoding is
// parsed and produced; everywhere else the list behaves as a proper
// set with stable first-seen ordering and idempotent add/remove.
package idset

import (
	"strconv"
	"strings"
)

// Set is an ordered set of positive int64 IDs.
// The zero value is ready to use.
type Set struct {
	ids   []int64
	index map[int64]struct{}
}

// New creates a set containing the given IDs in order.
// Non-positive and duplicate IDs are skipped.
func New(ids ...int64) *Set {
	s := &Set{index: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Parse decodes a comma-joined ID list. Blank segments and values that
// are not positive integers are skipped rather than reported: stored
// lists predate any validation and must never fail to load.
func Parse(raw string) *Set {
	s := New()
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		s.Add(id)
	}
	return s
}

// Add appends id to the set.
// Returns false if id is not positive or already present.
func (s *Set) Add(id int64) bool {
	if id <= 0 {
		return false
	}
	if s.index == nil {
		s.index = make(map[int64]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Remove deletes id from the set, preserving the order of the rest.
// Returns false if id was not present.
func (s *Set) Remove(id int64) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns the member IDs in insertion order.
// The returned slice is a copy.
func (s *Set) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.ids)
}

// Empty reports whether the set has no members.
func (s *Set) Empty() bool {
	return len(s.ids) == 0
}

// String encodes the set back to the comma-joined storage form.
// An empty set encodes as the empty string.
func (s *Set) String() string {
	if len(s.ids) == 0 {
		return ""
	}
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// Diff returns the members of s that are not in any of the others,
// preserving order. Used for notification recipient math.
func (s *Set) Diff(others ...*Set) *Set {
	out := New()
	for _, id := range s.ids {
		excluded := false
		for _, o := range others {
			if o != nil && o.Contains(id) {
				excluded = true
				break
			}
		}
		if !excluded {
			out.Add(id)
		}
	}
	return out
}
