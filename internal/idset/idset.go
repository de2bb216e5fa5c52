// Package idset implements a generic identifier set, adapted from the
// teacher's utils/set.Set[T]: used wherever the pipeline needs to
// deduplicate or test membership over UnitIDs, OptionIDs or
// AutonomyPackageIDs (the affected-family set, the tied-option set, the
// visited-units set during tree-shape validation). Every one of those
// IDs is a string-based type, so unlike the teacher's set this one
// requires a comparable+ordered element and always serializes and lists
// in sorted order - the tabulation pipeline never iterates a bare Go map
// and calls the result deterministic (spec.md SS9 "Design Notes").
package idset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

const minSetSize = 16

// ID is any element usable in a Set: orderable so that List/MarshalJSON
// can produce a stable, canonical sequence.
type ID interface {
	~string
}

// Set is a set of orderable identifiers.
type Set[T ID] map[T]struct{}

var _ json.Marshaler = (*Set[string])(nil)

// Of returns a Set initialized with elts.
func Of[T ID](elts ...T) Set[T] {
	s := New[T](len(elts))
	s.Add(elts...)
	return s
}

// New returns a new set with initial capacity size.
func New[T ID](size int) Set[T] {
	if size < 0 {
		return Set[T]{}
	}
	return make(map[T]struct{}, size)
}

func (s *Set[T]) resize(size int) {
	if *s == nil {
		if minSetSize > size {
			size = minSetSize
		}
		*s = make(map[T]struct{}, size)
	}
}

// Add inserts every element of elts, a no-op for ones already present.
func (s *Set[T]) Add(elts ...T) {
	s.resize(2 * len(elts))
	for _, elt := range elts {
		(*s)[elt] = struct{}{}
	}
}

// Union adds every element of set into s.
func (s *Set[T]) Union(set Set[T]) {
	s.resize(2 * set.Len())
	for elt := range set {
		(*s)[elt] = struct{}{}
	}
}

// Difference removes every element of set from s.
func (s *Set[T]) Difference(set Set[T]) {
	for elt := range set {
		delete(*s, elt)
	}
}

// Contains reports whether elt is in the set.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Overlaps reports whether the intersection of s and big is non-empty.
func (s Set[T]) Overlaps(big Set[T]) bool {
	small := s
	if small.Len() > big.Len() {
		small, big = big, small
	}
	for elt := range small {
		if _, ok := big[elt]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int { return len(s) }

// Clear empties the set.
func (s *Set[T]) Clear() { clear(*s) }

// List returns the set's elements sorted ascending - the only list form
// this package exposes, since every consumer in the pipeline needs
// deterministic order and an unsorted accessor would be an easy-to-miss
// source of run-to-run divergence.
func (s Set[T]) List() []T {
	out := maps.Keys(s)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equals reports whether s and other contain the same elements.
func (s Set[T]) Equals(other Set[T]) bool {
	return maps.Equal(s, other)
}

// Remove deletes every element of elts from the set.
func (s *Set[T]) Remove(elts ...T) {
	for _, elt := range elts {
		delete(*s, elt)
	}
}

// MarshalJSON renders the set as a sorted JSON array, so two runs over
// the same logical set always emit byte-identical JSON.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *Set[T]) UnmarshalJSON(b []byte) error {
	var slc []T
	if err := json.Unmarshal(b, &slc); err != nil {
		return err
	}
	*s = make(map[T]struct{}, minSetSize)
	for _, elt := range slc {
		(*s)[elt] = struct{}{}
	}
	return nil
}

// String renders the set in sorted order for stable log lines and test
// failure messages.
func (s Set[T]) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, elt := range s.List() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v", elt)
	}
	sb.WriteString("}")
	return sb.String()
}
