// Package orderedset provides an insertion-ordered set.
//
// Compiled port sets are serialized to lists for the visualization; keeping
// insertion order makes those lists stable across recompiles of the same
// document, so diff-based consumers see no spurious reordering.
package orderedset

import (
	"iter"
	"slices"
)

// Set is an insertion-ordered set. The zero value is ready to use.
// Set is not safe for concurrent mutation.
type Set[T comparable] struct {
	order []T
	index map[T]struct{}
}

// New creates a set holding items in the given order, without duplicates.
func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts v and reports whether it was not present before.
func (s *Set[T]) Add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Contains reports whether v is in the set.
func (s *Set[T]) Contains(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of elements.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Values returns the elements in insertion order. The result is a copy.
func (s *Set[T]) Values() []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s.order)
}

// All iterates over the elements in insertion order.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s == nil {
			return
		}
		for _, v := range s.order {
			if !yield(v) {
				return
			}
		}
	}
}
