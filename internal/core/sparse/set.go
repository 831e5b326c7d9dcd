package sparse

import (
	"errors"
	"fmt"
	"iter"
)

// ErrOutOfRange is raised when an index falls outside the fixed capacity of a Set.
var ErrOutOfRange = errors.New("sparse: index out of range")

// ErrAbsent is raised by MustGet when no value is stored at an index.
var ErrAbsent = errors.New("sparse: index not present")

const absent = -1

type entry[T any] struct {
	index int
	value T
}

// Set maps a bounded integer index to an optional value of type T.
//
// Storage is a dense array of (index, value) pairs plus a sparse array mapping
// index -> dense slot, so set/remove/lookup are O(1) and iteration touches
// only present entries. Capacity is fixed at construction; no method
// allocates after New returns.
//
// Invariants:
//   - for every dense slot d: sparse[dense[d].index] == d
//   - for every absent index i: sparse[i] == -1
//
// A Set is not safe for concurrent use.
type Set[T any] struct {
	dense  []entry[T]
	sparse []int32
}

// New creates a Set able to hold indices in [0, capacity).
func New[T any](capacity int) *Set[T] {
	if capacity < 0 {
		panic(fmt.Errorf("%w: negative capacity %d", ErrOutOfRange, capacity))
	}
	s := &Set[T]{
		dense:  make([]entry[T], 0, capacity),
		sparse: make([]int32, capacity),
	}
	for i := range s.sparse {
		s.sparse[i] = absent
	}
	return s
}

// Set inserts value at index or overwrites the existing one.
func (s *Set[T]) Set(index int, value T) {
	s.check(index)
	if d := s.sparse[index]; d != absent {
		s.dense[d].value = value
		return
	}
	s.sparse[index] = int32(len(s.dense))
	s.dense = append(s.dense, entry[T]{index: index, value: value})
}

// Remove deletes the value at index, reporting whether one existed.
// The last dense entry is moved into the freed slot.
func (s *Set[T]) Remove(index int) bool {
	s.check(index)
	d := s.sparse[index]
	if d == absent {
		return false
	}
	last := len(s.dense) - 1
	if int(d) != last {
		moved := s.dense[last]
		s.dense[d] = moved
		s.sparse[moved.index] = d
	}
	var zero entry[T]
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.sparse[index] = absent
	return true
}

// Get returns the value at index and whether it is present.
func (s *Set[T]) Get(index int) (T, bool) {
	if index < 0 || index >= len(s.sparse) {
		var zero T
		return zero, false
	}
	d := s.sparse[index]
	if d == absent {
		var zero T
		return zero, false
	}
	return s.dense[d].value, true
}

// MustGet returns the value at index and panics when it is absent.
func (s *Set[T]) MustGet(index int) T {
	s.check(index)
	d := s.sparse[index]
	if d == absent {
		panic(fmt.Errorf("%w: %d", ErrAbsent, index))
	}
	return s.dense[d].value
}

// Update applies fn to the stored value in place. It reports false and does
// not call fn when index holds no value.
func (s *Set[T]) Update(index int, fn func(*T)) bool {
	s.check(index)
	d := s.sparse[index]
	if d == absent {
		return false
	}
	fn(&s.dense[d].value)
	return true
}

// Has reports whether index holds a value.
func (s *Set[T]) Has(index int) bool {
	return index >= 0 && index < len(s.sparse) && s.sparse[index] != absent
}

// Len returns the number of present values.
func (s *Set[T]) Len() int { return len(s.dense) }

// Cap returns the fixed index capacity.
func (s *Set[T]) Cap() int { return len(s.sparse) }

// All yields the present (index, value) pairs in dense order. The order is
// stable for a pass without mutation and unspecified across mutations.
func (s *Set[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range s.dense {
			if !yield(s.dense[i].index, s.dense[i].value) {
				return
			}
		}
	}
}

// Indices yields the present indices in dense order.
func (s *Set[T]) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range s.dense {
			if !yield(s.dense[i].index) {
				return
			}
		}
	}
}

// Clear removes every value in O(Len).
func (s *Set[T]) Clear() {
	var zero entry[T]
	for i := range s.dense {
		s.sparse[s.dense[i].index] = absent
		s.dense[i] = zero
	}
	s.dense = s.dense[:0]
}

func (s *Set[T]) check(index int) {
	if index < 0 || index >= len(s.sparse) {
		panic(fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(s.sparse)))
	}
}
