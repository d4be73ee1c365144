// Package set is a minimal generic set.
package set

import (
	"cmp"
	"slices"
)

// Set is a set of comparable values, the zero value is not usable: use New.
type Set[T comparable] map[T]struct{}

func New[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add adds value and reports whether it was missing.
func (s Set[T]) Add(value T) bool {
	if s.Contains(value) {
		return false
	}
	s[value] = struct{}{}
	return true
}

func (s Set[T]) Contains(value T) bool {
	_, exists := s[value]
	return exists
}

func (s Set[T]) Remove(value T) {
	delete(s, value)
}

func (s Set[T]) Size() int {
	return len(s)
}

// Sorted returns the values ordered by compare.
func (s Set[T]) Sorted(compare func(a, b T) int) []T {
	values := make([]T, 0, len(s))
	for value := range s {
		values = append(values, value)
	}
	slices.SortFunc(values, compare)
	return values
}

// SortedOrdered returns the values of an ordered set in ascending order.
func SortedOrdered[T cmp.Ordered](s Set[T]) []T {
	return s.Sorted(cmp.Compare[T])
}
