package ecs

import "iter"

// All yields (index, value) pairs in dense order. The set must not be
// mutated while iterating.
func (s *SparseSet[T]) All() iter.Seq2[uint32, *T] {
	return func(yield func(uint32, *T) bool) {
		for d := uint32(0); d < s.size; d++ {
			if !yield(s.dense[d].owner, &s.dense[d].value) {
				return
			}
		}
	}
}

// Values yields live values in dense order.
func (s *SparseSet[T]) Values() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for d := uint32(0); d < s.size; d++ {
			if !yield(&s.dense[d].value) {
				return
			}
		}
	}
}

// Indices yields the present indices in dense order.
func (s *SparseSet[T]) Indices() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for d := uint32(0); d < s.size; d++ {
			if !yield(s.dense[d].owner) {
				return
			}
		}
	}
}

func (s *SparseSet[T]) Each(fn func(uint32, *T)) {
	for d := uint32(0); d < s.size; d++ {
		fn(s.dense[d].owner, &s.dense[d].value)
	}
}
