package ecs

import "fmt"

// slot is one dense cell: the value plus the external index that owns it.
type slot[T any] struct {
	owner uint32
	value T
}

// Option configures a SparseSet at construction.
type Option[T any] func(*SparseSet[T])

// WithRelease registers fn to be called exactly once for every value that
// leaves the set (erase, replace, clear, close). The pointer is only valid
// for the duration of the call.
func WithRelease[T any](fn func(index uint32, v *T)) Option[T] {
	return func(s *SparseSet[T]) {
		s.release = fn
	}
}

// SparseSet maps indices in [0, MaxSize()) to values of T with O(1)
// insert, erase, lookup and dense iteration. Capacity is fixed at New;
// both arrays are allocated once and never grow.
//
// sparse[i] holds the dense position of index i, or the capacity itself
// when i is absent. Dense positions [0, Len()) are live and gap-free;
// the tail holds zero-valued slots that are never read.
//
// Not safe for concurrent use. Pointers handed out by At, Insert, Emplace
// and Unchecked are invalidated by the next Insert, Emplace, Erase or Clear
// on the same set: erase relocates the tail value into the hole.
type SparseSet[T any] struct {
	size    uint32
	sparse  []uint32
	dense   []slot[T]
	release func(index uint32, v *T)
}

// New creates an empty set able to hold capacity values.
func New[T any](capacity uint32, opts ...Option[T]) *SparseSet[T] {
	s := &SparseSet[T]{
		sparse: make([]uint32, capacity),
		dense:  make([]slot[T], capacity),
	}
	for i := range s.sparse {
		s.sparse[i] = capacity
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SparseSet[T]) sentinel() uint32 { return uint32(len(s.sparse)) }

// MaxSize returns the fixed capacity.
func (s *SparseSet[T]) MaxSize() uint32 { return uint32(len(s.sparse)) }

// Len returns the number of live values.
func (s *SparseSet[T]) Len() uint32 { return s.size }
func (s *SparseSet[T]) Empty() bool { return s.size == 0 }
func (s *SparseSet[T]) Full() bool  { return s.size == s.MaxSize() }

// Contains reports whether index holds a value. Indices outside
// [0, MaxSize()) fail with ErrOutOfRange.
func (s *SparseSet[T]) Contains(index uint32) (bool, error) {
	if index >= s.MaxSize() {
		return false, s.indexError("contains", index, ErrOutOfRange)
	}
	return s.sparse[index] != s.sentinel(), nil
}

// Has is Contains without the range error: out-of-range indices are absent.
func (s *SparseSet[T]) Has(index uint32) bool {
	return index < s.MaxSize() && s.sparse[index] != s.sentinel()
}

// At returns the value stored at index.
func (s *SparseSet[T]) At(index uint32) (*T, error) {
	if index >= s.MaxSize() {
		return nil, s.indexError("at", index, ErrOutOfRange)
	}
	d := s.sparse[index]
	if d == s.sentinel() {
		return nil, s.indexError("at", index, ErrNotFound)
	}
	return &s.dense[d].value, nil
}

// Unchecked returns the value at index without validating it. The caller
// must already know Has(index) is true. An absent index panics with a
// runtime bounds error; an out-of-range index panics likewise.
func (s *SparseSet[T]) Unchecked(index uint32) *T {
	return &s.dense[s.sparse[index]].value
}

// Insert stores v at index, replacing any existing value in place.
// A new index fails with ErrCapacityExceeded when the set is full, and
// otherwise with ErrOutOfRange when index >= MaxSize().
func (s *SparseSet[T]) Insert(index uint32, v T) (*T, error) {
	d, err := s.slotFor(index)
	if err != nil {
		return nil, err
	}
	return s.commit(index, d, v), nil
}

// Emplace builds the value for index with ctor and commits it only when
// ctor succeeds. On error the set is unchanged; on the replace path the
// previous value stays live and is not released.
func (s *SparseSet[T]) Emplace(index uint32, ctor func(*T) error) (*T, error) {
	d, err := s.slotFor(index)
	if err != nil {
		return nil, err
	}
	var v T
	if err := ctor(&v); err != nil {
		return nil, fmt.Errorf("construct value for index %d: %w", index, err)
	}
	return s.commit(index, d, v), nil
}

// slotFor returns the dense position already owned by index, or the
// sentinel when index is new and there is room for it.
func (s *SparseSet[T]) slotFor(index uint32) (uint32, error) {
	d := s.sentinel()
	if index < s.MaxSize() {
		d = s.sparse[index]
	}
	// Capacity is checked before range: a full set has every in-range index
	// present, so any other index is one too many.
	if d == s.sentinel() && s.Full() {
		return d, s.indexError("insert", index, ErrCapacityExceeded)
	}
	if index >= s.MaxSize() {
		return d, s.indexError("insert", index, ErrOutOfRange)
	}
	return d, nil
}

func (s *SparseSet[T]) commit(index, d uint32, v T) *T {
	if d != s.sentinel() {
		s.releaseSlot(d)
		s.dense[d].value = v
		return &s.dense[d].value
	}
	d = s.size
	s.dense[d] = slot[T]{owner: index, value: v}
	s.sparse[index] = d
	s.size++
	return &s.dense[d].value
}

// Erase removes the value at index and reports whether one was present.
// Absent and out-of-range indices are a no-op.
func (s *SparseSet[T]) Erase(index uint32) bool {
	if !s.Has(index) {
		return false
	}
	d := s.sparse[index]
	last := s.size - 1
	s.releaseSlot(d)

	// Swap-and-pop: move the tail into the hole. d == last needs no move.
	if d != last {
		moved := s.dense[last]
		s.dense[d] = moved
		s.sparse[moved.owner] = d
	}
	s.dense[last] = slot[T]{}
	s.sparse[index] = s.sentinel()
	s.size--
	return true
}

// Clear removes every value, releasing each exactly once.
func (s *SparseSet[T]) Clear() {
	for d := uint32(0); d < s.size; d++ {
		s.releaseSlot(d)
		s.sparse[s.dense[d].owner] = s.sentinel()
		s.dense[d] = slot[T]{}
	}
	s.size = 0
}

// Close tears the set down. It is Clear under another name so owners can
// defer it; the set stays usable afterwards.
func (s *SparseSet[T]) Close() {
	s.Clear()
}

func (s *SparseSet[T]) releaseSlot(d uint32) {
	if s.release != nil {
		s.release(s.dense[d].owner, &s.dense[d].value)
	}
}

// CheckInvariants walks both arrays and reports the first broken link
// between sparse and dense. Costs O(MaxSize()).
func (s *SparseSet[T]) CheckInvariants() error {
	capacity := s.MaxSize()
	if s.size > capacity {
		return fmt.Errorf("size %d exceeds capacity %d", s.size, capacity)
	}
	for d := uint32(0); d < s.size; d++ {
		owner := s.dense[d].owner
		if owner >= capacity {
			return fmt.Errorf("dense[%d] owner %d out of range", d, owner)
		}
		if s.sparse[owner] != d {
			return fmt.Errorf("dense[%d] owned by %d but sparse[%d] = %d", d, owner, owner, s.sparse[owner])
		}
	}
	live := uint32(0)
	for i, d := range s.sparse {
		if d == capacity {
			continue
		}
		if d >= s.size {
			return fmt.Errorf("sparse[%d] = %d points past size %d", i, d, s.size)
		}
		live++
	}
	if live != s.size {
		return fmt.Errorf("%d present indices but size is %d", live, s.size)
	}
	return nil
}
