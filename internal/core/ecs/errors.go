package ecs

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange       = errors.New("index out of range")
	ErrNotFound         = errors.New("index not present")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// IndexError records the operation and index that failed. It unwraps to
// one of the sentinel errors above.
type IndexError struct {
	Op       string
	Index    uint32
	Capacity uint32
	Err      error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("sparse set %s %d (capacity %d): %v", e.Op, e.Index, e.Capacity, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

func (s *SparseSet[T]) indexError(op string, index uint32, err error) error {
	return &IndexError{Op: op, Index: index, Capacity: s.MaxSize(), Err: err}
}
