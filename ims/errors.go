package ims

import (
	"errors"
	"fmt"
)

// Error classes returned by this package. Use errors.Is to test for them;
// the underlying container error, when there is one, is wrapped as well.
var (
	ErrNotFound     = errors.New("not found")
	ErrIO           = errors.New("i/o error")
	ErrFormat       = errors.New("format error")
	ErrPrecondition = errors.New("precondition not met")
	ErrIndex        = errors.New("index out of range")
)

// errNoMetadata is returned by operations that need LoadInfo to have run.
var errNoMetadata = fmt.Errorf("metadata not loaded: %w", ErrPrecondition)

// IndexError reports an index argument outside its valid range [0, Len).
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("%s: index %d out of range, file has none", e.Op, e.Index)
	}
	return fmt.Sprintf("%s: index %d out of range, must be between 0 and %d", e.Op, e.Index, e.Len-1)
}

// Is makes errors.Is(err, ErrIndex) match any *IndexError.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndex
}

func checkIndex(op string, i, n int) error {
	if i < 0 || i >= n {
		return &IndexError{Op: op, Index: i, Len: n}
	}
	return nil
}
