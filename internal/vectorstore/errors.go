// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable means a collection could not be read or written.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch means a vector's length differs from the
	// collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnknownCollection means the requested collection does not exist.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrZeroQuery means a search was attempted with a zero vector.
	ErrZeroQuery = errors.New("zero query vector")

	// ErrClosed means the store has been closed.
	ErrClosed = errors.New("vector store closed")
)

// DimensionMismatchError reports the expected and actual vector lengths.
// It matches both ErrDimensionMismatch and ErrStoreUnavailable so that a
// mismatched query degrades the same way an unreachable store does.
type DimensionMismatchError struct {
	Collection string
	Expected   int
	Actual     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("collection %s: vector dimension mismatch: expected %d, got %d",
		e.Collection, e.Expected, e.Actual)
}

// Is matches ErrDimensionMismatch and ErrStoreUnavailable.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch || target == ErrStoreUnavailable
}

func checkDimension(collection string, want int, v []float32) error {
	if len(v) != want {
		return &DimensionMismatchError{Collection: collection, Expected: want, Actual: len(v)}
	}
	return nil
}

// ErrInvalidFilter means a filter expression failed to compile.
var ErrInvalidFilter = errors.New("invalid filter")

func unknownCollection(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}
