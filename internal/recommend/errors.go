// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

// ErrNotFound means a requested algorithm, post or user does not exist.
var ErrNotFound = catalog.ErrNotFound

// ErrInvalidArgument reports a malformed request.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsVectorFailure reports whether err came from the embedder or the vector
// store and should trigger a fallback rather than fail the request.
func IsVectorFailure(err error) bool {
	return errors.Is(err, embedding.ErrUnavailable) ||
		errors.Is(err, embedding.ErrEmptyText) ||
		errors.Is(err, vectorstore.ErrStoreUnavailable) ||
		errors.Is(err, vectorstore.ErrDimensionMismatch) ||
		errors.Is(err, vectorstore.ErrZeroQuery)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
