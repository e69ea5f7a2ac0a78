// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package mesherr defines the failure kinds shared by the grid reconstruction
// packages. Callers match them with errors.Is.
package mesherr

import "errors"

var (
	// ErrInvalidProjectionInput is returned when a projection produces a
	// non-finite coordinate.
	ErrInvalidProjectionInput = errors.New("invalid projection input")

	// ErrCapacityExceeded is returned when wrap or extrusion synthesizes more
	// geometry than the configured bloat factor allows. A larger bloat factor
	// fixes it.
	ErrCapacityExceeded = errors.New("capacity exceeded, increase the bloat factor")

	// ErrPartitionRangeInvalid is returned for a piece index outside
	// [0, numPieces) or an otherwise impossible partition request.
	ErrPartitionRangeInvalid = errors.New("invalid partition range")

	// ErrDimensionMismatch is returned when input arrays disagree about their
	// sizes.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
