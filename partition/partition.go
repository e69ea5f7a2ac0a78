// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package partition splits a grid's cells into contiguous per-worker ranges.
package partition

import (
	"fmt"

	"github.com/2dChan/icongrid/mesherr"
)

// Range is the block of cells and their corners owned by one worker.
// All bounds are inclusive; an empty range has EndCell == BeginCell-1.
type Range struct {
	BeginCell, EndCell   int
	BeginPoint, EndPoint int
}

// NumCells returns the number of cells in r.
func (r Range) NumCells() int {
	return r.EndCell - r.BeginCell + 1
}

// NumPoints returns the number of cell corners in r.
func (r Range) NumPoints() int {
	return r.EndPoint - r.BeginPoint + 1
}

// Empty reports whether r owns no cells.
func (r Range) Empty() bool {
	return r.NumCells() <= 0
}

// Compute returns the range of piece out of numPieces for a grid of
// numCells cells with cornersPerCell corners each. Every piece but the last
// gets numCells/numPieces cells; the last absorbs the remainder.
func Compute(numCells, cornersPerCell, piece, numPieces int) (Range, error) {
	if numPieces < 1 {
		return Range{}, fmt.Errorf("partition: %d pieces: %w", numPieces, mesherr.ErrPartitionRangeInvalid)
	}
	if piece < 0 || piece >= numPieces {
		return Range{}, fmt.Errorf("partition: piece %d out of range [0 %d): %w",
			piece, numPieces, mesherr.ErrPartitionRangeInvalid)
	}
	if numCells < 0 || cornersPerCell < 1 {
		return Range{}, fmt.Errorf("partition: %d cells with %d corners: %w",
			numCells, cornersPerCell, mesherr.ErrPartitionRangeInvalid)
	}

	var r Range
	if numPieces == 1 {
		r = Range{BeginCell: 0, EndCell: numCells - 1}
	} else {
		per := numCells / numPieces
		r.BeginCell = piece * per
		r.EndCell = r.BeginCell + per - 1
		if piece == numPieces-1 {
			r.EndCell = numCells - 1
		}
	}
	r.BeginPoint = r.BeginCell * cornersPerCell
	r.EndPoint = (r.EndCell+1)*cornersPerCell - 1
	return r, nil
}

// All returns the ranges of every piece, in piece order.
func All(numCells, cornersPerCell, numPieces int) ([]Range, error) {
	if numPieces < 1 {
		return nil, fmt.Errorf("partition: %d pieces: %w", numPieces, mesherr.ErrPartitionRangeInvalid)
	}
	ranges := make([]Range, numPieces)
	for i := range numPieces {
		r, err := Compute(numCells, cornersPerCell, i, numPieces)
		if err != nil {
			return nil, err
		}
		ranges[i] = r
	}
	return ranges, nil
}
