// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package extrude

import (
	"fmt"

	"github.com/2dChan/icongrid/mesherr"
	"github.com/golang/geo/r3"
)

// CellType tags a cell with its VTK cell type number.
type CellType uint8

const (
	Triangle        CellType = 5
	Polygon         CellType = 7
	Quad            CellType = 9
	Hexahedron      CellType = 12
	Wedge           CellType = 13
	PentagonalPrism CellType = 15
	HexagonalPrism  CellType = 16
	Polyhedron      CellType = 42
)

func (t CellType) String() string {
	switch t {
	case Triangle:
		return "triangle"
	case Polygon:
		return "polygon"
	case Quad:
		return "quad"
	case Hexahedron:
		return "hexahedron"
	case Wedge:
		return "wedge"
	case PentagonalPrism:
		return "pentagonal prism"
	case HexagonalPrism:
		return "hexagonal prism"
	case Polyhedron:
		return "polyhedron"
	}
	return fmt.Sprintf("CellType(%d)", uint8(t))
}

// Mesh is a reconstructed unstructured grid.
//
// Points are laid out column by column: ring r of surface point p is
// Points[p*Rings+r]. Cells are laid out the same way: level l of surface
// cell c is cell c*Levels+l.
type Mesh struct {
	Points []r3.Vector
	Types  []CellType

	// NOTE: Points of cell i are Connectivity[Offsets[i]:Offsets[i+1]].
	Connectivity []int
	Offsets      []int

	// NOTE: Face stream of cell i is Faces[FaceOffsets[i]:FaceOffsets[i+1]],
	// empty unless Types[i] is Polyhedron. The stream holds the face count
	// followed by, per face, its point count and point indices.
	Faces       []int
	FaceOffsets []int

	// Levels is the number of cells per surface cell, Rings the number of
	// points per surface point. Both are 1 for a single-layer mesh.
	Levels int
	Rings  int

	// Surface cells and points at or beyond NumOriginalCells and
	// NumOriginalPoints are synthesized; CellMap and PointMap name the
	// original each one copies.
	NumSurfaceCells   int
	NumSurfacePoints  int
	NumOriginalCells  int
	NumOriginalPoints int
	CellMap           []int
	PointMap          []int

	// GlobalPointIDs optionally holds a grid-wide identifier per surface
	// point, shared by every worker that sees the point.
	GlobalPointIDs []int
}

// NumCells returns the number of cells in m.
func (m *Mesh) NumCells() int {
	return len(m.Types)
}

// Cell returns the cell at index i.
// It returns an error if the index is out of range.
func (m *Mesh) Cell(i int) (Cell, error) {
	if i < 0 || i >= m.NumCells() {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, m.NumCells())
	}
	return Cell{idx: i, m: m}, nil
}

// OriginalCell returns the original surface cell that surface cell c copies,
// or c itself if it was not synthesized.
func (m *Mesh) OriginalCell(c int) int {
	if c < m.NumOriginalCells {
		return c
	}
	return m.CellMap[c-m.NumOriginalCells]
}

// OriginalPoint returns the original surface point that surface point p
// copies, or p itself if it was not synthesized.
func (m *Mesh) OriginalPoint(p int) int {
	if p < m.NumOriginalPoints {
		return p
	}
	return m.PointMap[p-m.NumOriginalPoints]
}

// CellData spreads values given per original surface cell, level-major
// (values[l*NumOriginalCells+c]), onto every cell of m.
func (m *Mesh) CellData(values []float64) ([]float64, error) {
	if len(values) != m.Levels*m.NumOriginalCells {
		return nil, fmt.Errorf("extrude: %d cell values for %d levels of %d cells: %w",
			len(values), m.Levels, m.NumOriginalCells, mesherr.ErrDimensionMismatch)
	}
	out := make([]float64, 0, m.NumCells())
	for c := range m.NumSurfaceCells {
		orig := m.OriginalCell(c)
		for l := range m.Levels {
			out = append(out, values[l*m.NumOriginalCells+orig])
		}
	}
	return out, nil
}

// PointData spreads values given per original surface point onto every
// point of m, repeating each value down its column.
func (m *Mesh) PointData(values []float64) ([]float64, error) {
	if len(values) != m.NumOriginalPoints {
		return nil, fmt.Errorf("extrude: %d point values for %d points: %w",
			len(values), m.NumOriginalPoints, mesherr.ErrDimensionMismatch)
	}
	out := make([]float64, 0, len(m.Points))
	for p := range m.NumSurfacePoints {
		v := values[m.OriginalPoint(p)]
		for range m.Rings {
			out = append(out, v)
		}
	}
	return out, nil
}

// Cell represents a mesh cell. It is a view structure for accessing a cell
// in a Mesh.
type Cell struct {
	idx int
	m   *Mesh
}

// Index returns the index of the cell in the Mesh.
func (c Cell) Index() int {
	return c.idx
}

// Type returns the VTK type of the cell.
func (c Cell) Type() CellType {
	return c.m.Types[c.idx]
}

// Surface returns the index of the surface cell the cell was built from.
func (c Cell) Surface() int {
	return c.idx / c.m.Levels
}

// Level returns the vertical level of the cell, 0 at the surface.
func (c Cell) Level() int {
	return c.idx % c.m.Levels
}

// NumPoints returns the number of points of the cell.
func (c Cell) NumPoints() int {
	return c.m.Offsets[c.idx+1] - c.m.Offsets[c.idx]
}

// PointIndices returns the indices of the cell's points in the Mesh's Points.
func (c Cell) PointIndices() []int {
	return c.m.Connectivity[c.m.Offsets[c.idx]:c.m.Offsets[c.idx+1]]
}

// Point returns the point at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Point(i int) (r3.Vector, error) {
	start := c.m.Offsets[c.idx]
	end := c.m.Offsets[c.idx+1]
	if i < 0 || i >= end-start {
		return r3.Vector{}, fmt.Errorf("Point: index %d out of range [0 %d)", i, end-start)
	}
	return c.m.Points[c.m.Connectivity[start+i]], nil
}

// Faces returns the face stream of a polyhedral cell, or nil.
func (c Cell) Faces() []int {
	start, end := c.m.FaceOffsets[c.idx], c.m.FaceOffsets[c.idx+1]
	if start == end {
		return nil
	}
	return c.m.Faces[start:end]
}
