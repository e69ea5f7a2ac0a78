// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package wrap splits cells that straddle the periodic seam of a planar
// projection into two non-wrapping copies, one on each side of the seam.
package wrap

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/icongrid/mesherr"
	"github.com/golang/geo/r3"
)

const (
	defaultTolerance   = 1.0
	defaultBloatFactor = 2.0
)

// Result is a wrap-safe copy of a mesh. Cells and points at or beyond
// NumOriginalCells / NumOriginalPoints are synthesized.
type Result struct {
	Points       []r3.Vector
	Connectivity []int
	// CellMap[i] is the original cell mirrored by cell NumOriginalCells+i.
	CellMap []int
	// PointMap[i] is the original point shifted into point NumOriginalPoints+i.
	PointMap []int

	NumOriginalCells  int
	NumOriginalPoints int
}

// NumCells returns the number of cells in r, synthesized ones included.
func (r *Result) NumCells() int {
	return r.NumOriginalCells + len(r.CellMap)
}

type Options struct {
	Axis        int
	Period      float64
	Tolerance   float64
	BloatFactor float64

	// Center is the middle of the coordinate domain along Axis. Mirrored
	// cells are shifted toward it.
	Center float64
}

type Option func(*Options) error

// WithAxis sets the periodic axis (0 x, 1 y, 2 z), its period and the
// center of the coordinate domain along it, e.g. 0 for (-π, π] or π for
// [0, 2π).
func WithAxis(axis int, period, center float64) Option {
	return func(o *Options) error {
		if axis < 0 || axis > 2 {
			return fmt.Errorf("WithAxis: axis %d out of range [0 3)", axis)
		}
		if period <= 0 {
			return errors.New("WithAxis: period must be positive")
		}
		if math.IsNaN(center) || math.IsInf(center, 0) {
			return errors.New("WithAxis: center must be finite")
		}
		o.Axis = axis
		o.Period = period
		o.Center = center
		return nil
	}
}

// WithTolerance sets the largest coordinate jump along the axis between
// adjacent corners that does not count as crossing the seam.
func WithTolerance(tol float64) Option {
	return func(o *Options) error {
		if tol <= 0 {
			return errors.New("WithTolerance: tolerance must be positive")
		}
		o.Tolerance = tol
		return nil
	}
}

// WithBloatFactor bounds the output to factor times the input cells and
// points.
func WithBloatFactor(factor float64) Option {
	return func(o *Options) error {
		if factor < 1 {
			return errors.New("WithBloatFactor: factor must be at least 1")
		}
		o.BloatFactor = factor
		return nil
	}
}

// Apply returns a copy of the mesh given by points and conn, cornersPerCell
// indices per cell, in which every cell crossing the seam is replaced by a
// copy on its first corner's side plus a mirrored copy on the other side.
func Apply(points []r3.Vector, conn []int, cornersPerCell int, setters ...Option) (*Result, error) {
	opts := Options{
		Axis:        0,
		Period:      2 * math.Pi,
		Tolerance:   defaultTolerance,
		BloatFactor: defaultBloatFactor,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if err := checkConnectivity(len(points), conn, cornersPerCell); err != nil {
		return nil, err
	}

	numCells := len(conn) / cornersPerCell
	w := &wrapper{
		opts:      opts,
		maxPoints: int(math.Floor(opts.BloatFactor * float64(len(points)))),
		maxCells:  int(math.Floor(opts.BloatFactor * float64(numCells))),
		res: &Result{
			Points:            append(make([]r3.Vector, 0, len(points)), points...),
			Connectivity:      append(make([]int, 0, len(conn)), conn...),
			NumOriginalCells:  numCells,
			NumOriginalPoints: len(points),
		},
	}
	for c := range numCells {
		cell := conn[c*cornersPerCell : (c+1)*cornersPerCell]
		if !w.straddles(points, cell) {
			continue
		}
		if err := w.split(points, c, cell); err != nil {
			return nil, err
		}
	}
	return w.res, nil
}

type wrapper struct {
	opts      Options
	maxPoints int
	maxCells  int
	res       *Result
}

func (w *wrapper) coord(p r3.Vector) float64 {
	switch w.opts.Axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	}
	return p.Z
}

func (w *wrapper) shift(p r3.Vector, d float64) r3.Vector {
	switch w.opts.Axis {
	case 0:
		p.X += d
	case 1:
		p.Y += d
	default:
		p.Z += d
	}
	return p
}

func (w *wrapper) straddles(points []r3.Vector, cell []int) bool {
	prev := w.coord(points[cell[len(cell)-1]])
	for _, idx := range cell {
		cur := w.coord(points[idx])
		if math.Abs(cur-prev) > w.opts.Tolerance {
			return true
		}
		prev = cur
	}
	return false
}

// split rewrites cell c onto its anchor's side and appends the mirrored cell.
func (w *wrapper) split(points []r3.Vector, c int, cell []int) error {
	anchor := w.coord(points[cell[0]])
	base := c * len(cell)
	for j := 1; j < len(cell); j++ {
		idx, err := w.toward(points, cell[j], anchor)
		if err != nil {
			return err
		}
		w.res.Connectivity[base+j] = idx
	}

	if w.res.NumCells() >= w.maxCells {
		return fmt.Errorf("wrap: cell %d needs more than %d cells: %w", c, w.maxCells, mesherr.ErrCapacityExceeded)
	}
	d := w.opts.Period
	if anchor > w.opts.Center {
		d = -d
	}
	mirror, err := w.addPoint(w.shift(points[cell[0]], d), cell[0])
	if err != nil {
		return err
	}
	mirrored := make([]int, len(cell))
	mirrored[0] = mirror
	for j := 1; j < len(cell); j++ {
		if mirrored[j], err = w.toward(points, cell[j], anchor+d); err != nil {
			return err
		}
	}
	w.res.Connectivity = append(w.res.Connectivity, mirrored...)
	w.res.CellMap = append(w.res.CellMap, c)
	return nil
}

// toward returns idx if the point lies within tolerance of anchor along the
// axis, or a new copy of it shifted one period toward anchor.
func (w *wrapper) toward(points []r3.Vector, idx int, anchor float64) (int, error) {
	v := w.coord(points[idx])
	if math.Abs(v-anchor) <= w.opts.Tolerance {
		return idx, nil
	}
	d := w.opts.Period
	if v > anchor {
		d = -d
	}
	return w.addPoint(w.shift(points[idx], d), idx)
}

func (w *wrapper) addPoint(p r3.Vector, orig int) (int, error) {
	if len(w.res.Points) >= w.maxPoints {
		return 0, fmt.Errorf("wrap: point %d needs more than %d points: %w",
			orig, w.maxPoints, mesherr.ErrCapacityExceeded)
	}
	w.res.Points = append(w.res.Points, p)
	w.res.PointMap = append(w.res.PointMap, orig)
	return len(w.res.Points) - 1, nil
}

func checkConnectivity(numPoints int, conn []int, cornersPerCell int) error {
	if cornersPerCell < 1 || len(conn)%cornersPerCell != 0 {
		return fmt.Errorf("wrap: connectivity length %d is not a multiple of %d corners: %w",
			len(conn), cornersPerCell, mesherr.ErrDimensionMismatch)
	}
	for i, idx := range conn {
		if idx < 0 || idx >= numPoints {
			return fmt.Errorf("wrap: connectivity[%d] = %d out of range [0 %d): %w",
				i, idx, numPoints, mesherr.ErrDimensionMismatch)
		}
	}
	return nil
}
