// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package extrude turns a projected surface mesh into a single-layer mesh
// of polygons or a stack of prism layers following a depth table.
package extrude

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/icongrid/mesherr"
	"github.com/2dChan/icongrid/projection"
	"github.com/2dChan/icongrid/wrap"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultLayerThickness = 50.0
	defaultBloatFactor    = 2.0
)

// ErrInvalidDepths is returned in multilayer mode for an empty depth table,
// a non-finite depth, or a table that is not monotone starting from the
// surface at zero.
var ErrInvalidDepths = errors.New("invalid depth table")

type Options struct {
	Multilayer     bool
	InvertZ        bool
	LayerThickness float64
	BloatFactor    float64
}

type Option func(*Options) error

func WithMultilayer(on bool) Option {
	return func(o *Options) error {
		o.Multilayer = on
		return nil
	}
}

// WithInvertZ makes depth grow upward (planar) or outward (spherical).
func WithInvertZ(on bool) Option {
	return func(o *Options) error {
		o.InvertZ = on
		return nil
	}
}

// WithLayerThickness sets the vertical exaggeration applied to depths.
func WithLayerThickness(t float64) Option {
	return func(o *Options) error {
		if !(t > 0) || math.IsInf(t, 1) {
			return fmt.Errorf("WithLayerThickness: thickness %v must be positive and finite", t)
		}
		o.LayerThickness = t
		return nil
	}
}

// WithBloatFactor bounds the output to factor times the original surface
// cells and points, per level.
func WithBloatFactor(factor float64) Option {
	return func(o *Options) error {
		if factor < 1 {
			return errors.New("WithBloatFactor: factor must be at least 1")
		}
		o.BloatFactor = factor
		return nil
	}
}

// Extrude builds a Mesh from surf, whose cells have cornersPerCell corners
// each. depths is read only in multilayer mode, where depths[l] is the
// bottom of level l in meters.
func Extrude(surf *wrap.Result, cornersPerCell int, depths []float64, mode projection.Mode,
	setters ...Option) (*Mesh, error) {
	opts := Options{
		LayerThickness: defaultLayerThickness,
		BloatFactor:    defaultBloatFactor,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("extrude: unknown projection mode %v", mode)
	}
	if cornersPerCell < 3 || len(surf.Connectivity)%cornersPerCell != 0 {
		return nil, fmt.Errorf("extrude: connectivity length %d is not a multiple of %d corners: %w",
			len(surf.Connectivity), cornersPerCell, mesherr.ErrDimensionMismatch)
	}
	numCells := len(surf.Connectivity) / cornersPerCell
	if numCells != surf.NumCells() || len(surf.Points) != surf.NumOriginalPoints+len(surf.PointMap) {
		return nil, fmt.Errorf("extrude: %d cells and %d points disagree with the surface maps: %w",
			numCells, len(surf.Points), mesherr.ErrDimensionMismatch)
	}

	levels := 1
	var rising bool
	if opts.Multilayer {
		var err error
		if rising, err = checkDepths(depths); err != nil {
			return nil, err
		}
		levels = len(depths)
	}
	rings := levels
	if opts.Multilayer {
		rings = levels + 1
	}

	maxPoints := int(math.Floor(opts.BloatFactor*float64(surf.NumOriginalPoints))) * rings
	maxCells := int(math.Floor(opts.BloatFactor*float64(surf.NumOriginalCells))) * levels
	if n := len(surf.Points) * rings; n > maxPoints {
		return nil, fmt.Errorf("extrude: %d points exceed %d: %w", n, maxPoints, mesherr.ErrCapacityExceeded)
	}
	if n := numCells * levels; n > maxCells {
		return nil, fmt.Errorf("extrude: %d cells exceed %d: %w", n, maxCells, mesherr.ErrCapacityExceeded)
	}

	m := &Mesh{
		Levels:            levels,
		Rings:             rings,
		NumSurfaceCells:   numCells,
		NumSurfacePoints:  len(surf.Points),
		NumOriginalCells:  surf.NumOriginalCells,
		NumOriginalPoints: surf.NumOriginalPoints,
		CellMap:           append([]int(nil), surf.CellMap...),
		PointMap:          append([]int(nil), surf.PointMap...),
	}
	if !opts.Multilayer {
		m.Points = append(make([]r3.Vector, 0, len(surf.Points)), surf.Points...)
		flat(m, surf.Connectivity, cornersPerCell)
		return m, nil
	}

	scale := projection.Scaling(mode, true, levels, opts.LayerThickness).Z
	if opts.InvertZ {
		scale = -scale
	}
	pts, err := columns(surf.Points, depths, scale, mode)
	if err != nil {
		return nil, err
	}
	m.Points = pts
	layers(m, surf.Connectivity, cornersPerCell, opts.InvertZ != rising)
	return m, nil
}

// checkDepths reports whether depths decrease from the surface, as height
// tables given as negative depths do.
func checkDepths(depths []float64) (bool, error) {
	if len(depths) == 0 {
		return false, fmt.Errorf("extrude: empty depth table: %w", ErrInvalidDepths)
	}
	if floats.HasNaN(depths) {
		return false, fmt.Errorf("extrude: depth table has NaN: %w", ErrInvalidDepths)
	}
	dir, prev := 0.0, 0.0
	for l, d := range depths {
		if math.IsInf(d, 0) {
			return false, fmt.Errorf("extrude: depth[%d] = %v: %w", l, d, ErrInvalidDepths)
		}
		switch step := d - prev; {
		case dir == 0:
			dir = step
		case step*dir < 0:
			return false, fmt.Errorf("extrude: depth[%d] = %v after %v reverses the table: %w",
				l, d, prev, ErrInvalidDepths)
		}
		prev = d
	}
	return dir < 0, nil
}

// columns returns the ring points of every surface point, surface first.
func columns(surface []r3.Vector, depths []float64, scale float64, mode projection.Mode) ([]r3.Vector, error) {
	rings := len(depths) + 1
	pts := make([]r3.Vector, 0, len(surface)*rings)
	for _, p := range surface {
		pts = append(pts, p)
		for _, d := range depths {
			if mode.IsPlanar() {
				pts = append(pts, r3.Vector{X: p.X, Y: p.Y, Z: p.Z - d*scale})
				continue
			}
			r := 1 - d*scale
			if r <= 0 {
				return nil, fmt.Errorf("extrude: depth %v collapses the sphere: %w", d, ErrInvalidDepths)
			}
			pts = append(pts, p.Mul(r))
		}
	}
	return pts, nil
}

func flat(m *Mesh, conn []int, k int) {
	t := Polygon
	switch k {
	case 3:
		t = Triangle
	case 4:
		t = Quad
	}
	n := m.NumSurfaceCells
	m.Types = make([]CellType, n)
	m.Offsets = make([]int, n+1)
	m.FaceOffsets = make([]int, n+1)
	m.Connectivity = append(make([]int, 0, len(conn)), conn...)
	for c := range n {
		m.Types[c] = t
		m.Offsets[c+1] = (c + 1) * k
	}
}

// layers appends one prism per surface cell and level. Rings deeper in the
// column lie below the surface unless invert is set.
func layers(m *Mesh, conn []int, k int, invert bool) {
	n := m.NumSurfaceCells * m.Levels
	m.Types = make([]CellType, 0, n)
	m.Offsets = make([]int, 1, n+1)
	m.FaceOffsets = make([]int, 1, n+1)
	m.Connectivity = make([]int, 0, n*2*k)

	shallow := make([]int, k)
	deep := make([]int, k)
	for c := range m.NumSurfaceCells {
		cell := conn[c*k : (c+1)*k]
		for l := range m.Levels {
			for i, p := range cell {
				shallow[i] = p*m.Rings + l
				deep[i] = p*m.Rings + l + 1
			}
			bottom, top := deep, shallow
			if invert {
				bottom, top = shallow, deep
			}
			m.appendPrism(k, bottom, top)
		}
	}
}

// appendPrism adds the cell between the bottom and top rings, both wound
// counterclockwise seen from above.
func (m *Mesh) appendPrism(k int, bottom, top []int) {
	switch k {
	case 3:
		// The wedge base faces away from the opposite triangle.
		m.Types = append(m.Types, Wedge)
		m.Connectivity = append(append(m.Connectivity, top...), bottom...)
	case 4, 5, 6:
		// The base faces toward the opposite face.
		m.Types = append(m.Types, prismTypes[k])
		m.Connectivity = append(append(m.Connectivity, bottom...), top...)
	default:
		m.Types = append(m.Types, Polyhedron)
		m.Connectivity = append(append(m.Connectivity, bottom...), top...)
		m.Faces = appendFaces(m.Faces, bottom, top)
	}
	m.Offsets = append(m.Offsets, len(m.Connectivity))
	m.FaceOffsets = append(m.FaceOffsets, len(m.Faces))
}

var prismTypes = map[int]CellType{4: Hexahedron, 5: PentagonalPrism, 6: HexagonalPrism}

// appendFaces appends the face stream of a k-gonal prism with every face
// wound counterclockwise seen from outside.
func appendFaces(faces, bottom, top []int) []int {
	k := len(bottom)
	faces = append(faces, k+2, k)
	for i := k - 1; i >= 0; i-- {
		faces = append(faces, bottom[i])
	}
	faces = append(faces, k)
	faces = append(faces, top...)
	for i := range k {
		j := (i + 1) % k
		faces = append(faces, 4, bottom[i], bottom[j], top[j], top[i])
	}
	return faces
}
