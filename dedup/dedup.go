// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package dedup merges near-duplicate cell corners into a unique point list.
package dedup

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/2dChan/icongrid/mesherr"
	"github.com/golang/geo/r2"
)

const (
	defaultTolerance     = 1e-22
	defaultPoleTolerance = 1e-4
)

// Result holds the unique points of a corner list and the remap from each
// corner to its unique point.
type Result struct {
	// Points are normalized (lon in [0, 2π), X=lon, Y=lat) in the order
	// their first corner appears in the input.
	Points []r2.Point
	// Index maps corner i to Points[Index[i]].
	Index []int

	NumOriginal int
	NumUnique   int
}

type Options struct {
	Tolerance     float64
	PoleTolerance float64
}

type Option func(*Options) error

// WithTolerance sets the per-coordinate distance below which two corners are
// the same point.
func WithTolerance(tol float64) Option {
	return func(o *Options) error {
		if tol <= 0 {
			return errors.New("WithTolerance: tolerance must be positive")
		}
		o.Tolerance = tol
		return nil
	}
}

// WithPoleTolerance sets the latitude distance from a pole within which the
// longitude of a corner is forced to zero.
func WithPoleTolerance(tol float64) Option {
	return func(o *Options) error {
		if tol < 0 {
			return errors.New("WithPoleTolerance: tolerance must be non-negative")
		}
		o.PoleTolerance = tol
		return nil
	}
}

// Resolve deduplicates points, given as (lon, lat) in radians.
func Resolve(points []r2.Point, setters ...Option) (*Result, error) {
	opts := Options{
		Tolerance:     defaultTolerance,
		PoleTolerance: defaultPoleTolerance,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	n := len(points)
	norm := make([]r2.Point, n)
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("dedup: corner %d (%g, %g) is not finite: %w",
				i, p.X, p.Y, mesherr.ErrInvalidProjectionInput)
		}
		norm[i] = normalize(p, opts.PoleTolerance)
	}

	same := func(a, b r2.Point) bool {
		return math.Abs(a.X-b.X) < opts.Tolerance && math.Abs(a.Y-b.Y) < opts.Tolerance
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, descending(norm, opts.Tolerance))

	// remap points every corner at the canonical corner of its run.
	remap := make([]int, n)
	canonical := -1
	for _, i := range order {
		if canonical >= 0 && same(norm[i], norm[canonical]) {
			remap[i] = canonical
			continue
		}
		canonical = i
		remap[i] = i
	}

	res := &Result{
		Index:       make([]int, n),
		NumOriginal: n,
	}
	unique := make([]int, n)
	for i := range n {
		if remap[i] == i {
			unique[i] = len(res.Points)
			res.Points = append(res.Points, norm[i])
		}
	}
	for i := range n {
		j := i
		for remap[j] != j {
			j = remap[j]
		}
		res.Index[i] = unique[j]
	}
	res.NumUnique = len(res.Points)
	return res, nil
}

// descending orders corners by longitude then latitude, largest first.
// Coordinates closer than tol compare equal.
func descending(pts []r2.Point, tol float64) func(a, b int) int {
	return func(a, b int) int {
		pa, pb := pts[a], pts[b]
		if d := pa.X - pb.X; math.Abs(d) >= tol {
			if d > 0 {
				return -1
			}
			return 1
		}
		if d := pa.Y - pb.Y; math.Abs(d) >= tol {
			if d > 0 {
				return -1
			}
			return 1
		}
		return 0
	}
}

func normalize(p r2.Point, poleTol float64) r2.Point {
	if math.Pi/2-math.Abs(p.Y) < poleTol {
		return r2.Point{X: 0, Y: p.Y}
	}
	lon := math.Mod(p.X, 2*math.Pi)
	if lon < 0 {
		lon += 2 * math.Pi
	}
	if lon >= 2*math.Pi {
		lon = 0
	}
	return r2.Point{X: lon, Y: p.Y}
}
