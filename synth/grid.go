// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package synth generates synthetic icosahedral-style grids for tests,
// examples and benchmarks: Delaunay triangle grids and their Voronoi duals.
package synth

import (
	"errors"
	"math"
	"math/rand"

	"github.com/2dChan/icongrid/cdi"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const defaultEps = 1e-12

// CenterLatField is the per-cell field holding the latitude of the cell
// center in degrees, repeated for every level.
const CenterLatField = "center_lat"

// RandomPoints generates a vector of random points on the S2 sphere.
// The seed parameter ensures reproducibility.
func RandomPoints(cnt int, seed int64) s2.PointVector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	sites := make(s2.PointVector, cnt)
	for i := range cnt {
		sites[i] = s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle((random.Float64() - 0.5) * math.Pi),
			Lng: s1.Angle((random.Float64()*2 - 1) * math.Pi),
		})
	}
	return sites
}

type Options struct {
	Eps    float64
	Depths []float64
}

type Option func(*Options) error

// WithEps sets the quickhull tolerance.
func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 {
			return errors.New("WithEps: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

// WithDepths sets the depth table of the generated grid.
func WithDepths(depths []float64) Option {
	return func(o *Options) error {
		o.Depths = append([]float64(nil), depths...)
		return nil
	}
}

// TriangleGrid returns a grid whose cells are the Delaunay triangles of
// points, corners in radians and CCW.
func TriangleGrid(points s2.PointVector, setters ...Option) (*cdi.Memory, error) {
	opts, h, err := prepare(points, setters)
	if err != nil {
		return nil, err
	}
	cs := newCellCorners(len(h.tris), 3)
	for t := range h.tris {
		a, b, c := h.corners(t)
		cs.add(a)
		cs.add(b)
		cs.add(c)
		cs.center(s2.PlanarCentroid(a, b, c))
	}
	return cs.grid(opts)
}

// VoronoiGrid returns the Voronoi dual of the Delaunay triangulation of
// points: one cell per point, corners at triangle circumcenters in CCW
// order. Cells with fewer corners than the largest one repeat their last
// corner.
func VoronoiGrid(points s2.PointVector, setters ...Option) (*cdi.Memory, error) {
	opts, h, err := prepare(points, setters)
	if err != nil {
		return nil, err
	}
	circum := make([]s2.Point, len(h.tris))
	for t := range h.tris {
		circum[t] = triangleCircumcenter(h.corners(t))
	}
	nv := 0
	for _, fan := range h.fans {
		nv = max(nv, len(fan))
	}

	cs := newCellCorners(len(h.sites), nv)
	for v, fan := range h.fans {
		for j := range nv {
			cs.add(circum[fan[min(j, len(fan)-1)]])
		}
		cs.center(h.sites[v])
	}
	return cs.grid(opts)
}

func prepare(points s2.PointVector, setters []Option) (Options, *hull, error) {
	opts := Options{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return opts, nil, err
		}
	}
	h, err := triangulate(points, opts.Eps)
	return opts, h, err
}

// cellCorners collects cell corners as the flat lon/lat arrays of a grid.
type cellCorners struct {
	nv       int
	lon, lat []float64
	centers  []float64
}

func newCellCorners(cells, nv int) *cellCorners {
	return &cellCorners{
		nv:      nv,
		lon:     make([]float64, 0, cells*nv),
		lat:     make([]float64, 0, cells*nv),
		centers: make([]float64, 0, cells),
	}
}

func (cs *cellCorners) add(p s2.Point) {
	ll := s2.LatLngFromPoint(p)
	cs.lon = append(cs.lon, ll.Lng.Radians())
	cs.lat = append(cs.lat, ll.Lat.Radians())
}

// center closes the current cell with its center p.
func (cs *cellCorners) center(p s2.Point) {
	cs.centers = append(cs.centers, s2.LatLngFromPoint(p).Lat.Degrees())
}

func (cs *cellCorners) grid(opts Options) (*cdi.Memory, error) {
	return newGrid(cs.lon, cs.lat, cs.nv, cs.centers, opts)
}

func newGrid(lon, lat []float64, nv int, centers []float64, opts Options) (*cdi.Memory, error) {
	m, err := cdi.NewMemory(lon, lat, nv, cdi.Radian)
	if err != nil {
		return nil, err
	}
	m.DepthTable = opts.Depths
	levels := max(len(opts.Depths), 1)
	field := make([][]float64, levels)
	for l := range levels {
		field[l] = centers
	}
	m.Fields[CenterLatField] = field
	return m, nil
}

// triangleCircumcenter returns the circumcenter of a spherical triangle on
// the unit sphere, on the triangle's side of the sphere.
func triangleCircumcenter(p1, p2, p3 s2.Point) s2.Point {
	v1 := p1.Sub(p2.Vector)
	v2 := p2.Sub(p3.Vector)

	circumcenter := v1.Cross(v2)
	if circumcenter.Dot(p1.Vector.Add(p2.Vector).Add(p3.Vector)) < 0 {
		circumcenter = circumcenter.Mul(-1)
	}
	return s2.Point{Vector: circumcenter.Normalize()}
}
