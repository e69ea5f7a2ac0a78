// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package synth

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/markus-wa/quickhull-go/v2"
)

// hull is the convex hull of sites on the unit sphere, which is also their
// spherical Delaunay triangulation.
type hull struct {
	sites s2.PointVector
	// tris wind counterclockwise seen from outside the sphere.
	tris [][3]int
	// fans[v] lists the triangles around site v counterclockwise.
	fans [][]int
	// edges maps the directed edge {a, b} to the triangle holding it.
	edges map[[2]int]int
}

// triangulate returns the hull of sites. Every site must be a hull vertex,
// so sites must lie on the unit sphere and be pairwise distinct.
func triangulate(sites s2.PointVector, eps float64) (*hull, error) {
	n := len(sites)
	if n < 4 {
		return nil, fmt.Errorf("synth: %d sites, need at least 4 to triangulate", n)
	}
	vs := make([]r3.Vector, n)
	for i, p := range sites {
		vs[i] = p.Vector
	}
	ch := new(quickhull.QuickHull).ConvexHull(vs, true, true, eps)
	// A closed triangulated sphere has 2n-4 faces.
	if want := 3 * (2*n - 4); len(ch.Indices) != want {
		return nil, fmt.Errorf("synth: hull has %d corner indices, want %d", len(ch.Indices), want)
	}

	h := &hull{
		sites: sites,
		tris:  make([][3]int, len(ch.Indices)/3),
		edges: make(map[[2]int]int, len(ch.Indices)),
	}
	for t := range h.tris {
		tri := [3]int{ch.Indices[3*t], ch.Indices[3*t+1], ch.Indices[3*t+2]}
		h.orient(&tri)
		h.tris[t] = tri
		for i, a := range tri {
			h.edges[[2]int{a, tri[(i+1)%3]}] = t
		}
	}
	if len(h.edges) != len(ch.Indices) {
		return nil, fmt.Errorf("synth: hull repeats a directed edge")
	}

	first := make([]int, n)
	for v := range first {
		first[v] = -1
	}
	for t, tri := range h.tris {
		for _, v := range tri {
			if first[v] < 0 {
				first[v] = t
			}
		}
	}
	h.fans = make([][]int, n)
	for v, t := range first {
		if t < 0 {
			return nil, fmt.Errorf("synth: site %d is not a hull vertex", v)
		}
		fan, err := h.fan(v, t)
		if err != nil {
			return nil, err
		}
		h.fans[v] = fan
	}
	return h, nil
}

// orient makes tri counterclockwise seen from outside the sphere.
func (h *hull) orient(tri *[3]int) {
	a, b, c := h.sites[tri[0]], h.sites[tri[1]], h.sites[tri[2]]
	if s2.RobustSign(a, b, c) == s2.Clockwise {
		tri[1], tri[2] = tri[2], tri[1]
	}
}

// before returns the corner preceding v in triangle t, or -1 when t does
// not hold v.
func (h *hull) before(t, v int) int {
	tri := h.tris[t]
	for i, w := range tri {
		if w == v {
			return tri[(i+2)%3]
		}
	}
	return -1
}

// fan walks around v from triangle start. The triangle holding (v, a, b)
// is followed by the one holding the edge from v to b.
func (h *hull) fan(v, start int) ([]int, error) {
	fan := []int{start}
	for t := start; ; {
		next, ok := h.edges[[2]int{v, h.before(t, v)}]
		if !ok {
			return nil, fmt.Errorf("synth: fan of site %d is open at triangle %d", v, t)
		}
		if next == start {
			return fan, nil
		}
		if len(fan) == len(h.tris) {
			return nil, fmt.Errorf("synth: fan of site %d does not close", v)
		}
		fan = append(fan, next)
		t = next
	}
}

// corners returns the sites of triangle t.
func (h *hull) corners(t int) (s2.Point, s2.Point, s2.Point) {
	tri := h.tris[t]
	return h.sites[tri[0]], h.sites[tri[1]], h.sites[tri[2]]
}
