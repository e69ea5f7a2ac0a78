// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package synth

import (
	"fmt"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/google/go-cmp/cmp"
	"github.com/markus-wa/quickhull-go/v2"
)

// Options

func TestWithEps(t *testing.T) {
	tests := []struct {
		name    string
		eps     float64
		wantErr bool
	}{
		{"eps positive", 0.5, false},
		{"eps zero", 0, true},
		{"eps negative", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{Eps: defaultEps}
			err := WithEps(tt.eps)(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithEps(%v) error = %v, wantErr %v", tt.eps, err, tt.wantErr)
			}
			if err == nil && opts.Eps != tt.eps {
				t.Errorf("WithEps(%v) opts.Eps = %v, want %v", tt.eps, opts.Eps, tt.eps)
			}
		})
	}
}

func TestWithDepths_Copies(t *testing.T) {
	depths := []float64{1, 2}
	opts := &Options{}
	if err := WithDepths(depths)(opts); err != nil {
		t.Fatalf("WithDepths(...) error = %v, want nil", err)
	}
	depths[0] = 99
	if opts.Depths[0] != 1 {
		t.Errorf("opts.Depths[0] = %v, want 1", opts.Depths[0])
	}
}

// RandomPoints

func TestRandomPoints_Length(t *testing.T) {
	for _, cnt := range []int{0, 1, 10, 100} {
		if got := len(RandomPoints(cnt, 42)); got != cnt {
			t.Errorf("len(RandomPoints(%d, 42)) = %d, want %d", cnt, got, cnt)
		}
	}
}

func TestRandomPoints_OnUnitSphere(t *testing.T) {
	for i, p := range RandomPoints(100, 0) {
		if n := p.Norm(); math.Abs(n-1) > 1e-12 {
			t.Errorf("RandomPoints(100, 0)[%d] norm = %v, want ≈1", i, n)
		}
	}
}

func TestRandomPoints_Determinism(t *testing.T) {
	a := RandomPoints(10, 0)
	b := RandomPoints(10, 0)
	if diff := cmp.Diff(b, a, cmp.AllowUnexported(s2.Point{})); diff != "" {
		t.Errorf("RandomPoints(10, 0) mismatch (-want +got):\n%v", diff)
	}
}

// Hull

func TestTriangulate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		sites s2.PointVector
	}{
		{"too few", s2.PointVector{
			s2.PointFromCoords(1, 0, 0),
			s2.PointFromCoords(0, 1, 0),
			s2.PointFromCoords(0, 0, 1),
		}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := triangulate(tt.sites, defaultEps); err == nil {
				t.Errorf("triangulate(...) error = nil, want non-nil")
			}
		})
	}
}

func TestTriangulate_Counterclockwise(t *testing.T) {
	h := mustTriangulate(t, 100)
	if got, want := len(h.tris), 2*100-4; got != want {
		t.Fatalf("len(h.tris) = %d, want %d", got, want)
	}
	for i := range h.tris {
		if a, b, c := h.corners(i); !s2.Sign(a, b, c) {
			t.Errorf("h.tris[%d] = %v is not counterclockwise", i, h.tris[i])
		}
	}
}

func TestTriangulate_Fans(t *testing.T) {
	h := mustTriangulate(t, 100)
	total := 0
	for v, fan := range h.fans {
		total += len(fan)
		for i, cur := range fan {
			next := fan[(i+1)%len(fan)]
			if got := h.edges[[2]int{v, h.before(cur, v)}]; got != next {
				t.Errorf("h.fans[%d][%d] = %d is followed by %d, want %d", v, i, cur, next, got)
			}
		}
	}
	if want := 3 * len(h.tris); total != want {
		t.Errorf("fans hold %d triangles, want %d", total, want)
	}
}

func TestHull_Before(t *testing.T) {
	h := &hull{tris: [][3]int{{4, 7, 9}}}
	tests := []struct {
		v, want int
	}{
		{4, 9},
		{7, 4},
		{9, 7},
		{5, -1},
	}
	for _, tt := range tests {
		if got := h.before(0, tt.v); got != tt.want {
			t.Errorf("h.before(0, %d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestHull_Fan(t *testing.T) {
	// Three triangles around site 0, wound counterclockwise.
	tris := [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}}
	h := &hull{tris: tris, edges: map[[2]int]int{}}
	for ti, tri := range tris {
		for i, a := range tri {
			h.edges[[2]int{a, tri[(i+1)%3]}] = ti
		}
	}
	fan, err := h.fan(0, 1)
	if err != nil {
		t.Fatalf("h.fan(0, 1) error = %v, want nil", err)
	}
	if diff := cmp.Diff([]int{1, 2, 0}, fan); diff != "" {
		t.Errorf("h.fan(0, 1) mismatch (-want +got):\n%s", diff)
	}

	delete(h.edges, [2]int{0, 1})
	if _, err := h.fan(0, 1); err == nil {
		t.Errorf("h.fan(0, 1) on an open fan error = nil, want non-nil")
	}
}

func TestHull_Orient(t *testing.T) {
	h := &hull{sites: s2.PointVector{
		s2.PointFromCoords(1, 0, 0),
		s2.PointFromCoords(0, 1, 0),
		s2.PointFromCoords(0, 0, 1),
	}}
	for _, tri := range [][3]int{{0, 1, 2}, {0, 2, 1}} {
		got := tri
		h.orient(&got)
		if diff := cmp.Diff([3]int{0, 1, 2}, got); diff != "" {
			t.Errorf("h.orient(%v) mismatch (-want +got):\n%s", tri, diff)
		}
	}
}

// Grids

func TestTriangleGrid(t *testing.T) {
	const n = 50
	depths := []float64{10, 20, 40}
	g, err := TriangleGrid(RandomPoints(n, 1), WithDepths(depths))
	if err != nil {
		t.Fatalf("TriangleGrid(...) error = %v, want nil", err)
	}
	// Euler's formula for a triangulated sphere: F = 2V - 4.
	if got, want := g.NumCells(), 2*n-4; got != want {
		t.Errorf("g.NumCells() = %d, want %d", got, want)
	}
	if g.CornersPerCell() != 3 {
		t.Errorf("g.CornersPerCell() = %d, want 3", g.CornersPerCell())
	}
	if diff := cmp.Diff(depths, g.DepthTable); diff != "" {
		t.Errorf("g.DepthTable mismatch (-want +got):\n%s", diff)
	}
	if got := len(g.Fields[CenterLatField]); got != len(depths) {
		t.Errorf("len(g.Fields[%q]) = %d, want %d", CenterLatField, got, len(depths))
	}
	assertCornersCCW(t, g.Lon, g.Lat, 3)
}

func TestVoronoiGrid(t *testing.T) {
	const n = 100
	g, err := VoronoiGrid(RandomPoints(n, 0))
	if err != nil {
		t.Fatalf("VoronoiGrid(...) error = %v, want nil", err)
	}
	if got := g.NumCells(); got != n {
		t.Errorf("g.NumCells() = %d, want %d", got, n)
	}
	if g.CornersPerCell() < 6 {
		t.Errorf("g.CornersPerCell() = %d, want at least 6", g.CornersPerCell())
	}
	if got := len(g.Fields[CenterLatField]); got != 1 {
		t.Errorf("len(g.Fields[%q]) = %d, want 1", CenterLatField, got)
	}
	for i, lat := range g.Lat {
		if math.Abs(lat) > math.Pi/2 || math.Abs(g.Lon[i]) > math.Pi {
			t.Fatalf("corner %d at (%v, %v) outside the lon/lat range", i, g.Lon[i], lat)
		}
	}
	assertCornersCCW(t, g.Lon, g.Lat, g.CornersPerCell())
}

func TestGrid_DegenerateInput(t *testing.T) {
	if _, err := TriangleGrid(RandomPoints(3, 0)); err == nil {
		t.Errorf("TriangleGrid(3 points) error = nil, want non-nil")
	}
	if _, err := VoronoiGrid(RandomPoints(3, 0)); err == nil {
		t.Errorf("VoronoiGrid(3 points) error = nil, want non-nil")
	}
	if _, err := VoronoiGrid(RandomPoints(10, 0), WithEps(0)); err == nil {
		t.Errorf("VoronoiGrid(..., WithEps(0)) error = nil, want non-nil")
	}
}

func TestTriangleCircumcenter(t *testing.T) {
	tests := []struct {
		name       string
		p0, p1, p2 s2.Point
		want       s2.Point
	}{
		{
			"xyz orthonormal",
			s2.PointFromCoords(1, 0, 0),
			s2.PointFromCoords(0, 1, 0),
			s2.PointFromCoords(0, 0, 1),
			s2.PointFromCoords(1, 1, 1),
		},
		{
			"xyz orthonormal reversed",
			s2.PointFromCoords(0, 0, 1),
			s2.PointFromCoords(0, 1, 0),
			s2.PointFromCoords(1, 0, 0),
			s2.PointFromCoords(1, 1, 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := triangleCircumcenter(tt.p0, tt.p1, tt.p2)
			if got.Distance(tt.want) > 1e-9 {
				t.Errorf("triangleCircumcenter(...) = %v, want %v", got, tt.want)
			}
		})
	}
}

// Benchmarks

func BenchmarkConvexHull(b *testing.B) {
	for _, cnt := range []int{1e+2, 1e+3, 1e+4} {
		b.Run(fmt.Sprintf("N%d", cnt), func(b *testing.B) {
			points := RandomPoints(cnt, 0)
			v3 := make([]r3.Vector, len(points))
			for i, p := range points {
				v3[i] = p.Vector
			}
			qh := new(quickhull.QuickHull)

			b.ReportAllocs()
			for b.Loop() {
				qh.ConvexHull(v3, true, true, 0)
			}
		})
	}
}

func BenchmarkVoronoiGrid(b *testing.B) {
	for _, cnt := range []int{1e+2, 1e+3, 1e+4} {
		b.Run(fmt.Sprintf("N%d", cnt), func(b *testing.B) {
			points := RandomPoints(cnt, 0)

			b.ReportAllocs()
			for b.Loop() {
				if _, err := VoronoiGrid(points); err != nil {
					b.Fatalf("VoronoiGrid(...) error = %v, want nil", err)
				}
			}
		})
	}
}

// Helpers

func mustTriangulate(t *testing.T, n int) *hull {
	t.Helper()
	h, err := triangulate(RandomPoints(n, 0), defaultEps)
	if err != nil {
		t.Fatalf("triangulate(...) error = %v, want nil", err)
	}
	return h
}

// assertCornersCCW checks that consecutive distinct corners of every cell
// turn counterclockwise around the cell's mean point, seen from outside.
func assertCornersCCW(t *testing.T, lon, lat []float64, nv int) {
	t.Helper()
	for c := range len(lon) / nv {
		pts := make([]s2.Point, nv)
		var center r3.Vector
		for j := range nv {
			pts[j] = s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(lat[c*nv+j]), Lng: s1.Angle(lon[c*nv+j])})
			center = center.Add(pts[j].Vector)
		}
		for j := range nv {
			a, b := pts[j], pts[(j+1)%nv]
			if a.Distance(b) < 1e-12 {
				continue
			}
			if a.Cross(b.Vector).Dot(center) <= 0 {
				t.Errorf("cell %d corners %d, %d are not CCW", c, j, (j+1)%nv)
			}
		}
	}
}
