// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package projection maps geographic coordinates in radians to Cartesian
// coordinates under one of several map projections.
package projection

import (
	"fmt"
	"math"

	"github.com/2dChan/icongrid/mesherr"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadius is the mean Earth radius in meters. Depths are converted to
// arc units on the unit sphere with it.
const EarthRadius = 6371000.0

const (
	mollweideIterations = 5

	spilhouseAxisAngle = 3.57792
	spilhouseRotation  = 1.0472
	// Reference offsets applied after the rotation.
	spilhouseLonOffset = 0.70124
	spilhouseLatOffset = 0.0

	// Complete elliptic integral of the first kind for k²=0.5.
	ellipticQuarter = 1.8540746773013719
)

var spilhouseAxis = r3.Vector{X: math.Cos(spilhouseAxisAngle), Y: math.Sin(spilhouseAxisAngle)}

// Project maps (lon, lat), both in radians, to Cartesian coordinates under
// mode. It returns an error wrapping mesherr.ErrInvalidProjectionInput
// instead of a non-finite result.
func Project(lon, lat float64, mode Mode) (r3.Vector, error) {
	var p r3.Vector
	switch mode {
	case Spherical:
		p = s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle(lon)}).Vector
	case CylindricalEquidistant, Passthrough:
		p = r3.Vector{X: lon, Y: lat}
	case Cassini:
		p = r3.Vector{
			X: math.Asin(clamp(math.Cos(lat) * math.Sin(lon))),
			Y: math.Atan2(math.Sin(lat), math.Cos(lat)*math.Cos(lon)),
		}
	case Mollweide:
		theta, _ := mollweideTheta(lat)
		p = r3.Vector{
			X: 2 * math.Sqrt2 / math.Pi * lon * math.Cos(theta),
			Y: math.Sqrt2 * math.Sin(theta),
		}
	case Spilhouse:
		x, y := spilhouse(lon, lat)
		p = r3.Vector{X: x, Y: y}
	default:
		return r3.Vector{}, fmt.Errorf("projection: %v: %w", mode, mesherr.ErrInvalidProjectionInput)
	}
	if !finite(p) {
		return r3.Vector{}, fmt.Errorf("projection: %v of (%g, %g) is not finite: %w",
			mode, lon, lat, mesherr.ErrInvalidProjectionInput)
	}
	return p, nil
}

// Scaling returns display scale factors for mode. The z factor converts a
// depth in meters into projected units and is zero unless multilayer output
// with at least one level is requested.
func Scaling(mode Mode, multilayer bool, vertLevels int, layerThickness float64) r3.Vector {
	s := r3.Vector{X: 1, Y: 1}
	if mode == Spilhouse {
		// Stretch the Adams square to span [-π, π] like the other planar modes.
		s.X = math.Pi / ellipticQuarter
		s.Y = s.X
	}
	if multilayer && vertLevels > 0 {
		s.Z = layerThickness / EarthRadius
	}
	return s
}

// mollweideTheta solves 2θ + sin(2θ) = π·sin(lat) by Newton iteration and
// reports how many iterations ran.
func mollweideTheta(lat float64) (float64, int) {
	if lat == math.Pi/2 || lat == -math.Pi/2 {
		return lat, 0
	}
	target := math.Pi * math.Sin(lat)
	theta := lat
	n := 0
	for ; n < mollweideIterations; n++ {
		den := 2 + 2*math.Cos(2*theta)
		if den < 1e-12 {
			break
		}
		theta -= (2*theta + math.Sin(2*theta) - target) / den
	}
	return math.Max(-math.Pi/2, math.Min(math.Pi/2, theta)), n
}

// spilhouse rotates the sphere so the world ocean is centered and applies
// the Adams world-in-a-square II projection.
func spilhouse(lon, lat float64) (float64, float64) {
	v := s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle(lon)}).Vector
	v = rotate(v, spilhouseAxis, spilhouseRotation)

	rlat := math.Asin(clamp(v.Z)) - spilhouseLatOffset
	rlon := math.Remainder(math.Atan2(v.Y, v.X)-spilhouseLonOffset, 2*math.Pi)
	rlat = math.Max(-math.Pi/2, math.Min(math.Pi/2, rlat))

	spp := math.Tan(0.5 * rlat)
	a := math.Cos(math.Asin(clamp(spp))) * math.Sin(0.5*rlon)
	sm := spp+a < 0
	sn := spp-a < 0
	b := math.Acos(clamp(spp))
	a = math.Acos(clamp(a))

	m := math.Asin(clamp(math.Sqrt(math.Abs(1 + math.Min(0, math.Cos(a+b))))))
	if sm {
		m = -m
	}
	n := math.Asin(clamp(math.Sqrt(math.Abs(1 - math.Max(0, math.Cos(a-b))))))
	if sn {
		n = -n
	}
	return ellInt5(m), ellInt5(n)
}

// ellInt5 approximates the elliptic integral of the first kind with k²=0.5
// by an even Chebyshev series; precision is better than 1e-7.
func ellInt5(phi float64) float64 {
	const c0 = 2.19174570831038
	c := [...]float64{
		-8.58691003636495e-07, 2.02692115653689e-07, 3.12960480765314e-05,
		5.30394739921063e-05, -0.0012804644680613, -0.00575574836830288,
		0.0914203033408211,
	}
	y := phi * 2 / math.Pi
	y = 2*y*y - 1
	y2 := 2 * y
	var d1, d2 float64
	for _, ci := range c {
		d1, d2 = y2*d1-d2+ci, d1
	}
	return phi * (y*d1 - d2 + 0.5*c0)
}

// rotate turns v about the unit axis k by angle radians.
func rotate(v, k r3.Vector, angle float64) r3.Vector {
	sin, cos := math.Sincos(angle)
	return v.Mul(cos).Add(k.Cross(v).Mul(sin)).Add(k.Mul(k.Dot(v) * (1 - cos)))
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func finite(p r3.Vector) bool {
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
