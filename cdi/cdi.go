// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package cdi reads the cell corner coordinates, depth table and per-cell
// fields of an icosahedral grid from a data source.
package cdi

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/icongrid/mesherr"
	"github.com/golang/geo/r2"
)

// Units of corner coordinates.
const (
	Radian  = "radian"
	Degrees = "degrees"
)

// ErrUnknownVariable is returned when a source lacks a requested variable.
var ErrUnknownVariable = errors.New("unknown variable")

// Source provides grid geometry and data. Corner and field reads take a
// range of cells so that each worker loads only its own partition.
type Source interface {
	NumCells() int
	CornersPerCell() int
	// Corners returns the corners of count cells starting at cell begin.
	Corners(begin, count int) (*Corners, error)
	// Depths returns the depth in meters of the bottom of each vertical
	// level.
	Depths() ([]float64, error)
	// CellField returns count values of the named field at level, starting
	// at cell begin.
	CellField(name string, level, begin, count int) ([]float64, error)
}

var (
	_ Source = (*Memory)(nil)
	_ Source = (*File)(nil)
)

// Corners holds cell corner coordinates. Corner j of cell i is at index
// i*CornersPerCell+j.
type Corners struct {
	Lon, Lat []float64
	Units    string
}

// Radians returns c with coordinates in radians.
func (c *Corners) Radians() (*Corners, error) {
	if len(c.Lon) != len(c.Lat) {
		return nil, fmt.Errorf("cdi: %d longitudes and %d latitudes: %w",
			len(c.Lon), len(c.Lat), mesherr.ErrDimensionMismatch)
	}
	switch c.Units {
	case Radian, "radians", "rad":
		return c, nil
	case Degrees, "degree", "degrees_east", "degrees_north", "deg":
		out := &Corners{
			Lon:   make([]float64, len(c.Lon)),
			Lat:   make([]float64, len(c.Lat)),
			Units: Radian,
		}
		for i := range c.Lon {
			out.Lon[i] = c.Lon[i] * math.Pi / 180
			out.Lat[i] = c.Lat[i] * math.Pi / 180
		}
		return out, nil
	}
	return nil, fmt.Errorf("cdi: unknown coordinate units %q", c.Units)
}

// Points returns the corners as (lon, lat) points.
func (c *Corners) Points() []r2.Point {
	pts := make([]r2.Point, len(c.Lon))
	for i := range pts {
		pts[i] = r2.Point{X: c.Lon[i], Y: c.Lat[i]}
	}
	return pts
}

func checkRange(numCells, begin, count int) error {
	if begin < 0 || count < 0 || begin+count > numCells {
		return fmt.Errorf("cdi: cells [%d %d) out of range [0 %d): %w",
			begin, begin+count, numCells, mesherr.ErrDimensionMismatch)
	}
	return nil
}
