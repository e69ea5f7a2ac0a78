// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cdi

import (
	"fmt"

	"github.com/2dChan/icongrid/mesherr"
)

// Memory is a Source backed by slices.
type Memory struct {
	// Lon and Lat hold NumVertices corners per cell, cell-major.
	Lon, Lat    []float64
	Units       string
	NumVertices int
	DepthTable  []float64
	// Fields[name][level] holds one value per cell.
	Fields map[string][][]float64
}

// NewMemory returns a Memory source after checking that its arrays agree.
func NewMemory(lon, lat []float64, cornersPerCell int, units string) (*Memory, error) {
	if cornersPerCell < 1 || len(lon) != len(lat) || len(lon)%cornersPerCell != 0 {
		return nil, fmt.Errorf("cdi: %d longitudes and %d latitudes for %d corners per cell: %w",
			len(lon), len(lat), cornersPerCell, mesherr.ErrDimensionMismatch)
	}
	return &Memory{
		Lon:         lon,
		Lat:         lat,
		Units:       units,
		NumVertices: cornersPerCell,
		Fields:      make(map[string][][]float64),
	}, nil
}

func (m *Memory) NumCells() int {
	if m.NumVertices == 0 {
		return 0
	}
	return len(m.Lon) / m.NumVertices
}

func (m *Memory) CornersPerCell() int {
	return m.NumVertices
}

func (m *Memory) Corners(begin, count int) (*Corners, error) {
	if err := checkRange(m.NumCells(), begin, count); err != nil {
		return nil, err
	}
	lo, hi := begin*m.NumVertices, (begin+count)*m.NumVertices
	return &Corners{
		Lon:   append([]float64(nil), m.Lon[lo:hi]...),
		Lat:   append([]float64(nil), m.Lat[lo:hi]...),
		Units: m.Units,
	}, nil
}

func (m *Memory) Depths() ([]float64, error) {
	return append([]float64(nil), m.DepthTable...), nil
}

func (m *Memory) CellField(name string, level, begin, count int) ([]float64, error) {
	levels, ok := m.Fields[name]
	if !ok {
		return nil, fmt.Errorf("cdi: field %q: %w", name, ErrUnknownVariable)
	}
	if level < 0 || level >= len(levels) {
		return nil, fmt.Errorf("cdi: field %q level %d out of range [0 %d): %w",
			name, level, len(levels), mesherr.ErrDimensionMismatch)
	}
	if err := checkRange(len(levels[level]), begin, count); err != nil {
		return nil, err
	}
	return append([]float64(nil), levels[level][begin:begin+count]...), nil
}
