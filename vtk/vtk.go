// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package vtk writes meshes as legacy ASCII VTK unstructured grids.
package vtk

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/2dChan/icongrid/extrude"
	"github.com/2dChan/icongrid/mesherr"
)

// Field is a named scalar attribute with one value per cell, or per point
// if Point is set.
type Field struct {
	Name   string
	Values []float64
	Point  bool
}

// Write writes m and fields to w. Every cell carries its original surface
// cell and level; every point its original surface point and, when m has
// them, its global point id.
func Write(w io.Writer, m *extrude.Mesh, fields ...Field) error {
	for _, f := range fields {
		want := m.NumCells()
		if f.Point {
			want = len(m.Points)
		}
		if len(f.Values) != want {
			return fmt.Errorf("vtk: field %q has %d values, want %d: %w",
				f.Name, len(f.Values), want, mesherr.ErrDimensionMismatch)
		}
	}
	if m.GlobalPointIDs != nil && len(m.GlobalPointIDs) != m.NumSurfacePoints {
		return fmt.Errorf("vtk: %d global ids for %d surface points: %w",
			len(m.GlobalPointIDs), m.NumSurfacePoints, mesherr.ErrDimensionMismatch)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# vtk DataFile Version 4.2")
	fmt.Fprintf(bw, "icongrid: %d cells, %d levels\n", m.NumCells(), m.Levels)
	fmt.Fprintln(bw, "ASCII")
	fmt.Fprintln(bw, "DATASET UNSTRUCTURED_GRID")

	fmt.Fprintf(bw, "POINTS %d double\n", len(m.Points))
	for _, p := range m.Points {
		fmt.Fprintf(bw, "%s %s %s\n", ftoa(p.X), ftoa(p.Y), ftoa(p.Z))
	}

	size := 0
	for i := range m.NumCells() {
		size += 1 + len(cellStream(m, i))
	}
	fmt.Fprintf(bw, "CELLS %d %d\n", m.NumCells(), size)
	for i := range m.NumCells() {
		writeInts(bw, cellStream(m, i))
	}
	fmt.Fprintf(bw, "CELL_TYPES %d\n", m.NumCells())
	for _, t := range m.Types {
		fmt.Fprintln(bw, int(t))
	}

	fmt.Fprintf(bw, "CELL_DATA %d\n", m.NumCells())
	cellArrays := 2
	for _, f := range fields {
		if !f.Point {
			cellArrays++
		}
	}
	fmt.Fprintf(bw, "FIELD FieldData %d\n", cellArrays)
	writeArray(bw, "OriginalCell", "int", m.NumCells(), func(i int) string {
		return strconv.Itoa(m.OriginalCell(i / m.Levels))
	})
	writeArray(bw, "Level", "int", m.NumCells(), func(i int) string {
		return strconv.Itoa(i % m.Levels)
	})
	for _, f := range fields {
		if !f.Point {
			writeArray(bw, f.Name, "double", len(f.Values), func(i int) string { return ftoa(f.Values[i]) })
		}
	}

	fmt.Fprintf(bw, "POINT_DATA %d\n", len(m.Points))
	pointArrays := 1
	if m.GlobalPointIDs != nil {
		pointArrays++
	}
	for _, f := range fields {
		if f.Point {
			pointArrays++
		}
	}
	fmt.Fprintf(bw, "FIELD FieldData %d\n", pointArrays)
	writeArray(bw, "OriginalPoint", "int", len(m.Points), func(i int) string {
		return strconv.Itoa(m.OriginalPoint(i / m.Rings))
	})
	if m.GlobalPointIDs != nil {
		writeArray(bw, "GlobalPointID", "int", len(m.Points), func(i int) string {
			return strconv.Itoa(m.GlobalPointIDs[i/m.Rings])
		})
	}
	for _, f := range fields {
		if f.Point {
			writeArray(bw, f.Name, "double", len(f.Values), func(i int) string { return ftoa(f.Values[i]) })
		}
	}
	return bw.Flush()
}

// cellStream returns the point list of cell i, or the face stream of a
// polyhedron.
func cellStream(m *extrude.Mesh, i int) []int {
	if m.Types[i] == extrude.Polyhedron {
		return m.Faces[m.FaceOffsets[i]:m.FaceOffsets[i+1]]
	}
	return m.Connectivity[m.Offsets[i]:m.Offsets[i+1]]
}

func writeInts(w *bufio.Writer, ids []int) {
	w.WriteString(strconv.Itoa(len(ids)))
	for _, id := range ids {
		w.WriteByte(' ')
		w.WriteString(strconv.Itoa(id))
	}
	w.WriteByte('\n')
}

func writeArray(w *bufio.Writer, name, typ string, n int, value func(int) string) {
	fmt.Fprintf(w, "%s 1 %d %s\n", name, n, typ)
	for i := range n {
		w.WriteString(value(i))
		w.WriteByte('\n')
	}
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
