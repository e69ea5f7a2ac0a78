// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package vtk

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/2dChan/icongrid/extrude"
	"github.com/2dChan/icongrid/mesherr"
	"github.com/2dChan/icongrid/projection"
	"github.com/2dChan/icongrid/wrap"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
)

func TestWrite_Headers(t *testing.T) {
	tests := []struct {
		name string
		k    int
		want []string
	}{
		{
			name: "polyhedron",
			k:    7,
			want: []string{
				"DATASET UNSTRUCTURED_GRID",
				"POINTS 14 double",
				"CELLS 1 53",
				"CELL_TYPES 1",
				"CELL_DATA 1",
				"FIELD FieldData 3",
				"POINT_DATA 14",
				"FIELD FieldData 2",
			},
		},
		{
			name: "wedge",
			k:    3,
			want: []string{
				"DATASET UNSTRUCTURED_GRID",
				"POINTS 6 double",
				"CELLS 1 7",
				"CELL_TYPES 1",
				"CELL_DATA 1",
				"FIELD FieldData 3",
				"POINT_DATA 6",
				"FIELD FieldData 2",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustExtrude(t, tt.k)
			var buf bytes.Buffer
			err := Write(&buf, m,
				Field{Name: "temp", Values: []float64{1.5}},
				Field{Name: "height", Values: make([]float64, len(m.Points)), Point: true})
			if err != nil {
				t.Fatalf("Write(...) error = %v, want nil", err)
			}
			if diff := cmp.Diff(tt.want, sections(buf.String())); diff != "" {
				t.Errorf("section headers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite_PolyhedronStream(t *testing.T) {
	m := mustExtrude(t, 7)
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatalf("Write(...) error = %v, want nil", err)
	}
	lines := strings.Split(buf.String(), "\n")
	for i, l := range lines {
		if !strings.HasPrefix(l, "CELLS ") {
			continue
		}
		fields := strings.Fields(lines[i+1])
		if got := len(fields); got != 53 {
			t.Fatalf("polyhedron cell line has %d numbers, want 53", got)
		}
		if fields[0] != "52" || fields[1] != "9" {
			t.Errorf("polyhedron cell line starts %v, want [52 9]", fields[:2])
		}
		if lines[i+3] != "42" {
			t.Errorf("cell type = %q, want 42", lines[i+3])
		}
		return
	}
	t.Fatalf("no CELLS section in output")
}

func TestWrite_GlobalPointIDs(t *testing.T) {
	m := mustExtrude(t, 3)
	m.GlobalPointIDs = []int{7, 8, 9}
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatalf("Write(...) error = %v, want nil", err)
	}
	out := buf.String()
	idx := strings.Index(out, "GlobalPointID 1 6 int\n")
	if idx < 0 {
		t.Fatalf("output has no GlobalPointID array:\n%s", out)
	}
	got := strings.Fields(out[idx:])[4:10]
	if diff := cmp.Diff([]string{"7", "7", "8", "8", "9", "9"}, got); diff != "" {
		t.Errorf("GlobalPointID values mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_FieldMismatch(t *testing.T) {
	m := mustExtrude(t, 3)
	tests := []struct {
		name string
		f    Field
	}{
		{"cell field", Field{Name: "temp", Values: []float64{1, 2}}},
		{"point field", Field{Name: "h", Values: []float64{1}, Point: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Write(&bytes.Buffer{}, m, tt.f); !errors.Is(err, mesherr.ErrDimensionMismatch) {
				t.Errorf("Write(...) error = %v, want ErrDimensionMismatch", err)
			}
		})
	}

	m.GlobalPointIDs = []int{1}
	if err := Write(&bytes.Buffer{}, m); !errors.Is(err, mesherr.ErrDimensionMismatch) {
		t.Errorf("Write(short GlobalPointIDs) error = %v, want ErrDimensionMismatch", err)
	}
}

// Helpers

func mustExtrude(t *testing.T, k int) *extrude.Mesh {
	t.Helper()
	surf := &wrap.Result{NumOriginalCells: 1, NumOriginalPoints: k}
	for i := range k {
		a := 2 * math.Pi * float64(i) / float64(k)
		surf.Points = append(surf.Points, r3.Vector{X: math.Cos(a), Y: math.Sin(a)})
		surf.Connectivity = append(surf.Connectivity, i)
	}
	m, err := extrude.Extrude(surf, k, []float64{100}, projection.Passthrough, extrude.WithMultilayer(true))
	if err != nil {
		t.Fatalf("extrude.Extrude(...) error = %v, want nil", err)
	}
	return m
}

// sections returns the dataset and section header lines of a legacy VTK
// file.
func sections(out string) []string {
	var got []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		l := sc.Text()
		for _, p := range []string{"DATASET", "POINTS", "CELLS", "CELL_TYPES", "CELL_DATA", "POINT_DATA", "FIELD"} {
			if strings.HasPrefix(l, p+" ") {
				got = append(got, l)
			}
		}
	}
	return got
}
