// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package cdi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/2dChan/icongrid/mesherr"
	"github.com/ctessum/cdf"
)

const (
	defaultLonVariable   = "clon_vertices"
	defaultLatVariable   = "clat_vertices"
	defaultDepthVariable = "depth"
)

type Options struct {
	LonVariable   string
	LatVariable   string
	DepthVariable string
}

type Option func(*Options) error

// WithCornerVariables sets the names of the corner longitude and latitude
// variables, both dimensioned (cells, corners).
func WithCornerVariables(lon, lat string) Option {
	return func(o *Options) error {
		if lon == "" || lat == "" {
			return errors.New("WithCornerVariables: names must not be empty")
		}
		o.LonVariable = lon
		o.LatVariable = lat
		return nil
	}
}

// WithDepthVariable sets the name of the one-dimensional depth variable.
func WithDepthVariable(name string) Option {
	return func(o *Options) error {
		if name == "" {
			return errors.New("WithDepthVariable: name must not be empty")
		}
		o.DepthVariable = name
		return nil
	}
}

// File is a Source reading a netCDF grid file.
type File struct {
	opts     Options
	f        *cdf.File
	closer   io.Closer
	numCells int
	nv       int
	units    string

	mu sync.Mutex
}

// Open opens the netCDF file at path. The caller must Close it.
func Open(path string, setters ...Option) (*File, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cdi: %w", err)
	}
	f, err := NewFile(ff, setters...)
	if err != nil {
		ff.Close()
		return nil, err
	}
	f.closer = ff
	return f, nil
}

// NewFile returns a File reading from rw.
func NewFile(rw cdf.ReaderWriterAt, setters ...Option) (*File, error) {
	opts := Options{
		LonVariable:   defaultLonVariable,
		LatVariable:   defaultLatVariable,
		DepthVariable: defaultDepthVariable,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	cf, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("cdi: reading netCDF header: %w", err)
	}

	f := &File{opts: opts, f: cf}
	lonDims := cf.Header.Lengths(opts.LonVariable)
	latDims := cf.Header.Lengths(opts.LatVariable)
	if len(lonDims) == 0 {
		return nil, fmt.Errorf("cdi: %q: %w", opts.LonVariable, ErrUnknownVariable)
	}
	if len(latDims) == 0 {
		return nil, fmt.Errorf("cdi: %q: %w", opts.LatVariable, ErrUnknownVariable)
	}
	if len(lonDims) != 2 || len(latDims) != 2 || lonDims[0] != latDims[0] || lonDims[1] != latDims[1] {
		return nil, fmt.Errorf("cdi: corner variables have shapes %v and %v: %w",
			lonDims, latDims, mesherr.ErrDimensionMismatch)
	}
	f.numCells, f.nv = lonDims[0], lonDims[1]

	f.units = Radian
	if u, ok := cf.Header.GetAttribute(opts.LonVariable, "units").(string); ok && u != "" {
		f.units = u
	}
	return f, nil
}

// Close closes the underlying file if File was created by Open.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *File) NumCells() int {
	return f.numCells
}

func (f *File) CornersPerCell() int {
	return f.nv
}

func (f *File) Corners(begin, count int) (*Corners, error) {
	if err := checkRange(f.numCells, begin, count); err != nil {
		return nil, err
	}
	c := &Corners{Units: f.units}
	if count == 0 {
		return c, nil
	}
	start, end := []int{begin, 0}, []int{begin + count - 1, f.nv - 1}
	var err error
	if c.Lon, err = f.read(f.opts.LonVariable, start, end, count*f.nv); err != nil {
		return nil, err
	}
	if c.Lat, err = f.read(f.opts.LatVariable, start, end, count*f.nv); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *File) Depths() ([]float64, error) {
	dims := f.f.Header.Lengths(f.opts.DepthVariable)
	if len(dims) == 0 {
		return nil, fmt.Errorf("cdi: %q: %w", f.opts.DepthVariable, ErrUnknownVariable)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("cdi: depth variable %q has shape %v: %w",
			f.opts.DepthVariable, dims, mesherr.ErrDimensionMismatch)
	}
	return f.read(f.opts.DepthVariable, nil, nil, dims[0])
}

// CellField reads a variable dimensioned (cells), (levels, cells) or
// (time, levels, cells). Only the first time step is read.
func (f *File) CellField(name string, level, begin, count int) ([]float64, error) {
	dims := f.f.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("cdi: field %q: %w", name, ErrUnknownVariable)
	}
	if dims[len(dims)-1] != f.numCells {
		return nil, fmt.Errorf("cdi: field %q has shape %v for %d cells: %w",
			name, dims, f.numCells, mesherr.ErrDimensionMismatch)
	}
	if err := checkRange(f.numCells, begin, count); err != nil {
		return nil, err
	}
	var start, end []int
	switch len(dims) {
	case 1:
		if level != 0 {
			return nil, fmt.Errorf("cdi: field %q has one level, got %d: %w",
				name, level, mesherr.ErrDimensionMismatch)
		}
		start, end = []int{begin}, []int{begin + count - 1}
	case 2, 3:
		levels := dims[len(dims)-2]
		if level < 0 || level >= levels {
			return nil, fmt.Errorf("cdi: field %q level %d out of range [0 %d): %w",
				name, level, levels, mesherr.ErrDimensionMismatch)
		}
		start, end = []int{level, begin}, []int{level, begin + count - 1}
		if len(dims) == 3 {
			start, end = append([]int{0}, start...), append([]int{0}, end...)
		}
	default:
		return nil, fmt.Errorf("cdi: field %q has shape %v: %w", name, dims, mesherr.ErrDimensionMismatch)
	}
	if count == 0 {
		return []float64{}, nil
	}
	return f.read(name, start, end, count)
}

// read returns the want values of v from index start through index end,
// both inclusive and taken in row-major order, as float64.
func (f *File) read(v string, start, end []int, want int) ([]float64, error) {
	f.mu.Lock()
	r := f.f.Reader(v, start, end)
	buf := r.Zero(want)
	_, err := r.Read(buf)
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("cdi: reading %q: %w", v, err)
	}

	var out []float64
	switch b := buf.(type) {
	case []float64:
		out = b
	case []float32:
		out = widen(b)
	case []int32:
		out = widen(b)
	case []int16:
		out = widen(b)
	case []uint8:
		out = widen(b)
	default:
		return nil, fmt.Errorf("cdi: variable %q has unsupported type %T", v, buf)
	}
	if len(out) != want {
		return nil, fmt.Errorf("cdi: read %d values of %q, want %d: %w",
			len(out), v, want, mesherr.ErrDimensionMismatch)
	}
	return out, nil
}

func widen[T float32 | int32 | int16 | uint8](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
