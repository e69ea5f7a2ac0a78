// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package icongrid

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/icongrid/distribute"
	"github.com/2dChan/icongrid/projection"
	"github.com/sirupsen/logrus"
)

const (
	defaultLayerThickness = 50.0
	defaultBloatFactor    = 2.0
	defaultCacheSize      = 16
)

// Options are the reconstruction parameters. Logger and CacheSize do not
// take part in the cache key.
type Options struct {
	Projection     projection.Mode
	Wrap           bool
	Multilayer     bool
	LayerThickness float64
	InvertZ        bool
	BloatFactor    float64

	Logger   logrus.FieldLogger
	Identity distribute.Fetcher
	// CacheSize is the number of meshes kept in memory. Only
	// NewReconstructor reads it.
	CacheSize int
}

type Option func(*Options) error

func defaultOptions() Options {
	return Options{
		Projection:     projection.Spherical,
		LayerThickness: defaultLayerThickness,
		BloatFactor:    defaultBloatFactor,
		Logger:         logrus.StandardLogger(),
		CacheSize:      defaultCacheSize,
	}
}

func WithProjection(mode projection.Mode) Option {
	return func(o *Options) error {
		if !mode.Valid() {
			return fmt.Errorf("WithProjection: unknown mode %v", mode)
		}
		o.Projection = mode
		return nil
	}
}

// WithWrap splits cells crossing the periodic seam of planar projections
// that have one.
func WithWrap(on bool) Option {
	return func(o *Options) error {
		o.Wrap = on
		return nil
	}
}

func WithMultilayer(on bool) Option {
	return func(o *Options) error {
		o.Multilayer = on
		return nil
	}
}

func WithLayerThickness(t float64) Option {
	return func(o *Options) error {
		if !(t > 0) || math.IsInf(t, 1) {
			return fmt.Errorf("WithLayerThickness: thickness %v must be positive and finite", t)
		}
		o.LayerThickness = t
		return nil
	}
}

func WithInvertZ(on bool) Option {
	return func(o *Options) error {
		o.InvertZ = on
		return nil
	}
}

// WithBloatFactor bounds the geometry wrap and extrusion may synthesize to
// factor times the input.
func WithBloatFactor(factor float64) Option {
	return func(o *Options) error {
		if factor < 1 || math.IsInf(factor, 1) {
			return errors.New("WithBloatFactor: factor must be finite and at least 1")
		}
		o.BloatFactor = factor
		return nil
	}
}

// WithLogger sets the logger; nil restores logrus.StandardLogger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Options) error {
		if log == nil {
			log = logrus.StandardLogger()
		}
		o.Logger = log
		return nil
	}
}

// WithPointIdentity attaches grid-wide point ids from f to every mesh.
func WithPointIdentity(f distribute.Fetcher) Option {
	return func(o *Options) error {
		o.Identity = f
		return nil
	}
}

func WithCacheSize(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("WithCacheSize: size %d must be positive", n)
		}
		o.CacheSize = n
		return nil
	}
}

// key identifies the mesh of one piece under o.
func (o *Options) key(generation uint64, piece, numPieces int) string {
	return fmt.Sprintf("%d_%s_%t_%t_%g_%t_%g_%t_%d_%d",
		generation, o.Projection, o.Wrap, o.Multilayer, o.LayerThickness,
		o.InvertZ, o.BloatFactor, o.Identity != nil, piece, numPieces)
}
