// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package icongrid reconstructs unstructured meshes from ICON-style grids
// that store the corners of every cell as longitude/latitude pairs.
//
// A Reconstructor reads the cells of one partition piece from a cdi.Source,
// merges corners shared between cells, projects them, optionally splits
// cells crossing the periodic seam and optionally extrudes the surface into
// vertical layers. Meshes are cached per parameter set.
package icongrid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/2dChan/icongrid/cdi"
	"github.com/2dChan/icongrid/dedup"
	"github.com/2dChan/icongrid/extrude"
	"github.com/2dChan/icongrid/mesherr"
	"github.com/2dChan/icongrid/partition"
	"github.com/2dChan/icongrid/projection"
	"github.com/2dChan/icongrid/wrap"
	"github.com/ctessum/requestcache"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidProjectionInput = mesherr.ErrInvalidProjectionInput
	ErrCapacityExceeded       = mesherr.ErrCapacityExceeded
	ErrPartitionRangeInvalid  = mesherr.ErrPartitionRangeInvalid
	ErrDimensionMismatch      = mesherr.ErrDimensionMismatch
)

// Reconstructor builds meshes from one data source. It is safe for
// concurrent use.
type Reconstructor struct {
	src cdi.Source

	mu   sync.RWMutex
	opts Options

	generation atomic.Uint64
	cache      *requestcache.Cache
}

type job struct {
	opts      Options
	piece     int
	numPieces int
}

func NewReconstructor(src cdi.Source, setters ...Option) (*Reconstructor, error) {
	if src == nil {
		return nil, errors.New("icongrid: nil data source")
	}
	opts := defaultOptions()
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	r := &Reconstructor{src: src, opts: opts}
	r.cache = requestcache.NewCache(r.process, runtime.GOMAXPROCS(-1),
		requestcache.Memory(opts.CacheSize))
	return r, nil
}

// Configure changes the reconstruction parameters of later Mesh calls.
// On error the parameters are left unchanged.
func (r *Reconstructor) Configure(setters ...Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	opts := r.opts
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return err
		}
	}
	r.opts = opts
	return nil
}

func (r *Reconstructor) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// Invalidate drops every cached mesh. Call it after the data source
// changed.
func (r *Reconstructor) Invalidate() {
	r.generation.Add(1)
}

// Mesh returns the mesh of piece out of numPieces. Meshes are shared
// between callers asking for the same piece under the same parameters and
// must not be modified.
func (r *Reconstructor) Mesh(ctx context.Context, piece, numPieces int) (*extrude.Mesh, error) {
	opts := r.Options()
	key := opts.key(r.generation.Load(), piece, numPieces)
	res, err := r.cache.NewRequest(ctx, &job{opts: opts, piece: piece, numPieces: numPieces}, key).Result()
	if err != nil {
		return nil, err
	}
	return res.(*extrude.Mesh), nil
}

// CellField reads the per-cell field name for the cells of piece and
// spreads it over the mesh Mesh returns for the same piece, one value per
// mesh cell.
func (r *Reconstructor) CellField(ctx context.Context, name string, piece, numPieces int) ([]float64, error) {
	m, err := r.Mesh(ctx, piece, numPieces)
	if err != nil {
		return nil, err
	}
	rng, err := partition.Compute(r.src.NumCells(), r.src.CornersPerCell(), piece, numPieces)
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, m.Levels*m.NumOriginalCells)
	for l := range m.Levels {
		v, err := r.src.CellField(name, l, rng.BeginCell, m.NumOriginalCells)
		if err != nil {
			return nil, err
		}
		values = append(values, v...)
	}
	return m.CellData(values)
}

func (r *Reconstructor) process(ctx context.Context, payload interface{}) (interface{}, error) {
	j := payload.(*job)
	log := j.opts.Logger.WithFields(logrus.Fields{
		"piece":      j.piece,
		"pieces":     j.numPieces,
		"projection": j.opts.Projection,
	})
	m, err := r.reconstruct(ctx, j.opts, j.piece, j.numPieces)
	if err != nil {
		if errors.Is(err, mesherr.ErrDimensionMismatch) {
			log.WithFields(logrus.Fields{
				"cells":          r.src.NumCells(),
				"cornersPerCell": r.src.CornersPerCell(),
			}).WithError(err).Error("icongrid: source arrays disagree")
		}
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"cells":  m.NumCells(),
		"points": len(m.Points),
		"levels": m.Levels,
	}).Debug("icongrid: reconstructed mesh")
	return m, nil
}

func (r *Reconstructor) reconstruct(ctx context.Context, opts Options, piece, numPieces int) (*extrude.Mesh, error) {
	cpc := r.src.CornersPerCell()
	rng, err := partition.Compute(r.src.NumCells(), cpc, piece, numPieces)
	if err != nil {
		return nil, err
	}
	numCells := max(rng.NumCells(), 0)

	corners, err := r.src.Corners(rng.BeginCell, numCells)
	if err != nil {
		return nil, err
	}
	if corners, err = corners.Radians(); err != nil {
		return nil, err
	}
	if n := len(corners.Lon); n != numCells*cpc {
		return nil, fmt.Errorf("icongrid: %d corners for %d cells of %d: %w",
			n, numCells, cpc, mesherr.ErrDimensionMismatch)
	}
	ids, err := dedup.Resolve(corners.Points())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points, err := project(ids.Points, opts.Projection)
	if err != nil {
		return nil, err
	}
	surf := &wrap.Result{
		Points:            points,
		Connectivity:      ids.Index,
		NumOriginalCells:  numCells,
		NumOriginalPoints: len(points),
	}
	if axis, period, ok := opts.Projection.WrapAxis(); opts.Wrap && ok {
		surf, err = wrap.Apply(points, ids.Index, cpc,
			wrap.WithAxis(axis, period, 0),
			wrap.WithBloatFactor(opts.BloatFactor))
		if err != nil {
			return nil, err
		}
	}

	var depths []float64
	if opts.Multilayer {
		if depths, err = r.src.Depths(); err != nil {
			return nil, err
		}
	}
	m, err := extrude.Extrude(surf, cpc, depths, opts.Projection,
		extrude.WithMultilayer(opts.Multilayer),
		extrude.WithInvertZ(opts.InvertZ),
		extrude.WithLayerThickness(opts.LayerThickness),
		extrude.WithBloatFactor(opts.BloatFactor))
	if err != nil {
		return nil, err
	}

	if opts.Identity != nil {
		id, err := opts.Identity.Fetch(ctx, rng)
		if err != nil {
			return nil, err
		}
		if len(id.Index) != len(ids.Index) {
			return nil, fmt.Errorf("icongrid: %d point identities for %d corners: %w",
				len(id.Index), len(ids.Index), mesherr.ErrDimensionMismatch)
		}
		m.GlobalPointIDs = globalIDs(id.Index, ids.Index, ids.NumUnique, surf.PointMap)
	}
	return m, nil
}

// project maps unique (lon, lat) points into mode's space, scaled for
// display. Planar modes see longitudes in (-π, π], centered on Greenwich.
func project(pts []r2.Point, mode projection.Mode) ([]r3.Vector, error) {
	scale := projection.Scaling(mode, false, 0, 0)
	out := make([]r3.Vector, len(pts))
	for i, p := range pts {
		lon := p.X
		if mode.IsPlanar() && lon > math.Pi {
			lon -= 2 * math.Pi
		}
		v, err := projection.Project(lon, p.Y, mode)
		if err != nil {
			return nil, err
		}
		out[i] = r3.Vector{X: v.X * scale.X, Y: v.Y * scale.Y, Z: v.Z}
	}
	return out, nil
}

// globalIDs gives every local surface point the global id of the first
// corner that resolved to it. Points synthesized by the wrap take the id of
// the point they copy.
func globalIDs(global, local []int, numUnique int, pointMap []int) []int {
	out := make([]int, numUnique+len(pointMap))
	for i := len(local) - 1; i >= 0; i-- {
		out[local[i]] = global[i]
	}
	for j, p := range pointMap {
		out[numUnique+j] = out[p]
	}
	return out
}
