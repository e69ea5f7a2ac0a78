// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package icongridutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/2dChan/icongrid"
	"github.com/2dChan/icongrid/cdi"
	"github.com/2dChan/icongrid/distribute"
	"github.com/2dChan/icongrid/projection"
	"github.com/2dChan/icongrid/synth"
	"github.com/2dChan/icongrid/vtk"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

// Mesh reconstructs the piece of the grid configured in cfg and writes it
// with its fields to the output file.
func Mesh(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	src, closeSrc, err := OpenSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	mode, err := projection.ParseMode(cfg.Get("projection"))
	if err != nil {
		return err
	}
	opts := []icongrid.Option{
		icongrid.WithProjection(mode),
		icongrid.WithWrap(cfg.GetBool("wrap")),
		icongrid.WithMultilayer(cfg.GetBool("multilayer")),
		icongrid.WithLayerThickness(cfg.GetFloat64("layerthickness")),
		icongrid.WithInvertZ(cfg.GetBool("invertz")),
		icongrid.WithBloatFactor(cfg.GetFloat64("bloatfactor")),
		icongrid.WithLogger(log),
	}
	if addr := cfg.GetString("identity"); addr != "" {
		opts = append(opts, icongrid.WithPointIdentity(distribute.NewClient(addr)))
	}
	r, err := icongrid.NewReconstructor(src, opts...)
	if err != nil {
		return err
	}

	piece, pieces := cfg.GetInt("piece"), cfg.GetInt("pieces")
	m, err := r.Mesh(ctx, piece, pieces)
	if err != nil {
		return err
	}
	names, err := cast.ToStringSliceE(cfg.Get("fields"))
	if err != nil {
		return fmt.Errorf("icongrid: fields: %v", err)
	}
	fields := make([]vtk.Field, 0, len(names))
	for _, name := range names {
		values, err := r.CellField(ctx, name, piece, pieces)
		if err != nil {
			return err
		}
		fields = append(fields, vtk.Field{Name: name, Values: values})
	}

	path := os.ExpandEnv(cfg.GetString("output"))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := vtk.Write(f, m, fields...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"output": path,
		"cells":  m.NumCells(),
		"points": len(m.Points),
		"piece":  piece,
		"pieces": pieces,
	}).Info("icongrid: wrote mesh")
	return nil
}

// Serve answers point identity requests for the grid configured in cfg
// until ctx is done.
func Serve(ctx context.Context, cfg *viper.Viper, log logrus.FieldLogger) error {
	srv, err := IdentityServer(cfg, log)
	if err != nil {
		return err
	}
	hs := &http.Server{Addr: cfg.GetString("listen"), Handler: srv}
	errc := make(chan error, 1)
	go func() {
		errc <- hs.ListenAndServe()
	}()
	log.WithField("listen", hs.Addr).Info("icongrid: serving point identities")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// IdentityServer resolves the point identities of the grid configured in
// cfg.
func IdentityServer(cfg *viper.Viper, log logrus.FieldLogger) (*distribute.Server, error) {
	src, closeSrc, err := OpenSource(cfg)
	if err != nil {
		return nil, err
	}
	defer closeSrc()
	return distribute.NewServer(src, log)
}

// OpenSource opens the input grid, or generates the synthetic one when no
// input is configured. The returned function releases the source.
func OpenSource(cfg *viper.Viper) (cdi.Source, func() error, error) {
	if path := os.ExpandEnv(cfg.GetString("input")); path != "" {
		f, err := cdi.Open(path, cdi.WithDepthVariable(cfg.GetString("depthvar")))
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}

	strs, err := cast.ToStringSliceE(cfg.Get("depths"))
	if err != nil {
		return nil, nil, fmt.Errorf("icongrid: depths: %v", err)
	}
	depths := make([]float64, len(strs))
	for i, s := range strs {
		if depths[i], err = cast.ToFloat64E(s); err != nil {
			return nil, nil, fmt.Errorf("icongrid: depths[%d]: %v", i, err)
		}
	}
	points := synth.RandomPoints(cfg.GetInt("points"), cfg.GetInt64("seed"))
	var src *cdi.Memory
	switch grid := cfg.GetString("grid"); grid {
	case "voronoi":
		src, err = synth.VoronoiGrid(points, synth.WithDepths(depths))
	case "triangle":
		src, err = synth.TriangleGrid(points, synth.WithDepths(depths))
	default:
		return nil, nil, fmt.Errorf("icongrid: unknown synthetic grid %q", grid)
	}
	if err != nil {
		return nil, nil, err
	}
	return src, func() error { return nil }, nil
}
