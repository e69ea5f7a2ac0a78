// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package icongridutil holds the icongrid command line interface.
package icongridutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is the command line version.
const Version = "0.3.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

func init() {
	meshFlags := meshCmd.Flags()
	serveFlags := serveCmd.Flags()
	options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel is the minimum level of log messages written to
              standard error: debug, info, warn or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "input",
			usage: `
              input is the netCDF grid file to read. When empty, a synthetic
              grid is generated instead (see --grid, --points and --seed).`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{meshFlags, serveFlags},
		},
		{
			name: "depthvar",
			usage: `
              depthvar is the one-dimensional variable holding the depth of
              every vertical level, in meters.`,
			defaultVal: "depth",
			flagsets:   []*pflag.FlagSet{meshFlags, serveFlags},
		},
		{
			name: "grid",
			usage: `
              grid selects the synthetic grid used without --input:
              voronoi (hexagon-like cells) or triangle.`,
			defaultVal: "voronoi",
			flagsets:   []*pflag.FlagSet{meshFlags, serveFlags},
		},
		{
			name: "points",
			usage: `
              points is the number of random sites of the synthetic grid.`,
			defaultVal: 500,
			flagsets:   []*pflag.FlagSet{meshFlags, serveFlags},
		},
		{
			name: "seed",
			usage: `
              seed makes the synthetic grid reproducible.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{meshFlags, serveFlags},
		},
		{
			name: "depths",
			usage: `
              depths lists the level depths in meters of the synthetic grid.`,
			defaultVal: []string{"10", "50", "100"},
			flagsets:   []*pflag.FlagSet{meshFlags, serveFlags},
		},
		{
			name: "output",
			usage: `
              output is the legacy VTK file the mesh is written to.`,
			shorthand:  "o",
			defaultVal: "icongrid.vtk",
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "fields",
			usage: `
              fields lists the per-cell variables written with the mesh.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "projection",
			usage: `
              projection maps the grid to 3-D space: spherical, cylindrical,
              cassini, mollweide, passthrough or spilhouse.`,
			shorthand:  "p",
			defaultVal: "spherical",
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "wrap",
			usage: `
              wrap splits cells crossing the periodic seam of the cylindrical,
              passthrough and cassini projections.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "multilayer",
			usage: `
              multilayer extrudes the surface into one layer of prisms per
              vertical level.`,
			shorthand:  "m",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "layerthickness",
			usage: `
              layerthickness scales depths in multilayer meshes.`,
			defaultVal: 50.0,
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "invertz",
			usage: `
              invertz makes depth grow upward (planar) or outward (spherical).`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "bloatfactor",
			usage: `
              bloatfactor bounds the cells and points synthesized at the seam
              to this multiple of the input.`,
			defaultVal: 2.0,
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "piece",
			usage: `
              piece is the index of the partition piece to reconstruct.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "pieces",
			usage: `
              pieces is the number of partition pieces the grid is split
              into.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "identity",
			usage: `
              identity is the ws:// address of the worker serving grid-wide
              point identities (see the serve command). When set, every mesh
              point carries its global id.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{meshFlags},
		},
		{
			name: "listen",
			usage: `
              listen is the address the identity server listens on.`,
			defaultVal: ":7070",
			flagsets:   []*pflag.FlagSet{serveFlags},
		},
	}

	Cfg = NewConfig()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	Root.AddCommand(versionCmd)
	Root.AddCommand(meshCmd)
	Root.AddCommand(serveCmd)
}

// NewConfig returns a configuration holding the default of every option.
func NewConfig() *viper.Viper {
	cfg := viper.New()
	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("ICONGRID")
	cfg.AutomaticEnv()
	for _, option := range options {
		cfg.SetDefault(option.name, option.defaultVal)
	}
	return cfg
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("icongrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "icongrid",
	Short: "Reconstruct meshes from ICON-style unstructured grids.",
	Long: `icongrid reads grids that store the corners of every cell as
longitude/latitude pairs, merges shared corners, projects them and writes the
resulting surface or multilayer mesh.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ICONGRID_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("icongrid v%s\n", Version)
	},
	DisableAutoGenTag: true,
}

var meshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Reconstruct one partition piece and write it as VTK.",
	Long: `mesh reconstructs piece --piece of --pieces and writes it to --output.
Workers other than the first should pass --identity so that shared points get
the same global id in every piece.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(Cfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return Mesh(ctx, Cfg, log)
	},
	DisableAutoGenTag: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grid-wide point identities to other workers.",
	Long: `serve resolves the shared corners of the whole grid once and answers
the identity request of every mesh worker started with --identity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(Cfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return Serve(ctx, Cfg, log)
	},
	DisableAutoGenTag: true,
}

func newLogger(cfg *viper.Viper) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.GetString("loglevel"))
	if err != nil {
		return nil, fmt.Errorf("icongrid: %v", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	return log, nil
}

// Execute runs Root with ctx.
func Execute(ctx context.Context) error {
	return Root.ExecuteContext(ctx)
}
