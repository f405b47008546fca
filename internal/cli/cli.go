/*
Copyright © 2026 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cli implements the regrid command-line interface.
package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/inmap/regrid"
	"github.com/spatialmodel/inmap/regrid/internal/config"
	"github.com/spatialmodel/inmap/regrid/internal/expr"
	"github.com/spatialmodel/inmap/regrid/mesh"
	"github.com/spatialmodel/inmap/regrid/plot"
	"github.com/spatialmodel/inmap/regrid/topology"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"
)

// Cfg holds the configuration and commands of the regrid program.
type Cfg struct {
	*viper.Viper

	Root, runCmd, plotCmd, shpCmd *cobra.Command
}

// New creates the regrid commands with their flags bound to a new
// configuration.
func New() *Cfg {
	cfg := &Cfg{Viper: config.NewViper()}

	cfg.Root = &cobra.Command{
		Use:   "regrid",
		Short: "Transfer fields between spatial discretizations.",
		Long: `regrid maps a field defined on one discretization (a raster, hexagonal
mesh, shapefile or S2 cell mesh) onto another. The run configuration is
read from a TOML file given with --config, and settings can be overridden
with flags or with environment variables such as REGRID_METHOD.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.startup()
		},
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run",
		Short: "Regrid a field and write the result.",
		Long: `run builds the configured regridder, evaluates the source field expression
at the source points and writes the regridded destination field to a .csv
or .shp file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.run()
		},
	}

	cfg.plotCmd = &cobra.Command{
		Use:   "plot",
		Short: "Plot a discretization and its field.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.plot()
		},
	}

	cfg.shpCmd = &cobra.Command{
		Use:   "shp",
		Short: "Write a discretization and its field to a shapefile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.shp()
		},
	}

	cfg.Root.AddCommand(cfg.runCmd, cfg.plotCmd, cfg.shpCmd)

	options := []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "Path to the TOML run configuration file.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "log-level",
			usage:      "Logging level: debug, info, warn or error.",
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "method",
			usage:      "Regridding method: bilinear, patch, nearest_stod, nearest_dtos, conserve or conserve2.",
			shorthand:  "m",
			defaultVal: "bilinear",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "unmapped",
			usage:      "What to do with unmapped destination points: ignore or raise.",
			defaultVal: "ignore",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "extrapolation.method",
			usage:      "Extrapolation method: " + strings.Join(regrid.ExtrapolationNames(), ", ") + ".",
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "expression",
			usage:      "Source field as an expression of x and y.",
			shorthand:  "e",
			defaultVal: "x + y",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "procs",
			usage:      "Number of goroutines used to compute weights; 0 uses all processors.",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "output",
			usage:      "Output file for the destination field, ending in .csv or .shp.",
			shorthand:  "o",
			defaultVal: "regrid.csv",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name:       "side",
			usage:      "Discretization to plot or write: source or destination.",
			defaultVal: "destination",
			flagsets:   []*pflag.FlagSet{cfg.plotCmd.Flags(), cfg.shpCmd.Flags()},
		},
		{
			name:       "file",
			usage:      "Output file for the plot (.png, .svg or .pdf) or shapefile (.shp).",
			shorthand:  "f",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.plotCmd.Flags(), cfg.shpCmd.Flags()},
		},
		{
			name:       "open",
			usage:      "Open the plot after writing it.",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.plotCmd.Flags()},
		},
	}

	for _, option := range options {
		for _, set := range option.flagsets {
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			default:
				panic(fmt.Errorf("cli: invalid default type %T for %s", v, option.name))
			}
		}
		// Flags shared by several commands are bound again to the
		// running command's flags before it runs.
		cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
	for _, cmd := range []*cobra.Command{cfg.plotCmd, cfg.shpCmd} {
		cmd := cmd
		cmd.PreRunE = func(*cobra.Command, []string) error {
			for _, name := range []string{"side", "file"} {
				if err := cfg.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return cfg
}

// startup reads the configuration file and sets the log level.
func (cfg *Cfg) startup() error {
	if path := cfg.GetString("config"); path != "" {
		if err := config.ReadFile(cfg.Viper, os.ExpandEnv(path)); err != nil {
			return err
		}
	}
	level, err := logrus.ParseLevel(cfg.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Execute runs the command selected by args.
func (cfg *Cfg) Execute(args ...string) error {
	cfg.Root.SetArgs(args)
	return cfg.Root.Execute()
}

// state is a configured regridder and the fields it maps.
type state struct {
	run      *config.Run
	src, dst topology.Provider
	r        *regrid.Regridder
	srcVals  []float64
	dstVals  []float64
}

func (cfg *Cfg) regrid() (*state, error) {
	run, err := config.Load(cfg.Viper)
	if err != nil {
		return nil, err
	}
	s := &state{run: run}
	if s.src, s.dst, err = run.Providers(); err != nil {
		return nil, err
	}
	start := time.Now()
	if s.r, err = run.Regridder(s.src, s.dst); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"method":   s.r.Config().Method,
		"src_size": s.r.SrcSize(),
		"dst_size": s.r.DstSize(),
		"duration": time.Since(start),
	}).Info("built regridder")

	e, err := expr.Parse(run.Expression)
	if err != nil {
		return nil, err
	}
	if s.srcVals, err = e.Field(s.r.SourcePoints()); err != nil {
		return nil, err
	}
	if s.dstVals, err = s.r.Regrid(s.srcVals); err != nil {
		return nil, err
	}
	if len(s.dstVals) > 0 {
		logrus.WithFields(logrus.Fields{
			"sum": floats.Sum(s.dstVals),
			"min": floats.Min(s.dstVals),
			"max": floats.Max(s.dstVals),
		}).Info("regridded field")
	}
	return s, nil
}

func (cfg *Cfg) run() error {
	s, err := cfg.regrid()
	if err != nil {
		return err
	}
	out := os.ExpandEnv(cfg.GetString("output"))
	switch strings.ToLower(filepath.Ext(out)) {
	case ".shp":
		err = topology.WriteShapefile(out, s.dst, s.r.Config().DstAt, s.dstVals)
	case ".csv":
		err = writeCSV(out, s.r.DestinationPoints(), s.dstVals)
	default:
		return fmt.Errorf("cli: unsupported output file type %q", out)
	}
	if err != nil {
		return err
	}
	logrus.Infof("wrote %s", out)
	return nil
}

// side returns the chosen discretization, its location and field.
func (cfg *Cfg) side(s *state) (topology.Provider, topology.Location, mesh.Discretization, []float64, error) {
	switch side := cfg.GetString("side"); side {
	case "source", "src":
		return s.src, s.r.Config().SrcAt, s.r.Source(), s.srcVals, nil
	case "destination", "dst":
		return s.dst, s.r.Config().DstAt, s.r.Destination(), s.dstVals, nil
	default:
		return nil, 0, nil, nil, fmt.Errorf("cli: side must be source or destination, got %q", side)
	}
}

func (cfg *Cfg) plot() error {
	s, err := cfg.regrid()
	if err != nil {
		return err
	}
	_, at, d, vals, err := cfg.side(s)
	if err != nil {
		return err
	}
	file := cfg.GetString("file")
	if file == "" {
		file = cfg.GetString("side") + ".png"
	}
	p, err := plot.Discretization(d, vals, fmt.Sprintf("%s (%s)", cfg.GetString("side"), at))
	if err != nil {
		return err
	}
	if err := plot.Save(p, file); err != nil {
		return fmt.Errorf("cli: saving plot: %w", err)
	}
	logrus.Infof("wrote %s", file)
	if cfg.GetBool("open") {
		return open.Run(file)
	}
	return nil
}

func (cfg *Cfg) shp() error {
	s, err := cfg.regrid()
	if err != nil {
		return err
	}
	p, at, _, vals, err := cfg.side(s)
	if err != nil {
		return err
	}
	file := cfg.GetString("file")
	if file == "" {
		file = cfg.GetString("side") + ".shp"
	}
	if err := topology.WriteShapefile(file, p, at, vals); err != nil {
		return err
	}
	logrus.Infof("wrote %s", file)
	return nil
}

func writeCSV(path string, pts []geom.Point, vals []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "x", "y", "value"}); err != nil {
		f.Close()
		return fmt.Errorf("cli: %w", err)
	}
	for i, v := range vals {
		rec := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(pts[i].X, 'g', -1, 64),
			strconv.FormatFloat(pts[i].Y, 'g', -1, 64),
			strconv.FormatFloat(v, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("cli: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("cli: %w", err)
	}
	return f.Close()
}
