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

// Package config holds the run configuration of the regrid command.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/inmap/regrid"
	"github.com/spatialmodel/inmap/regrid/engine"
	"github.com/spatialmodel/inmap/regrid/topology"
	"github.com/spatialmodel/inmap/regrid/topology/hilbert"
	"github.com/spf13/cast"
)

// Grid describes a discretization.
type Grid struct {
	// Type is one of "raster", "hex", "shapefile" or "s2".
	Type string `toml:"type"`

	// At is the location values are attached to.
	At string `toml:"at"`

	// Raster and hex layout.
	Rows    int     `toml:"rows"`
	Cols    int     `toml:"cols"`
	Dx      float64 `toml:"dx"`
	Dy      float64 `toml:"dy"`
	Spacing float64 `toml:"spacing"`
	X0      float64 `toml:"x0"`
	Y0      float64 `toml:"y0"`

	// Path is the location of a shapefile.
	Path string `toml:"path"`

	// OutputSR is the proj4 or WKT spatial reference that shapefile
	// polygons are reprojected into. If empty, coordinates are used as
	// they are stored.
	OutputSR string `toml:"output_sr"`

	// Bounds are the lng_lo, lat_lo, lng_hi and lat_hi edges of an S2
	// mesh in degrees, and Level is its cell level.
	Bounds []float64 `toml:"bounds"`
	Level  int       `toml:"level"`
}

// Provider returns the topology described by g.
func (g Grid) Provider() (topology.Provider, error) {
	switch strings.ToLower(g.Type) {
	case "raster":
		dy := g.Dy
		if dy == 0 {
			dy = g.Dx
		}
		r, err := topology.NewRaster(g.Rows, g.Cols, g.Dx, dy, g.X0, g.Y0)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "hex":
		h, err := topology.NewHex(g.Rows, g.Cols, g.Spacing, g.X0, g.Y0)
		if err != nil {
			return nil, err
		}
		return h, nil
	case "shapefile", "shp":
		var sr *proj.SR
		if g.OutputSR != "" {
			var err error
			if sr, err = proj.Parse(g.OutputSR); err != nil {
				return nil, fmt.Errorf("config: output_sr: %w", err)
			}
		}
		u, err := topology.ReadShapefileSR(os.ExpandEnv(g.Path), sr)
		if err != nil {
			return nil, err
		}
		return u, nil
	case "s2":
		if len(g.Bounds) != 4 {
			return nil, fmt.Errorf("config: s2 bounds must have 4 values, got %d", len(g.Bounds))
		}
		b := hilbert.RectBounds(g.Bounds[0], g.Bounds[1], g.Bounds[2], g.Bounds[3])
		m, err := hilbert.NewMesh2D(b, g.Level)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("config: unknown grid type %q", g.Type)
}

// Extrapolation describes the extrapolation policy. Unset parameters use
// the engine defaults.
type Extrapolation struct {
	Method           string   `toml:"method"`
	NumSourcePoints  *int     `toml:"num_source_points"`
	DistanceExponent *float64 `toml:"distance_exponent"`
	NumLevels        *int     `toml:"num_levels"`
}

// Extrapolation returns the regrid extrapolation policy.
func (e Extrapolation) Extrapolation() (regrid.Extrapolation, error) {
	x, err := regrid.FindExtrapolation(e.Method)
	if err != nil {
		return nil, err
	}
	switch x.(type) {
	case regrid.ExtrapolateInverseDistance:
		return regrid.ExtrapolateInverseDistance{
			NumSourcePoints:  e.NumSourcePoints,
			DistanceExponent: e.DistanceExponent,
		}, nil
	case regrid.ExtrapolateCreep:
		return regrid.ExtrapolateCreep{NumLevels: e.NumLevels}, nil
	}
	return x, nil
}

// Run is the configuration of one regridding run.
type Run struct {
	Source      Grid `toml:"source"`
	Destination Grid `toml:"destination"`

	// Method is a name accepted by regrid.ParseMethod.
	Method        string        `toml:"method"`
	Unmapped      string        `toml:"unmapped"`
	Extrapolation Extrapolation `toml:"extrapolation"`

	// Expression gives the source field as a function of x and y.
	Expression string `toml:"expression"`

	// Output is where the destination field is written: a .csv or
	// .shp file.
	Output string `toml:"output"`

	// Procs is the number of goroutines used to compute weights.
	Procs int `toml:"procs"`
}

// NewViper returns a viper instance with the default run settings.
// Settings can be overridden by environment variables with the prefix
// REGRID, for example REGRID_SOURCE_TYPE.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("REGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("method", "bilinear")
	v.SetDefault("unmapped", "ignore")
	v.SetDefault("extrapolation.method", "none")
	v.SetDefault("source.at", "node")
	v.SetDefault("destination.at", "node")
	v.SetDefault("expression", "x + y")
	v.SetDefault("output", "regrid.csv")
	return v
}

// ReadFile reads a TOML configuration file into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	return nil
}

// Load returns the run configuration held by v.
func Load(v *viper.Viper) (*Run, error) {
	r := &reader{v: v}
	run := &Run{
		Source:      r.grid("source"),
		Destination: r.grid("destination"),
		Method:      r.str("method"),
		Unmapped:    r.str("unmapped"),
		Extrapolation: Extrapolation{
			Method:           r.str("extrapolation.method"),
			NumSourcePoints:  r.optInt("extrapolation.num_source_points"),
			DistanceExponent: r.optFloat("extrapolation.distance_exponent"),
			NumLevels:        r.optInt("extrapolation.num_levels"),
		},
		Expression: r.str("expression"),
		Output:     r.str("output"),
		Procs:      r.integer("procs"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return run, nil
}

// Providers returns the source and destination topologies.
func (c *Run) Providers() (src, dst topology.Provider, err error) {
	src, err = c.Source.Provider()
	if err != nil {
		return nil, nil, fmt.Errorf("config: source: %w", err)
	}
	dst, err = c.Destination.Provider()
	if err != nil {
		return nil, nil, fmt.Errorf("config: destination: %w", err)
	}
	return src, dst, nil
}

// Regridder builds the regridder described by c between src and dst.
func (c *Run) Regridder(src, dst topology.Provider) (*regrid.Regridder, error) {
	m, err := regrid.ParseMethod(c.Method)
	if err != nil {
		return nil, err
	}
	x, err := c.Extrapolation.Extrapolation()
	if err != nil {
		return nil, err
	}
	return regrid.New(src, dst, m,
		regrid.SrcAt(c.Source.At),
		regrid.DstAt(c.Destination.At),
		regrid.WithUnmappedName(c.Unmapped),
		regrid.WithExtrapolation(x),
		regrid.WithEngine(&engine.Planar{Procs: c.Procs}),
	)
}

// reader reads typed values from viper, keeping the first error.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("config: %s: %w", key, err)
	}
}

func (r *reader) str(key string) string {
	s, err := cast.ToStringE(r.v.Get(key))
	if err != nil {
		r.fail(key, err)
	}
	return s
}

func (r *reader) integer(key string) int {
	i, err := cast.ToIntE(r.v.Get(key))
	if err != nil {
		r.fail(key, err)
	}
	return i
}

func (r *reader) float(key string) float64 {
	f, err := cast.ToFloat64E(r.v.Get(key))
	if err != nil {
		r.fail(key, err)
	}
	return f
}

func (r *reader) optInt(key string) *int {
	if !r.v.IsSet(key) {
		return nil
	}
	i := r.integer(key)
	return &i
}

func (r *reader) optFloat(key string) *float64 {
	if !r.v.IsSet(key) {
		return nil
	}
	f := r.float(key)
	return &f
}

func (r *reader) floats(key string) []float64 {
	if !r.v.IsSet(key) {
		return nil
	}
	s, err := cast.ToSliceE(r.v.Get(key))
	if err != nil {
		r.fail(key, err)
		return nil
	}
	o := make([]float64, len(s))
	for i, x := range s {
		if o[i], err = cast.ToFloat64E(x); err != nil {
			r.fail(key, err)
		}
	}
	return o
}

func (r *reader) grid(prefix string) Grid {
	k := func(name string) string { return prefix + "." + name }
	return Grid{
		Type:     r.str(k("type")),
		At:       r.str(k("at")),
		Rows:     r.integer(k("rows")),
		Cols:     r.integer(k("cols")),
		Dx:       r.float(k("dx")),
		Dy:       r.float(k("dy")),
		Spacing:  r.float(k("spacing")),
		X0:       r.float(k("x0")),
		Y0:       r.float(k("y0")),
		Path:     r.str(k("path")),
		OutputSR: r.str(k("output_sr")),
		Bounds:   r.floats(k("bounds")),
		Level:    r.integer(k("level")),
	}
}
