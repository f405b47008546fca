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

package regrid

import (
	"errors"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/inmap/regrid/engine"
	"github.com/spatialmodel/inmap/regrid/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var locations = []string{"node", "corner", "patch", "cell"}

func raster(t *testing.T) *topology.Raster {
	t.Helper()
	r, err := topology.NewRaster(10, 20, 1, 1, 0, 0)
	require.NoError(t, err)
	return r
}

func hex(t *testing.T) *topology.Hex {
	t.Helper()
	h, err := topology.NewHex(10, 20, 1, 0, 0)
	require.NoError(t, err)
	return h
}

func values(n int) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = math.Sin(float64(i) / 7)
	}
	return o
}

func TestRasterToHexBilinear(t *testing.T) {
	src, dst := raster(t), hex(t)
	r, err := NewBilinear(src, dst, SrcAt("node"), DstAt("node"))
	require.NoError(t, err)
	assert.Equal(t, src.Count(topology.Node), r.SrcSize())
	out, err := r.Regrid(values(r.SrcSize()))
	require.NoError(t, err)
	assert.Len(t, out, dst.Count(topology.Node))
}

func TestRasterToHexBilinearRadius(t *testing.T) {
	src, dst := raster(t), hex(t)
	r, err := NewBilinear(src, dst, SrcAt("node"), DstAt("node"))
	require.NoError(t, err)
	in := make([]float64, r.SrcSize())
	for i, p := range r.SourcePoints() {
		in[i] = math.Hypot(p.X, p.Y)
	}
	out, err := r.Regrid(in)
	require.NoError(t, err)
	require.Len(t, out, 200)
	b := geom.NewBounds()
	for _, p := range r.SourcePoints() {
		b.Extend(p.Bounds())
	}
	for i, p := range r.DestinationPoints() {
		v := out[i]
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "point %d: %g", i, v)
		if p.X <= b.Min.X || p.X >= b.Max.X || p.Y <= b.Min.Y || p.Y >= b.Max.Y {
			continue
		}
		// Interpolating a convex field never undershoots it.
		want := math.Hypot(p.X, p.Y)
		assert.True(t, v >= want-1e-9 && v-want < 0.2, "point %d at %v: %g, want %g", i, p, v, want)
	}
}

func TestLocationCombinations(t *testing.T) {
	src, dst := raster(t), hex(t)
	methods := []Method{
		{Kind: Bilinear},
		{Kind: Patch},
		{Kind: NearestNeighbor},
		{Kind: NearestNeighbor, DToS: true},
	}
	for _, m := range methods {
		for _, srcAt := range locations {
			for _, dstAt := range locations {
				t.Run(m.String()+"/"+srcAt+"-"+dstAt, func(t *testing.T) {
					r, err := New(src, dst, m, SrcAt(srcAt), DstAt(dstAt))
					require.NoError(t, err)
					sat, _ := topology.ParseLocation(srcAt)
					dat, _ := topology.ParseLocation(dstAt)
					assert.Equal(t, src.Count(sat), r.SrcSize())
					out, err := r.Regrid(values(r.SrcSize()))
					require.NoError(t, err)
					assert.Len(t, out, dst.Count(dat))
				})
			}
		}
	}
}

func TestConserve(t *testing.T) {
	src, dst := raster(t), hex(t)
	for _, order := range []int{1, 2} {
		for _, at := range [][2]string{{"cell", "patch"}, {"patch", "patch"}, {"patch", "cell"}, {"cell", "cell"}} {
			t.Run(at[0]+"-"+at[1], func(t *testing.T) {
				r, err := NewConserve(src, dst, order, SrcAt(at[0]), DstAt(at[1]))
				require.NoError(t, err)
				out, err := r.Regrid(values(r.SrcSize()))
				require.NoError(t, err)
				dat, _ := topology.ParseLocation(at[1])
				assert.Len(t, out, dst.Count(dat))
				assert.Equal(t, order, r.Config().Method.Order)
			})
		}
	}
}

func TestConserveSecondOrderCellToPatch(t *testing.T) {
	src := raster(t)
	dst, err := topology.NewRaster(5, 10, 2, 2, 0, 0)
	require.NoError(t, err)
	_, err = NewConserve(src, dst, 2, SrcAt("node"), DstAt("patch"))
	assert.True(t, errors.Is(err, ErrIncompatibleLocation), "got %v", err)

	r, err := NewConserve(src, dst, 2, SrcAt("cell"), DstAt("patch"))
	require.NoError(t, err)
	assert.Equal(t, src.Count(topology.Cell), r.SrcSize())
	in := make([]float64, r.SrcSize())
	for i := range in {
		in[i] = 3
	}
	out, err := r.Regrid(in)
	require.NoError(t, err)
	require.Len(t, out, dst.Count(topology.Patch))

	// Source cells cover [0.5, 18.5] × [0.5, 8.5].
	xy := dst.XYOf(topology.Node)
	for i, ids := range dst.EntitiesAt(topology.Node, topology.Patch) {
		inside := true
		for _, id := range ids {
			if id == topology.Sentinel {
				continue
			}
			p := xy[id]
			inside = inside && p.X >= 0.5 && p.X <= 18.5 && p.Y >= 0.5 && p.Y <= 8.5
		}
		if inside {
			assert.InDelta(t, 3, out[i], 1e-9, "patch %d", i)
		}
	}
}

// spy counts accesses to a provider.
type spy struct {
	topology.Provider
	calls int
}

func (s *spy) Count(at topology.Location) int {
	s.calls++
	return s.Provider.Count(at)
}

func (s *spy) XYOf(at topology.Location) []geom.Point {
	s.calls++
	return s.Provider.XYOf(at)
}

func (s *spy) ChildCountAt(at topology.Location) []int {
	s.calls++
	return s.Provider.ChildCountAt(at)
}

func (s *spy) EntitiesAt(child, parent topology.Location) [][]int {
	s.calls++
	return s.Provider.EntitiesAt(child, parent)
}

func TestConfigurationErrorsBeforeProviderAccess(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		opts   []Option
		err    error
	}{
		{name: "conserve node", method: Method{Kind: Conserve, Order: 1}, opts: []Option{SrcAt("node"), DstAt("patch")}, err: ErrIncompatibleLocation},
		{name: "conserve corner", method: Method{Kind: Conserve, Order: 2}, opts: []Option{SrcAt("cell"), DstAt("corner")}, err: ErrIncompatibleLocation},
		{name: "order before location", method: Method{Kind: Conserve, Order: 3}, opts: []Option{SrcAt("node")}, err: ErrInvalidOrder},
		{name: "order zero", method: Method{Kind: Conserve}, opts: []Option{SrcAt("cell"), DstAt("cell")}, err: ErrInvalidOrder},
		{name: "bad location", method: Method{Kind: Bilinear}, opts: []Option{SrcAt("edge")}, err: ErrInvalidLocation},
		{name: "bad unmapped", method: Method{Kind: Bilinear}, opts: []Option{WithUnmappedName("sometimes")}, err: ErrUnknownUnmappedAction},
		{name: "bad extrapolation", method: Method{Kind: Bilinear}, opts: []Option{WithExtrapolationName("bogus")}, err: ErrUnknownExtrapolationMethod},
		{name: "bad method", method: Method{Kind: MethodKind(9)}, err: ErrUnknownMethod},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src, dst := &spy{Provider: raster(t)}, &spy{Provider: hex(t)}
			r, err := New(src, dst, test.method, test.opts...)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, test.err), "error %v should be %v", err, test.err)
			assert.Zero(t, src.calls, "source provider accessed")
			assert.Zero(t, dst.calls, "destination provider accessed")
		})
	}
}

func TestUnknownExtrapolation(t *testing.T) {
	_, err := FindExtrapolation("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownExtrapolationMethod))
	var e *UnknownExtrapolationMethodError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "bogus", e.Name)
	assert.Equal(t, []string{"creep", "inverse", "nearest", "none"}, e.Valid)
	assert.True(t, sort.StringsAreSorted(e.Valid))
	for _, name := range e.Valid {
		assert.True(t, strings.Contains(err.Error(), name), "message should list %s", name)
	}
}

func TestFindExtrapolation(t *testing.T) {
	for _, name := range ExtrapolationNames() {
		e, err := FindExtrapolation(name)
		require.NoError(t, err)
		assert.Equal(t, name, e.Name())
	}
	e, err := FindExtrapolation("creep")
	require.NoError(t, err)
	assert.IsType(t, ExtrapolateCreep{}, e)
}

func TestFindUnmappedAction(t *testing.T) {
	tests := []struct {
		name string
		want UnmappedAction
		ok   bool
	}{
		{name: "raise", want: UnmappedRaise, ok: true},
		{name: "ignore", want: UnmappedIgnore, ok: true},
		{name: "", want: UnmappedIgnore, ok: true},
		{name: "none", want: UnmappedIgnore, ok: true},
		{name: "RAISE"},
		{name: "error"},
	}
	for _, test := range tests {
		got, ok := FindUnmappedAction(test.name)
		assert.Equal(t, test.ok, ok, test.name)
		if ok {
			assert.Equal(t, test.want, got, test.name)
		}
	}
}

func TestParams(t *testing.T) {
	n, exp, levels := 4, 1.5, 3
	tests := []struct {
		m    Method
		u    UnmappedAction
		e    Extrapolation
		want engine.Params
	}{
		{
			m:    Method{Kind: Bilinear},
			want: engine.Params{RegridMethod: engine.Bilinear, UnmappedAction: engine.UnmappedIgnore},
		},
		{
			m:    Method{Kind: Patch},
			u:    UnmappedRaise,
			e:    ExtrapolateNearest{},
			want: engine.Params{RegridMethod: engine.Patch, UnmappedAction: engine.UnmappedError, ExtrapMethod: engine.ExtrapNearestSTOD},
		},
		{
			m: Method{Kind: NearestNeighbor, DToS: true},
			e: ExtrapolateInverseDistance{NumSourcePoints: &n, DistanceExponent: &exp},
			want: engine.Params{RegridMethod: engine.NearestDTOS, UnmappedAction: engine.UnmappedIgnore,
				ExtrapMethod: engine.ExtrapNearestIDAvg, ExtrapNumSrcPnts: &n, ExtrapDistExponent: &exp},
		},
		{
			m:    Method{Kind: NearestNeighbor},
			e:    ExtrapolateInverseDistance{},
			want: engine.Params{RegridMethod: engine.NearestSTOD, UnmappedAction: engine.UnmappedIgnore, ExtrapMethod: engine.ExtrapNearestIDAvg},
		},
		{
			m:    Method{Kind: Conserve, Order: 2},
			e:    ExtrapolateCreep{NumLevels: &levels},
			want: engine.Params{RegridMethod: engine.Conserve2nd, UnmappedAction: engine.UnmappedIgnore, ExtrapMethod: engine.ExtrapCreepFill, ExtrapNumLevels: &levels},
		},
	}
	for _, test := range tests {
		t.Run(test.m.String(), func(t *testing.T) {
			at := topology.Node
			if test.m.Kind == Conserve {
				at = topology.Patch
			}
			c, err := Configure(test.m, at, at, test.u, test.e)
			require.NoError(t, err)
			assert.Equal(t, test.want, c.Params())
		})
	}
}

func TestRegridShapeMismatch(t *testing.T) {
	r, err := NewBilinear(raster(t), hex(t))
	require.NoError(t, err)
	_, err = r.Regrid(make([]float64, r.SrcSize()+1))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = r.Regrid(nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestRegridReferentiallyTransparent(t *testing.T) {
	r, err := NewPatch(raster(t), hex(t), WithExtrapolationName("nearest"))
	require.NoError(t, err)
	in := values(r.SrcSize())
	orig := append([]float64(nil), in...)
	a, err := r.Regrid(in)
	require.NoError(t, err)
	assert.Equal(t, orig, in, "input modified")

	other := make([]float64, r.SrcSize())
	_, err = r.Regrid(other)
	require.NoError(t, err)

	b, err := r.Regrid(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	a[0] = 1e9
	c, err := r.Regrid(in)
	require.NoError(t, err)
	assert.Equal(t, b, c, "result must not alias internal storage")
}

func TestUnmappedRaise(t *testing.T) {
	small, err := topology.NewRaster(3, 3, 1, 1, 0, 0)
	require.NoError(t, err)
	_, err = NewBilinear(small, hex(t), WithUnmapped(UnmappedRaise))
	assert.True(t, errors.Is(err, engine.ErrUnmapped), "got %v", err)

	r, err := NewBilinear(small, hex(t), WithUnmappedName("raise"), WithExtrapolation(ExtrapolateNearest{}))
	require.NoError(t, err)
	out, err := r.Regrid([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1})
	require.NoError(t, err)
	for i, v := range out {
		assert.InDelta(t, 1, v, 1e-12, "point %d", i)
	}
}

func TestNearestNeighborDirection(t *testing.T) {
	src, dst := raster(t), hex(t)
	dtos, err := NewNearestNeighbor(src, dst, true)
	require.NoError(t, err)
	stod, err := NewNearestNeighbor(src, dst, false)
	require.NoError(t, err)
	in := make([]float64, dtos.SrcSize())
	for i := range in {
		in[i] = 1
	}
	a, err := dtos.Regrid(in)
	require.NoError(t, err)
	for _, v := range a {
		assert.Equal(t, 1.0, v)
	}
	b, err := stod.Regrid(in)
	require.NoError(t, err)
	assert.Len(t, b, len(a))
	assert.Equal(t, "nearest(dtos)", dtos.Config().Method.String())
	assert.Equal(t, "nearest(stod)", stod.Config().Method.String())
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("conserve2")
	require.NoError(t, err)
	assert.Equal(t, Method{Kind: Conserve, Order: 2}, m)
	m, err = ParseMethod("nearest_dtos")
	require.NoError(t, err)
	assert.True(t, m.DToS)
	_, err = ParseMethod("spline")
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}
