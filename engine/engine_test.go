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

package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/inmap/regrid/mesh"
	"github.com/spatialmodel/inmap/regrid/topology"
)

func build(t *testing.T, p topology.Provider, at topology.Location) mesh.Discretization {
	t.Helper()
	d, err := mesh.Build(p, at, !at.IsPoint())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func raster(t *testing.T, rows, cols int, dx, x0 float64) *topology.Raster {
	t.Helper()
	r, err := topology.NewRaster(rows, cols, dx, dx, x0, x0)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func linear(p geom.Point) float64 { return 2*p.X + 3*p.Y + 1 }

func fill(f *Field, fn func(geom.Point) float64) {
	for i, p := range f.Points() {
		f.Data[i] = fn(p)
	}
}

func regrid(t *testing.T, src, dst *Field, p Params) *Weights {
	t.Helper()
	op, err := NewPlanar().NewRegrid(src, dst, p)
	if err != nil {
		t.Fatal(err)
	}
	if err := op.Regrid(src, dst); err != nil {
		t.Fatal(err)
	}
	return op.(*Weights)
}

func TestBilinearLinearField(t *testing.T) {
	src := NewField(build(t, raster(t, 11, 11, 1, 0), topology.Node), Node)
	hex, err := topology.NewHex(6, 6, 1.5, 0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	dst := NewField(build(t, hex, topology.Node), Node)
	fill(src, linear)
	w := regrid(t, src, dst, Params{RegridMethod: Bilinear, UnmappedAction: UnmappedIgnore})
	if u := w.Unmapped(); len(u) != 0 {
		t.Fatalf("unmapped points: %v", u)
	}
	for i, p := range dst.Points() {
		if want := linear(p); math.Abs(dst.Data[i]-want) > 1e-9 {
			t.Errorf("point %d %v: %g != %g", i, p, dst.Data[i], want)
		}
	}
}

func TestBilinearElementField(t *testing.T) {
	src := NewField(build(t, raster(t, 11, 11, 1, 0), topology.Patch), Element)
	dst := NewField(build(t, raster(t, 5, 5, 1.5, 2), topology.Node), Node)
	fill(src, linear)
	regrid(t, src, dst, Params{RegridMethod: Bilinear, UnmappedAction: UnmappedIgnore})
	for i, p := range dst.Points() {
		if want := linear(p); math.Abs(dst.Data[i]-want) > 1e-9 {
			t.Errorf("point %d %v: %g != %g", i, p, dst.Data[i], want)
		}
	}
}

func TestPatchLinearField(t *testing.T) {
	src := NewField(build(t, raster(t, 11, 11, 1, 0), topology.Node), Node)
	dst := NewField(build(t, raster(t, 6, 6, 1.7, 0.6), topology.Node), Node)
	fill(src, linear)
	regrid(t, src, dst, Params{RegridMethod: Patch, UnmappedAction: UnmappedIgnore})
	for i, p := range dst.Points() {
		if want := linear(p); math.Abs(dst.Data[i]-want) > 1e-8 {
			t.Errorf("point %d %v: %g != %g", i, p, dst.Data[i], want)
		}
	}
}

func TestNearest(t *testing.T) {
	src := NewField(build(t, raster(t, 3, 3, 1, 0), topology.Node), Node)
	for i := range src.Data {
		src.Data[i] = float64(i)
	}
	dst := NewField(mesh.NewLocStream([]geom.Point{{X: 0.1, Y: 0.2}, {X: 1.9, Y: 1.1}, {X: 5, Y: 5}}), Node)

	regrid(t, src, dst, Params{RegridMethod: NearestDTOS, UnmappedAction: UnmappedIgnore})
	want := []float64{0, 5, 8}
	for i := range want {
		if dst.Data[i] != want[i] {
			t.Errorf("dtos %d: %g != %g", i, dst.Data[i], want[i])
		}
	}

	regrid(t, src, dst, Params{RegridMethod: NearestSTOD, UnmappedAction: UnmappedIgnore})
	// Source nodes 0, 1, 3 and 6 are closest to the first point and the
	// rest to the second.
	want = []float64{2.5, 5.2, 0}
	for i := range want {
		if math.Abs(dst.Data[i]-want[i]) > 1e-12 {
			t.Errorf("stod %d: %g != %g", i, dst.Data[i], want[i])
		}
	}
}

func areas(d mesh.Discretization) []float64 {
	o := make([]float64, d.NumElements())
	for i := range o {
		o[i] = mesh.ElementPolygon(d, i).Area()
	}
	return o
}

func TestConserve(t *testing.T) {
	src := NewField(build(t, raster(t, 5, 5, 1, 0), topology.Patch), Element)
	dst := NewField(build(t, raster(t, 8, 8, 0.7, -0.3), topology.Patch), Element)
	fill(src, linear)
	srcArea, dstArea := areas(src.Discretization), areas(dst.Discretization)
	var total float64
	for i, v := range src.Data {
		total += v * srcArea[i]
	}
	for _, method := range []RegridMethod{Conserve, Conserve2nd} {
		t.Run(method.String(), func(t *testing.T) {
			regrid(t, src, dst, Params{RegridMethod: method, UnmappedAction: UnmappedIgnore})
			var got float64
			for j, v := range dst.Data {
				got += v * dstArea[j]
			}
			if math.Abs(got-total) > 1e-9*math.Abs(total) {
				t.Errorf("integral %g != %g", got, total)
			}
		})
	}
}

func TestConserve2ndLinearField(t *testing.T) {
	src := NewField(build(t, raster(t, 9, 9, 1, 0), topology.Patch), Element)
	dst := NewField(build(t, raster(t, 4, 4, 1.3, 2.1), topology.Patch), Element)
	fill(src, linear)
	regrid(t, src, dst, Params{RegridMethod: Conserve2nd, UnmappedAction: UnmappedError})
	for j, p := range dst.Points() {
		if want := linear(p); math.Abs(dst.Data[j]-want) > 1e-9 {
			t.Errorf("element %d: %g != %g", j, dst.Data[j], want)
		}
	}
}

func TestConserveRequiresElements(t *testing.T) {
	r := raster(t, 3, 3, 1, 0)
	src := NewField(build(t, r, topology.Node), Node)
	dst := NewField(build(t, r, topology.Patch), Element)
	if _, err := NewPlanar().NewRegrid(src, dst, Params{RegridMethod: Conserve}); err == nil {
		t.Fatal("expected an error for a node source field")
	}
}

func TestExtrapolation(t *testing.T) {
	src := NewField(build(t, raster(t, 3, 3, 1, 0), topology.Node), Node)
	dst := NewField(build(t, raster(t, 6, 6, 1, -1.5), topology.Node), Node)
	fill(src, linear)
	three, one := 3, 1
	exp := 1.5
	tests := []struct {
		name     string
		p        Params
		unmapped bool
	}{
		{name: "none", p: Params{ExtrapMethod: ExtrapNone}, unmapped: true},
		{name: "nearest", p: Params{ExtrapMethod: ExtrapNearestSTOD}},
		{name: "idavg", p: Params{ExtrapMethod: ExtrapNearestIDAvg, ExtrapNumSrcPnts: &three, ExtrapDistExponent: &exp}},
		{name: "idavg defaults", p: Params{ExtrapMethod: ExtrapNearestIDAvg}},
		{name: "creep one level", p: Params{ExtrapMethod: ExtrapCreepFill, ExtrapNumLevels: &one}, unmapped: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.p.RegridMethod = Bilinear
			test.p.UnmappedAction = UnmappedIgnore
			w := regrid(t, src, dst, test.p)
			if got := len(w.Unmapped()) > 0; got != test.unmapped {
				t.Errorf("unmapped points %v", w.Unmapped())
			}
			for j := 0; j < w.rows; j++ {
				_, vals := w.Row(j)
				if len(vals) == 0 {
					continue
				}
				var sum float64
				for _, v := range vals {
					sum += v
				}
				if math.Abs(sum-1) > 1e-12 {
					t.Errorf("row %d weights sum to %g", j, sum)
				}
			}
		})
	}
}

func TestCreepFillLevels(t *testing.T) {
	src := NewField(build(t, raster(t, 3, 3, 1, 0), topology.Node), Node)
	dst := NewField(build(t, raster(t, 9, 9, 1, -3.5), topology.Node), Node)
	unmapped := func(levels int) int {
		w := regrid(t, src, dst, Params{
			RegridMethod:    Bilinear,
			UnmappedAction:  UnmappedIgnore,
			ExtrapMethod:    ExtrapCreepFill,
			ExtrapNumLevels: &levels,
		})
		return len(w.Unmapped())
	}
	prev := unmapped(1)
	for levels := 2; levels <= 4; levels++ {
		n := unmapped(levels)
		if n >= prev && prev > 0 {
			t.Errorf("level %d: %d unmapped, level %d: %d", levels, n, levels-1, prev)
		}
		prev = n
	}
}

func TestExtrapolationBadParams(t *testing.T) {
	src := NewField(build(t, raster(t, 3, 3, 1, 0), topology.Node), Node)
	dst := NewField(build(t, raster(t, 4, 4, 1, -0.5), topology.Node), Node)
	zero := 0
	for _, p := range []Params{
		{ExtrapMethod: ExtrapNearestIDAvg, ExtrapNumSrcPnts: &zero},
		{ExtrapMethod: ExtrapCreepFill, ExtrapNumLevels: &zero},
	} {
		if _, err := NewPlanar().NewRegrid(src, dst, p); err == nil {
			t.Errorf("%s: expected an error", p.ExtrapMethod)
		}
	}
}

func TestUnmappedError(t *testing.T) {
	src := NewField(build(t, raster(t, 3, 3, 1, 0), topology.Node), Node)
	dst := NewField(build(t, raster(t, 4, 4, 1, -0.5), topology.Node), Node)
	_, err := NewPlanar().NewRegrid(src, dst, Params{RegridMethod: Bilinear, UnmappedAction: UnmappedError})
	if !errors.Is(err, ErrUnmapped) {
		t.Fatalf("error should be ErrUnmapped: %v", err)
	}
	_, err = NewPlanar().NewRegrid(src, dst, Params{
		RegridMethod:   Bilinear,
		UnmappedAction: UnmappedError,
		ExtrapMethod:   ExtrapNearestSTOD,
	})
	if err != nil {
		t.Fatalf("extrapolation should map every point: %v", err)
	}
}

func TestWeightsSizeCheck(t *testing.T) {
	w := newWeights([]row{{{col: 0, w: 0.5}, {col: 1, w: 0.25}, {col: 0, w: 0.25}}, nil}, 2)
	if w.NNZ() != 2 {
		t.Errorf("duplicates should merge: %d stored weights", w.NNZ())
	}
	cols, vals := w.Row(0)
	if cols[0] != 0 || vals[0] != 0.75 {
		t.Errorf("row 0: %v %v", cols, vals)
	}
	src := &Field{Data: []float64{1, 2, 3}}
	dst := &Field{Data: make([]float64, 2)}
	if err := w.Regrid(src, dst); err == nil {
		t.Error("expected a size error")
	}
	src.Data = src.Data[:2]
	if err := w.Regrid(src, dst); err != nil {
		t.Fatal(err)
	}
	if dst.Data[0] != 1.25 || dst.Data[1] != 0 {
		t.Errorf("result: %v", dst.Data)
	}
}
