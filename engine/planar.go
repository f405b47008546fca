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
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/inmap/regrid/mesh"
	"github.com/spatialmodel/inmap/regrid/topology"
	"gonum.org/v1/gonum/mat"
)

// Planar is a reference engine that computes weights in planar Cartesian
// coordinates.
type Planar struct {
	// Procs is the number of goroutines used to compute weights.
	// Zero means runtime.GOMAXPROCS(0).
	Procs int

	// PatchPoints is the number of source points fitted by the Patch
	// method. Zero means 8.
	PatchPoints int
}

var _ Engine = &Planar{}

// NewPlanar returns a planar engine with default settings.
func NewPlanar() *Planar { return &Planar{} }

func (e *Planar) procs() int {
	if e.Procs > 0 {
		return e.Procs
	}
	return runtime.GOMAXPROCS(0)
}

// NewRegrid computes the weight matrix mapping src onto dst.
func (e *Planar) NewRegrid(src, dst *Field, p Params) (Operator, error) {
	if p.RegridMethod.IsConservative() && (src.Loc != Element || dst.Loc != Element) {
		return nil, fmt.Errorf("engine: %s regridding requires element fields, got %s to %s",
			p.RegridMethod, src.Loc, dst.Loc)
	}
	srcPts, dstPts := src.Points(), dst.Points()

	var rows []row
	switch p.RegridMethod {
	case Bilinear:
		loc := newLocator(srcPts, interpolationCells(src))
		rows = e.parallelRows(len(dstPts), func(j int) row {
			return bilinearRow(loc, dstPts[j])
		})
	case Patch:
		loc := newLocator(srcPts, interpolationCells(src))
		idx := newPointIndex(srcPts)
		n := e.PatchPoints
		if n == 0 {
			n = 8
		}
		rows = e.parallelRows(len(dstPts), func(j int) row {
			return patchRow(loc, idx, srcPts, dstPts[j], n)
		})
	case NearestDTOS:
		idx := newPointIndex(srcPts)
		rows = e.parallelRows(len(dstPts), func(j int) row {
			if nb, ok := idx.nearest(dstPts[j]); ok {
				return row{{col: nb.i, w: 1}}
			}
			return nil
		})
	case NearestSTOD:
		rows = nearestSTOD(srcPts, dstPts)
	case Conserve, Conserve2nd:
		rows = e.conserve(src, dst, p.RegridMethod == Conserve2nd)
	default:
		return nil, fmt.Errorf("engine: unsupported regrid method %s", p.RegridMethod)
	}

	if err := extrapolate(rows, srcPts, dstPts, dst, p); err != nil {
		return nil, err
	}

	if p.UnmappedAction == UnmappedError {
		var n int
		for _, r := range rows {
			if len(r) == 0 {
				n++
			}
		}
		if n > 0 {
			return nil, fmt.Errorf("engine: %d of %d destination points are unmapped: %w", n, len(rows), ErrUnmapped)
		}
	}
	return newWeights(rows, len(srcPts)), nil
}

// parallelRows computes n rows, striding them over the available goroutines.
func (e *Planar) parallelRows(n int, f func(j int) row) []row {
	rows := make([]row, n)
	nprocs := e.procs()
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for j := p; j < n; j += nprocs {
				rows[j] = f(j)
			}
		}(p)
	}
	wg.Wait()
	return rows
}

// interpolationCells returns the polygons, over the field's points, that
// destination points are located in. For node fields these are the
// elements; for element fields they are the dual cells formed by the
// element centroids around each interior node.
func interpolationCells(f *Field) [][]int {
	d := f.Discretization
	elems := make([][]int, d.NumElements())
	for i := range elems {
		elems[i] = d.ElementNodes(i)
	}
	if f.Loc == Node {
		return elems
	}
	nodes := make([]geom.Point, d.NumNodes())
	for i := range nodes {
		nodes[i] = d.Node(i)
	}
	_, cells, _ := topology.Dual(nodes, elems)
	return cells
}

func bilinearRow(loc *locator, p geom.Point) row {
	ids, w, ok := loc.locate(p)
	if !ok {
		return nil
	}
	return row{{col: ids[0], w: w[0]}, {col: ids[1], w: w[1]}, {col: ids[2], w: w[2]}}
}

// patchRow fits a linear function by least squares to the n source points
// nearest to p and returns the weights that evaluate the fit at p. Points
// outside the source coverage are unmapped.
func patchRow(loc *locator, idx *pointIndex, srcPts []geom.Point, p geom.Point, n int) row {
	fallback := bilinearRow(loc, p)
	if fallback == nil {
		return nil
	}
	nbs := idx.nearestN(p, n)
	if len(nbs) < 3 {
		return fallback
	}
	a := mat.NewDense(len(nbs), 3, nil)
	for k, nb := range nbs {
		q := srcPts[nb.i]
		a.Set(k, 0, 1)
		a.Set(k, 1, q.X-p.X)
		a.Set(k, 2, q.Y-p.Y)
	}
	var ata, inv, g mat.Dense
	ata.Mul(a.T(), a)
	if err := inv.Inverse(&ata); err != nil {
		return fallback
	}
	g.Mul(&inv, a.T())
	r := make(row, len(nbs))
	for k, nb := range nbs {
		r[k] = entry{col: nb.i, w: g.At(0, k)}
	}
	return r
}

// nearestSTOD sends each source point to its closest destination point.
// Destination points that receive several source points take their mean.
func nearestSTOD(srcPts, dstPts []geom.Point) []row {
	rows := make([]row, len(dstPts))
	idx := newPointIndex(dstPts)
	for i, p := range srcPts {
		if nb, ok := idx.nearest(p); ok {
			rows[nb.i] = append(rows[nb.i], entry{col: i, w: 1})
		}
	}
	for _, r := range rows {
		for k := range r {
			r[k].w = 1 / float64(len(r))
		}
	}
	return rows
}

// elementPolygons returns the elements of d as closed polygons.
func elementPolygons(d mesh.Discretization) []geom.Polygon {
	o := make([]geom.Polygon, d.NumElements())
	for i := range o {
		o[i] = mesh.ElementPolygon(d, i)
	}
	return o
}
