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
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/spatialmodel/inmap/regrid/mesh"
	"gonum.org/v1/gonum/mat"
)

// areaTol is the fraction of a destination element's area below which
// overlaps are treated as round-off.
const areaTol = 1e-12

// conserve computes area-weighted remapping weights between the elements
// of src and dst, normalized by destination element area. When second is
// true each source value is corrected by a least-squares gradient
// evaluated at the centroid of each overlap.
func (e *Planar) conserve(src, dst *Field, second bool) []row {
	srcPolys := elementPolygons(src.Discretization)
	dstPolys := elementPolygons(dst.Discretization)

	tree := rtree.NewTree(25, 50)
	centroids := make([]geom.Point, len(srcPolys))
	for i, p := range srcPolys {
		if p.Area() <= 0 {
			continue
		}
		centroids[i] = p.Centroid()
		tree.Insert(cellIndex{Polygon: p, i: i})
	}
	var grads []gradient
	if second {
		grads = gradients(src.Discretization, centroids)
	}

	return e.parallelRows(len(dstPolys), func(j int) row {
		pd := dstPolys[j]
		ad := pd.Area()
		if ad <= 0 {
			return nil
		}
		var r row
		for _, gI := range tree.SearchIntersect(pd.Bounds()) {
			s := gI.(cellIndex)
			isect := pd.Intersection(s.Polygon)
			if isect == nil {
				continue
			}
			a := isect.Area()
			if a <= areaTol*ad {
				continue
			}
			f := a / ad
			if !second || grads[s.i].nbs == nil {
				r = append(r, entry{col: s.i, w: f})
				continue
			}
			g := grads[s.i]
			c := isect.Centroid()
			dx, dy := c.X-centroids[s.i].X, c.Y-centroids[s.i].Y
			self := f
			for k, n := range g.nbs {
				w := f * (dx*g.gx[k] + dy*g.gy[k])
				self -= w
				r = append(r, entry{col: n, w: w})
			}
			r = append(r, entry{col: s.i, w: self})
		}
		return r
	})
}

// gradient holds the least-squares gradient operator of one source
// element: grad = Σ_k (gx[k], gy[k]) · (v[nbs[k]] - v[self]).
type gradient struct {
	nbs    []int
	gx, gy []float64
}

// gradients returns the gradient operator of every element of d, given the
// element centroids. Elements with fewer than two usable neighbors, or
// whose neighbors are collinear, get a zero gradient.
func gradients(d mesh.Discretization, centroids []geom.Point) []gradient {
	nbs := mesh.ElementNeighbors(d)
	o := make([]gradient, len(nbs))
	for s, all := range nbs {
		var n []int
		for _, k := range all {
			if centroids[k] != centroids[s] {
				n = append(n, k)
			}
		}
		if len(n) < 2 {
			continue
		}
		a := mat.NewDense(len(n), 2, nil)
		for k, id := range n {
			a.Set(k, 0, centroids[id].X-centroids[s].X)
			a.Set(k, 1, centroids[id].Y-centroids[s].Y)
		}
		var ata, inv, g mat.Dense
		ata.Mul(a.T(), a)
		if err := inv.Inverse(&ata); err != nil {
			continue
		}
		g.Mul(&inv, a.T())
		o[s] = gradient{
			nbs: n,
			gx:  mat.Row(nil, 0, &g),
			gy:  mat.Row(nil, 1, &g),
		}
	}
	return o
}
