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
	"math"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/inmap/regrid/mesh"
)

// extrapolate fills the empty rows of rows according to p.ExtrapMethod.
func extrapolate(rows []row, srcPts, dstPts []geom.Point, dst *Field, p Params) error {
	var unmapped []int
	for j, r := range rows {
		if len(r) == 0 {
			unmapped = append(unmapped, j)
		}
	}
	if len(unmapped) == 0 || p.ExtrapMethod == ExtrapNone {
		return nil
	}

	switch p.ExtrapMethod {
	case ExtrapNearestSTOD:
		idx := newPointIndex(srcPts)
		for _, j := range unmapped {
			if nb, ok := idx.nearest(dstPts[j]); ok {
				rows[j] = row{{col: nb.i, w: 1}}
			}
		}
	case ExtrapNearestIDAvg:
		n := DefaultExtrapNumSrcPnts
		if p.ExtrapNumSrcPnts != nil {
			n = *p.ExtrapNumSrcPnts
		}
		if n < 1 {
			return fmt.Errorf("engine: extrapolation source point count must be positive (got %d)", n)
		}
		exp := DefaultExtrapDistExponent
		if p.ExtrapDistExponent != nil {
			exp = *p.ExtrapDistExponent
		}
		idx := newPointIndex(srcPts)
		for _, j := range unmapped {
			rows[j] = inverseDistanceRow(idx.nearestN(dstPts[j], n), exp)
		}
	case ExtrapCreepFill:
		levels := DefaultExtrapNumLevels
		if p.ExtrapNumLevels != nil {
			levels = *p.ExtrapNumLevels
		}
		if levels < 1 {
			return fmt.Errorf("engine: creep fill level count must be positive (got %d)", levels)
		}
		var nbs [][]int
		if dst.Loc == Element {
			nbs = mesh.ElementNeighbors(dst.Discretization)
		} else {
			nbs = mesh.NodeNeighbors(dst.Discretization)
		}
		creepFill(rows, unmapped, nbs, levels)
	default:
		return fmt.Errorf("engine: unsupported extrapolation method %s", p.ExtrapMethod)
	}
	return nil
}

func inverseDistanceRow(nbs []neighbor, exp float64) row {
	if len(nbs) == 0 {
		return nil
	}
	if nbs[0].dist == 0 {
		return row{{col: nbs[0].i, w: 1}}
	}
	r := make(row, len(nbs))
	var sum float64
	for k, nb := range nbs {
		w := 1 / math.Pow(nb.dist, exp)
		r[k] = entry{col: nb.i, w: w}
		sum += w
	}
	for k := range r {
		r[k].w /= sum
	}
	return r
}

// creepFill gives each unmapped point the mean of the weights of its
// mapped neighbors, repeating for the given number of levels. Points
// filled in one level only become donors in the next.
func creepFill(rows []row, unmapped []int, nbs [][]int, levels int) {
	type fill struct {
		j int
		r row
	}
	for level := 0; level < levels && len(unmapped) > 0; level++ {
		var fills []fill
		var remaining []int
		for _, j := range unmapped {
			var donors []int
			for _, n := range nbs[j] {
				if len(rows[n]) > 0 {
					donors = append(donors, n)
				}
			}
			if len(donors) == 0 {
				remaining = append(remaining, j)
				continue
			}
			var r row
			for _, n := range donors {
				r = rows[n].scaled(1/float64(len(donors)), r)
			}
			fills = append(fills, fill{j: j, r: r})
		}
		if len(fills) == 0 {
			return
		}
		for _, f := range fills {
			rows[f.j] = f.r
		}
		unmapped = remaining
	}
}
