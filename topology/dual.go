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

package topology

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// Dual builds the dual of a polygon mesh. Each polygon contributes one
// corner at its centroid. Each interior node (one that is completely
// surrounded by polygons) becomes a cell whose corners are the centroids
// of the polygons around it, ordered counter-clockwise. cellNodes[i] is
// the node that cell i surrounds. Sentinel entries in polygons are skipped.
func Dual(nodes []geom.Point, polygons [][]int) (corners []geom.Point, cells [][]int, cellNodes []int) {
	corners = make([]geom.Point, len(polygons))
	incident := make([][]int, len(nodes))
	rings := make([][]int, len(polygons))
	for i, p := range polygons {
		ring := realIDs(p)
		rings[i] = ring
		corners[i] = Centroid(nodes, ring)
		for _, n := range ring {
			if n < len(nodes) {
				incident[n] = append(incident[n], i)
			}
		}
	}

	for n, polys := range incident {
		if !closedFan(n, polys, rings) {
			continue
		}
		c := nodes[n]
		sorted := append([]int(nil), polys...)
		sort.Slice(sorted, func(a, b int) bool {
			pa, pb := corners[sorted[a]], corners[sorted[b]]
			return math.Atan2(pa.Y-c.Y, pa.X-c.X) < math.Atan2(pb.Y-c.Y, pb.X-c.X)
		})
		cells = append(cells, sorted)
		cellNodes = append(cellNodes, n)
	}
	return corners, cells, cellNodes
}

// closedFan reports whether the polygons around node n close on
// themselves, which is the case when every edge leaving n is shared by
// exactly two of them.
func closedFan(n int, polys []int, rings [][]int) bool {
	if len(polys) < 3 {
		return false
	}
	edges := make(map[int]int)
	for _, p := range polys {
		ring := rings[p]
		for k, id := range ring {
			if id != n {
				continue
			}
			edges[ring[(k+len(ring)-1)%len(ring)]]++
			edges[ring[(k+1)%len(ring)]]++
		}
	}
	for _, count := range edges {
		if count != 2 {
			return false
		}
	}
	return true
}

// Centroid returns the area centroid of the polygon formed by the
// given node ids. Degenerate polygons fall back to the vertex mean.
func Centroid(nodes []geom.Point, ring []int) geom.Point {
	path := make(geom.Path, 0, len(ring)+1)
	for _, id := range ring {
		path = append(path, nodes[id])
	}
	if len(path) > 2 {
		path = append(path, path[0])
		poly := geom.Polygon{path}
		if poly.Area() > 0 {
			return poly.Centroid()
		}
		path = path[:len(path)-1]
	}
	var c geom.Point
	for _, p := range path {
		c.X += p.X
		c.Y += p.Y
	}
	if len(path) > 0 {
		c.X /= float64(len(path))
		c.Y /= float64(len(path))
	}
	return c
}

func realIDs(row []int) []int {
	ids := make([]int, 0, len(row))
	for _, id := range row {
		if id >= 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// pad converts ragged rows into a rectangular table padded with Sentinel.
func pad(rows [][]int) [][]int {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	o := make([][]int, len(rows))
	for i, r := range rows {
		o[i] = make([]int, width)
		n := copy(o[i], r)
		for j := n; j < width; j++ {
			o[i][j] = Sentinel
		}
	}
	return o
}
