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

package mesh

import (
	"sort"

	"github.com/ctessum/geom"
)

// ElementPolygon returns element i of d as a closed, counter-clockwise
// polygon.
func ElementPolygon(d Discretization, i int) geom.Polygon {
	ids := d.ElementNodes(i)
	ring := make(geom.Path, len(ids), len(ids)+1)
	for j, id := range ids {
		ring[j] = d.Node(id)
	}
	if SignedArea(ring) < 0 {
		for a, b := 0, len(ring)-1; a < b; a, b = a+1, b-1 {
			ring[a], ring[b] = ring[b], ring[a]
		}
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return geom.Polygon{ring}
}

// SignedArea returns the area enclosed by ring, positive if the ring is
// counter-clockwise. The ring may or may not repeat its first point.
func SignedArea(ring geom.Path) float64 {
	var a float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// NodeNeighbors returns, for each node of d, the sorted ids of the nodes
// that share an element edge with it.
func NodeNeighbors(d Discretization) [][]int {
	sets := make([]map[int]struct{}, d.NumNodes())
	add := func(a, b int) {
		if sets[a] == nil {
			sets[a] = make(map[int]struct{})
		}
		sets[a][b] = struct{}{}
	}
	for e := 0; e < d.NumElements(); e++ {
		ids := d.ElementNodes(e)
		for k, a := range ids {
			b := ids[(k+1)%len(ids)]
			if a == b {
				continue
			}
			add(a, b)
			add(b, a)
		}
	}
	return sortedSets(sets)
}

// ElementNeighbors returns, for each element of d, the sorted ids of the
// other elements that share at least one node with it.
func ElementNeighbors(d Discretization) [][]int {
	atNode := make([][]int, d.NumNodes())
	for e := 0; e < d.NumElements(); e++ {
		for _, n := range d.ElementNodes(e) {
			atNode[n] = append(atNode[n], e)
		}
	}
	sets := make([]map[int]struct{}, d.NumElements())
	for _, elems := range atNode {
		for _, a := range elems {
			for _, b := range elems {
				if a == b {
					continue
				}
				if sets[a] == nil {
					sets[a] = make(map[int]struct{})
				}
				sets[a][b] = struct{}{}
			}
		}
	}
	return sortedSets(sets)
}

func sortedSets(sets []map[int]struct{}) [][]int {
	o := make([][]int, len(sets))
	for i, s := range sets {
		for j := range s {
			o[i] = append(o[i], j)
		}
		sort.Ints(o[i])
	}
	return o
}
