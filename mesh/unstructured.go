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
	"github.com/ctessum/geom"
	"github.com/spatialmodel/inmap/regrid/topology"
)

// Mesh is an unstructured mesh. Polygon connectivity is stored as a flat
// array of node ids with per-polygon offsets into it, so polygon i owns
// conn[offsets[i]:offsets[i+1]].
type Mesh struct {
	points, polygons topology.Location

	nodes     []geom.Point
	offsets   []int
	conn      []int
	centroids []geom.Point
}

// NewMesh creates a mesh from the points at at.Points() of p, connected by
// the polygons at at.Polygons(). Sentinel entries in the connectivity
// table are dropped; every polygon must keep exactly as many ids as its
// reported child count, and at least one.
func NewMesh(p topology.Provider, at topology.Location) (*Mesh, error) {
	if !at.Valid() {
		return nil, malformed("invalid location %s", at)
	}
	points, polygons := at.Points(), at.Polygons()
	m := &Mesh{points: points, polygons: polygons}

	n := p.Count(points)
	m.nodes = append([]geom.Point(nil), p.XYOf(points)...)
	if len(m.nodes) != n {
		return nil, malformed("got %d coordinates for %d %ss", len(m.nodes), n, points)
	}

	np := p.Count(polygons)
	counts := p.ChildCountAt(polygons)
	table := p.EntitiesAt(points, polygons)
	if len(counts) != np {
		return nil, malformed("got %d child counts for %d %ss", len(counts), np, polygons)
	}
	if len(table) != np {
		return nil, malformed("got %d connectivity rows for %d %ss", len(table), np, polygons)
	}

	m.offsets = make([]int, np+1)
	for i, row := range table {
		start := len(m.conn)
		for _, id := range row {
			switch {
			case id == topology.Sentinel:
				continue
			case id < 0:
				return nil, malformed("%s %d has negative %s id %d", polygons, i, points, id)
			case id >= n:
				return nil, malformed("%s %d refers to missing %s %d", polygons, i, points, id)
			}
			m.conn = append(m.conn, id)
		}
		kept := len(m.conn) - start
		if kept == 0 {
			return nil, malformed("%s %d has no %ss", polygons, i, points)
		}
		if kept != counts[i] {
			return nil, malformed("%s %d has %d %ss but a child count of %d", polygons, i, kept, points, counts[i])
		}
		m.offsets[i+1] = len(m.conn)
	}

	if c := p.XYOf(polygons); len(c) == np {
		m.centroids = append([]geom.Point(nil), c...)
	}
	return m, nil
}

// Kind returns KindMesh.
func (m *Mesh) Kind() Kind { return KindMesh }

// Locations returns the point and polygon locations the mesh was built from.
func (m *Mesh) Locations() (points, polygons topology.Location) { return m.points, m.polygons }

// NumNodes is the number of points.
func (m *Mesh) NumNodes() int { return len(m.nodes) }

// Node returns the coordinates of point i.
func (m *Mesh) Node(i int) geom.Point { return m.nodes[i] }

// NumElements is the number of polygons.
func (m *Mesh) NumElements() int { return len(m.offsets) - 1 }

// ElementNodes returns the point ids of polygon i.
func (m *Mesh) ElementNodes(i int) []int {
	lo, hi := m.offsets[i], m.offsets[i+1]
	return m.conn[lo:hi:hi]
}

// ElementCentroid returns the centroid of polygon i, as reported by the
// topology provider if it supplied one.
func (m *Mesh) ElementCentroid(i int) geom.Point {
	if m.centroids != nil {
		return m.centroids[i]
	}
	return centroid(m, i)
}

// HasCentroids reports whether the provider supplied polygon centroids.
func (m *Mesh) HasCentroids() bool { return m.centroids != nil }

// Connectivity returns copies of the per-polygon offsets and the flat
// point id array.
func (m *Mesh) Connectivity() (offsets, ids []int) {
	return append([]int(nil), m.offsets...), append([]int(nil), m.conn...)
}
