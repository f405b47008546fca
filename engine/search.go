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
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// kdPoint is a point in a kd-tree that remembers its index in the field.
type kdPoint struct {
	x, y float64
	i    int
}

func (p kdPoint) coord(d kdtree.Dim) float64 {
	if d == 0 {
		return p.x
	}
	return p.y
}

// Compare returns the signed distance of p from the plane through c
// perpendicular to dimension d.
func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord(d) - c.(kdPoint).coord(d)
}

// Dims returns the number of dimensions, 2.
func (p kdPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between p and c.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints) Len() int                              { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int                { return kdPlane{kdPoints: p, Dim: d}.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// kdPlane sorts kdPoints along one dimension.
type kdPlane struct {
	kdPoints
	kdtree.Dim
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].coord(p.Dim) < p.kdPoints[j].coord(p.Dim)
}
func (p kdPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}

// pointIndex answers nearest-neighbor queries over a set of points.
type pointIndex struct {
	tree *kdtree.Tree
	n    int
}

func newPointIndex(pts []geom.Point) *pointIndex {
	kp := make(kdPoints, len(pts))
	for i, p := range pts {
		kp[i] = kdPoint{x: p.X, y: p.Y, i: i}
	}
	idx := &pointIndex{n: len(pts)}
	if len(pts) > 0 {
		idx.tree = kdtree.New(kp, false)
	}
	return idx
}

// neighbor is a point found by a nearest-neighbor query.
type neighbor struct {
	i    int
	dist float64 // Euclidean distance
}

// nearest returns the closest point to p, or false if the index is empty.
func (idx *pointIndex) nearest(p geom.Point) (neighbor, bool) {
	if idx.tree == nil {
		return neighbor{}, false
	}
	c, d := idx.tree.Nearest(kdPoint{x: p.X, y: p.Y})
	if c == nil {
		return neighbor{}, false
	}
	return neighbor{i: c.(kdPoint).i, dist: math.Sqrt(d)}, true
}

// nearestN returns up to n of the closest points to p, closest first.
func (idx *pointIndex) nearestN(p geom.Point, n int) []neighbor {
	if idx.tree == nil || n < 1 {
		return nil
	}
	keep := kdtree.NewNKeeper(n)
	idx.tree.NearestSet(keep, kdPoint{x: p.X, y: p.Y})
	o := make([]neighbor, 0, n)
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		o = append(o, neighbor{i: cd.Comparable.(kdPoint).i, dist: math.Sqrt(cd.Dist)})
	}
	sort.Slice(o, func(a, b int) bool {
		if o[a].dist == o[b].dist {
			return o[a].i < o[b].i
		}
		return o[a].dist < o[b].dist
	})
	return o
}

// cellIndex is a polygon in the locator's spatial index.
type cellIndex struct {
	geom.Polygon
	i int
}

// locator finds the cell, and the triangle within it, that contains a
// point. Cells are polygons over a set of points, given as point ids.
type locator struct {
	pts   []geom.Point
	cells [][]int
	tree  *rtree.Rtree
}

func newLocator(pts []geom.Point, cells [][]int) *locator {
	l := &locator{pts: pts, cells: cells, tree: rtree.NewTree(25, 50)}
	for i, c := range cells {
		if len(c) < 3 {
			continue
		}
		ring := make(geom.Path, 0, len(c)+1)
		for _, id := range c {
			ring = append(ring, pts[id])
		}
		ring = append(ring, ring[0])
		l.tree.Insert(cellIndex{Polygon: geom.Polygon{ring}, i: i})
	}
	return l
}

// baryTol is the tolerance on barycentric coordinates for points on
// element edges.
const baryTol = 1e-10

// locate returns the point ids of the triangle containing p and the
// barycentric weights of p within it.
func (l *locator) locate(p geom.Point) (ids [3]int, w [3]float64, ok bool) {
	eps := 1e-9 * (1 + math.Abs(p.X) + math.Abs(p.Y))
	b := &geom.Bounds{
		Min: geom.Point{X: p.X - eps, Y: p.Y - eps},
		Max: geom.Point{X: p.X + eps, Y: p.Y + eps},
	}
	candidates := l.tree.SearchIntersect(b)
	// Search in a fixed order so that points on shared edges always
	// resolve to the same cell.
	order := make([]int, 0, len(candidates))
	for _, c := range candidates {
		order = append(order, c.(cellIndex).i)
	}
	sort.Ints(order)
	for _, ci := range order {
		c := l.cells[ci]
		for k := 1; k+1 < len(c); k++ {
			tri := [3]int{c[0], c[k], c[k+1]}
			if w, ok := barycentric(p, l.pts[tri[0]], l.pts[tri[1]], l.pts[tri[2]]); ok {
				return tri, w, true
			}
		}
	}
	return ids, w, false
}

// barycentric returns the barycentric coordinates of p in triangle abc
// and whether p lies inside it. Degenerate triangles contain nothing.
func barycentric(p, a, b, c geom.Point) ([3]float64, bool) {
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	scale := math.Abs(a.X-c.X) + math.Abs(a.Y-c.Y) + math.Abs(b.X-c.X) + math.Abs(b.Y-c.Y)
	if math.Abs(det) <= 1e-14*scale*scale {
		return [3]float64{}, false
	}
	l0 := ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / det
	l1 := ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / det
	l2 := 1 - l0 - l1
	if l0 < -baryTol || l1 < -baryTol || l2 < -baryTol {
		return [3]float64{}, false
	}
	return [3]float64{l0, l1, l2}, true
}
