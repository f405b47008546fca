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
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/inmap/regrid/topology"
)

// Grid is a logically rectangular grid of points. Its elements are the
// quadrilaterals between adjacent rows and columns; point (r, c) has id
// r*cols + c.
type Grid struct {
	at   topology.Location
	x, y *sparse.DenseArray
}

// NewGrid creates a grid from the points of s at the given point location.
// Node grids have the shape of s; corner grids have one fewer row and
// column.
func NewGrid(s topology.Structured, at topology.Location) (*Grid, error) {
	if !at.Valid() || !at.IsPoint() {
		return nil, malformed("a grid can only be built at node or corner, not %s", at)
	}
	rows, cols := topology.Dims(s, at)
	if rows < 1 || cols < 1 {
		return nil, malformed("grid at %s has shape %d×%d", at, rows, cols)
	}
	xy := s.XYOf(at)
	if len(xy) != rows*cols {
		return nil, malformed("got %d coordinates at %s for a %d×%d grid", len(xy), at, rows, cols)
	}
	g := &Grid{
		at: at,
		x:  sparse.ZerosDense(rows, cols),
		y:  sparse.ZerosDense(rows, cols),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p := xy[r*cols+c]
			g.x.Set(p.X, r, c)
			g.y.Set(p.Y, r, c)
		}
	}
	return g, nil
}

// Kind returns KindGrid.
func (g *Grid) Kind() Kind { return KindGrid }

// Location returns the point location the grid was built at.
func (g *Grid) Location() topology.Location { return g.at }

// Shape returns the number of rows and columns of points.
func (g *Grid) Shape() (rows, cols int) { return g.x.Shape[0], g.x.Shape[1] }

// Coords returns the coordinate array for dimension 0 (x) or 1 (y),
// with shape (rows, cols).
func (g *Grid) Coords(dim int) *sparse.DenseArray {
	if dim == 0 {
		return g.x
	}
	return g.y
}

// NumNodes is the number of points.
func (g *Grid) NumNodes() int { return len(g.x.Elements) }

// Node returns the coordinates of point i.
func (g *Grid) Node(i int) geom.Point {
	return geom.Point{X: g.x.Elements[i], Y: g.y.Elements[i]}
}

// NumElements is the number of quadrilaterals.
func (g *Grid) NumElements() int {
	rows, cols := g.Shape()
	if rows < 2 || cols < 2 {
		return 0
	}
	return (rows - 1) * (cols - 1)
}

// ElementNodes returns the corners of quadrilateral i, starting at the
// lower left and going counter-clockwise.
func (g *Grid) ElementNodes(i int) []int {
	_, cols := g.Shape()
	r, c := i/(cols-1), i%(cols-1)
	ll := r*cols + c
	return []int{ll, ll + 1, ll + cols + 1, ll + cols}
}

// ElementCentroid returns the centroid of quadrilateral i.
func (g *Grid) ElementCentroid(i int) geom.Point { return centroid(g, i) }
