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
	"fmt"

	"github.com/ctessum/geom"
)

// Raster is a regular rectangular grid, where all patches are the
// same size. Nodes are numbered row by row starting at the lower left.
type Raster struct {
	*Unstructured

	Rows, Cols int
	Dx, Dy     float64
	X0, Y0     float64
}

// NewRaster creates a new regular grid with rows × cols nodes, node spacing
// dx and dy, and lower-left node at (x0, y0).
func NewRaster(rows, cols int, dx, dy, x0, y0 float64) (*Raster, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("topology: raster must have at least 2 rows and 2 columns (got %d×%d)", rows, cols)
	}
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("topology: raster spacing must be positive (got %g, %g)", dx, dy)
	}
	nodes := make([]geom.Point, 0, rows*cols)
	for iy := 0; iy < rows; iy++ {
		for ix := 0; ix < cols; ix++ {
			nodes = append(nodes, geom.Point{X: x0 + float64(ix)*dx, Y: y0 + float64(iy)*dy})
		}
	}
	patches := make([][]int, 0, (rows-1)*(cols-1))
	for iy := 0; iy < rows-1; iy++ {
		for ix := 0; ix < cols-1; ix++ {
			ll := iy*cols + ix
			patches = append(patches, []int{ll, ll + 1, ll + cols + 1, ll + cols})
		}
	}
	u, err := NewUnstructured(nodes, patches)
	if err != nil {
		return nil, err
	}
	return &Raster{
		Unstructured: u,
		Rows:         rows, Cols: cols,
		Dx: dx, Dy: dy,
		X0: x0, Y0: y0,
	}, nil
}

// Shape returns the number of node rows and columns.
func (r *Raster) Shape() (rows, cols int) { return r.Rows, r.Cols }
