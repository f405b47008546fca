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
	"math"

	"github.com/ctessum/geom"
)

// Hex is a hexagonal grid: nodes sit in rows that are offset by half
// the spacing on every other row, patches are equilateral triangles and
// cells are the hexagons around interior nodes.
type Hex struct {
	*Unstructured

	Rows, Cols int
	Spacing    float64
	X0, Y0     float64
}

// NewHex creates a hexagonal grid with rows × cols nodes separated by
// spacing, with the first node of the first row at (x0, y0). Odd rows are
// shifted right by half the spacing.
func NewHex(rows, cols int, spacing, x0, y0 float64) (*Hex, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("topology: hex grid must have at least 2 rows and 2 columns (got %d×%d)", rows, cols)
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("topology: hex grid spacing must be positive (got %g)", spacing)
	}
	dy := spacing * math.Sqrt(3) / 2
	nodes := make([]geom.Point, 0, rows*cols)
	for r := 0; r < rows; r++ {
		shift := 0.
		if r%2 == 1 {
			shift = spacing / 2
		}
		for c := 0; c < cols; c++ {
			nodes = append(nodes, geom.Point{X: x0 + shift + float64(c)*spacing, Y: y0 + float64(r)*dy})
		}
	}

	id := func(r, c int) int { return r*cols + c }
	patches := make([][]int, 0, 2*(rows-1)*(cols-1))
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			if r%2 == 0 {
				// The row above is shifted right.
				patches = append(patches,
					[]int{id(r, c), id(r, c+1), id(r+1, c)},
					[]int{id(r, c+1), id(r+1, c+1), id(r+1, c)})
			} else {
				// The row above is shifted left.
				patches = append(patches,
					[]int{id(r, c), id(r+1, c+1), id(r+1, c)},
					[]int{id(r, c), id(r, c+1), id(r+1, c+1)})
			}
		}
	}
	u, err := NewUnstructured(nodes, patches)
	if err != nil {
		return nil, err
	}
	return &Hex{
		Unstructured: u,
		Rows:         rows, Cols: cols,
		Spacing: spacing,
		X0:      x0, Y0: y0,
	}, nil
}
