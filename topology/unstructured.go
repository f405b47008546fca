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

// Unstructured is a polygon mesh with arbitrary, possibly mixed, polygon
// shapes. Corners and cells are derived from the patches with Dual.
type Unstructured struct {
	nodes     []geom.Point
	patches   [][]int
	corners   []geom.Point
	cells     [][]int
	cellNodes []int
}

// Make sure the mesh types fulfill the interface.
var (
	_ Provider   = &Unstructured{}
	_ Structured = &Raster{}
	_ Provider   = &Hex{}
)

// NewUnstructured returns a mesh with the given node coordinates and
// patches, where each patch lists its node ids counter-clockwise.
// Sentinel entries in patches are ignored. Any other negative id, an id
// that is not a node, or a patch with no nodes is an error wrapping
// ErrMalformedTopology.
func NewUnstructured(nodes []geom.Point, patches [][]int) (*Unstructured, error) {
	u := &Unstructured{
		nodes:   append([]geom.Point(nil), nodes...),
		patches: make([][]int, len(patches)),
	}
	for i, p := range patches {
		for _, id := range p {
			if id != Sentinel && (id < 0 || id >= len(nodes)) {
				return nil, fmt.Errorf("topology: patch %d refers to node %d of %d: %w", i, id, len(nodes), ErrMalformedTopology)
			}
		}
		u.patches[i] = realIDs(p)
		if len(u.patches[i]) == 0 {
			return nil, fmt.Errorf("topology: patch %d has no nodes: %w", i, ErrMalformedTopology)
		}
	}
	u.corners, u.cells, u.cellNodes = Dual(u.nodes, u.patches)
	return u, nil
}

// Count returns the number of elements at the given location.
func (u *Unstructured) Count(at Location) int {
	switch at {
	case Node:
		return len(u.nodes)
	case Corner:
		return len(u.corners)
	case Patch:
		return len(u.patches)
	case Cell:
		return len(u.cells)
	}
	return 0
}

// XYOf returns a copy of the coordinates at the given location. Patch
// coordinates are patch centroids; cell coordinates are the coordinates
// of the node each cell surrounds.
func (u *Unstructured) XYOf(at Location) []geom.Point {
	switch at {
	case Node:
		return append([]geom.Point(nil), u.nodes...)
	case Corner, Patch:
		return append([]geom.Point(nil), u.corners...)
	case Cell:
		o := make([]geom.Point, len(u.cellNodes))
		for i, n := range u.cellNodes {
			o[i] = u.nodes[n]
		}
		return o
	}
	return nil
}

// ChildCountAt returns the number of points of each patch or cell.
func (u *Unstructured) ChildCountAt(at Location) []int {
	var rows [][]int
	switch at {
	case Patch:
		rows = u.patches
	case Cell:
		rows = u.cells
	default:
		return nil
	}
	o := make([]int, len(rows))
	for i, r := range rows {
		o[i] = len(r)
	}
	return o
}

// EntitiesAt returns the padded node-at-patch or corner-at-cell table.
// Other location pairs return nil.
func (u *Unstructured) EntitiesAt(child, parent Location) [][]int {
	switch {
	case child == Node && parent == Patch:
		return pad(u.patches)
	case child == Corner && parent == Cell:
		return pad(u.cells)
	}
	return nil
}

// NodeAtCell returns the node that each cell surrounds.
func (u *Unstructured) NodeAtCell() []int { return append([]int(nil), u.cellNodes...) }
