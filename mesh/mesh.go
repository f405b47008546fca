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

/*Package mesh builds the normalized discretizations (structured grids,
unstructured meshes and location streams) that a regridding engine
works on, from the description given by a topology provider.*/
package mesh

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/inmap/regrid/topology"
)

// ErrMalformedTopology is returned when a topology provider supplies
// inconsistent coordinates or connectivity.
var ErrMalformedTopology = topology.ErrMalformedTopology

// Kind identifies the representation of a Discretization.
type Kind int

const (
	// KindGrid is a logically rectangular grid with implicit connectivity.
	KindGrid Kind = iota
	// KindMesh is an unstructured mesh with explicit polygon connectivity.
	KindMesh
	// KindLocStream is a set of points without connectivity.
	KindLocStream
)

func (k Kind) String() string {
	switch k {
	case KindGrid:
		return "grid"
	case KindMesh:
		return "mesh"
	case KindLocStream:
		return "locstream"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Discretization describes a set of points and, optionally, the polygons
// (elements) that connect them. Node and element ids are dense and start
// at zero. Discretizations are not modified after they are built.
type Discretization interface {
	// Kind returns the representation of the discretization.
	Kind() Kind

	// NumNodes is the number of points.
	NumNodes() int

	// Node returns the coordinates of point i (where i < NumNodes()).
	Node(i int) geom.Point

	// NumElements is the number of polygons.
	NumElements() int

	// ElementNodes returns the ids of the points of polygon i in
	// counter-clockwise order. The returned slice must not be modified.
	ElementNodes(i int) []int

	// ElementCentroid returns the centroid of polygon i.
	ElementCentroid(i int) geom.Point
}

// Make sure the discretizations fulfill the interface.
var (
	_ Discretization = &Grid{}
	_ Discretization = &Mesh{}
	_ Discretization = &LocStream{}
)

// Build creates a discretization of p for values at the given location.
// If p is structured, forceMesh is false and at is a point location, the
// result is a Grid. Otherwise it is a Mesh of the points at at.Points()
// connected by the polygons at at.Polygons().
func Build(p topology.Provider, at topology.Location, forceMesh bool) (Discretization, error) {
	if !at.Valid() {
		return nil, fmt.Errorf("mesh: building discretization at %s: %w", at, topology.ErrInvalidLocation)
	}
	if s, ok := p.(topology.Structured); ok && !forceMesh && at.IsPoint() {
		return NewGrid(s, at)
	}
	return NewMesh(p, at)
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("mesh: %s: %w", fmt.Sprintf(format, args...), ErrMalformedTopology)
}

// centroid returns the centroid of element i of d.
func centroid(d Discretization, i int) geom.Point {
	ids := d.ElementNodes(i)
	nodes := make([]geom.Point, len(ids))
	ring := make([]int, len(ids))
	for j, id := range ids {
		nodes[j] = d.Node(id)
		ring[j] = j
	}
	return topology.Centroid(nodes, ring)
}
