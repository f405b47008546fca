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

/*Package topology describes the spatial discretizations that fields
live on, independently of how they are handed to a regridding engine.*/
package topology

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
)

// ErrInvalidLocation is returned when a location name or value is not one
// of node, corner, patch or cell.
var ErrInvalidLocation = errors.New("invalid location")

// ErrMalformedTopology is returned when coordinates or connectivity are
// inconsistent, for example a polygon that refers to a missing node.
var ErrMalformedTopology = errors.New("malformed topology")

// Sentinel marks padding in a ragged connectivity table.
const Sentinel = -1

// Location is the place on a discretization where field values are attached.
type Location int

const (
	// Node values sit on the grid nodes.
	Node Location = iota
	// Corner values sit on the corners, the vertices of the cells.
	Corner
	// Patch values sit on the polygons built from nodes.
	Patch
	// Cell values sit on the polygons built from corners.
	Cell
)

var locationNames = [...]string{
	Node:   "node",
	Corner: "corner",
	Patch:  "patch",
	Cell:   "cell",
}

var locationsByName = map[string]Location{
	"node":   Node,
	"corner": Corner,
	"patch":  Patch,
	"cell":   Cell,
}

// ParseLocation returns the location with the given canonical name.
func ParseLocation(name string) (Location, error) {
	l, ok := locationsByName[name]
	if !ok {
		return 0, fmt.Errorf("topology: unknown location (%s): %w", name, ErrInvalidLocation)
	}
	return l, nil
}

// Valid reports whether l is one of the defined locations.
func (l Location) Valid() bool { return l >= Node && l <= Cell }

func (l Location) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Location(%d)", int(l))
	}
	return locationNames[l]
}

// IsPoint reports whether values at l are point values (node or corner)
// rather than area values (patch or cell).
func (l Location) IsPoint() bool { return l == Node || l == Corner }

// Points returns the point location that l is built from:
// Node for node and patch, Corner for corner and cell.
func (l Location) Points() Location {
	if l == Corner || l == Cell {
		return Corner
	}
	return Node
}

// Polygons returns the polygon location that goes with l:
// Patch for node and patch, Cell for corner and cell.
func (l Location) Polygons() Location {
	if l == Corner || l == Cell {
		return Cell
	}
	return Patch
}

// Provider supplies the coordinates and connectivity of a discretization.
type Provider interface {
	// Count returns the number of elements at the given location.
	Count(at Location) int

	// XYOf returns the coordinates of the elements at the given location.
	// For patches and cells these are the polygon centroids.
	XYOf(at Location) []geom.Point

	// ChildCountAt returns the number of points attached to each polygon
	// at the given polygon location.
	ChildCountAt(at Location) []int

	// EntitiesAt returns, for each parent polygon, the ids of its child
	// points in counter-clockwise order. Rows are padded with Sentinel.
	EntitiesAt(child, parent Location) [][]int
}

// Structured is implemented by providers whose nodes lie on a
// logically rectangular lattice.
type Structured interface {
	Provider

	// Shape returns the number of node rows and columns.
	Shape() (rows, cols int)
}

// Dims returns the lattice dimensions of s at the given point location.
// Corner dimensions are one less than node dimensions in each direction.
func Dims(s Structured, at Location) (rows, cols int) {
	rows, cols = s.Shape()
	if at.Points() == Corner {
		return rows - 1, cols - 1
	}
	return rows, cols
}
