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

/*Package engine defines the interface to the interpolation engine that
computes regridding weights and applies them to fields, and provides
Planar, a reference engine for planar Cartesian coordinates.*/
package engine

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/inmap/regrid/mesh"
)

// ErrUnmapped is returned when destination points remain unmapped and the
// unmapped action is UnmappedError.
var ErrUnmapped = errors.New("unmapped destination points")

// RegridMethod selects how weights are computed.
type RegridMethod int

const (
	// Bilinear interpolates linearly within the source element that
	// contains each destination point.
	Bilinear RegridMethod = iota
	// Patch fits a local linear patch to the source points around each
	// destination point.
	Patch
	// NearestSTOD maps each source point to its closest destination point.
	NearestSTOD
	// NearestDTOS maps each destination point to its closest source point.
	NearestDTOS
	// Conserve is first-order conservative remapping.
	Conserve
	// Conserve2nd is second-order conservative remapping.
	Conserve2nd
)

func (m RegridMethod) String() string {
	switch m {
	case Bilinear:
		return "BILINEAR"
	case Patch:
		return "PATCH"
	case NearestSTOD:
		return "NEAREST_STOD"
	case NearestDTOS:
		return "NEAREST_DTOS"
	case Conserve:
		return "CONSERVE"
	case Conserve2nd:
		return "CONSERVE_2ND"
	}
	return fmt.Sprintf("RegridMethod(%d)", int(m))
}

// IsConservative reports whether m is one of the conservative methods.
func (m RegridMethod) IsConservative() bool { return m == Conserve || m == Conserve2nd }

// UnmappedAction selects what happens to destination points that no
// source point maps to.
type UnmappedAction int

const (
	// UnmappedError fails weight generation.
	UnmappedError UnmappedAction = iota
	// UnmappedIgnore leaves the points at zero.
	UnmappedIgnore
)

func (u UnmappedAction) String() string {
	switch u {
	case UnmappedError:
		return "ERROR"
	case UnmappedIgnore:
		return "IGNORE"
	}
	return fmt.Sprintf("UnmappedAction(%d)", int(u))
}

// ExtrapMethod selects how unmapped destination points are filled.
type ExtrapMethod int

const (
	// ExtrapNone leaves unmapped points unmapped.
	ExtrapNone ExtrapMethod = iota
	// ExtrapNearestSTOD takes the value of the nearest source point.
	ExtrapNearestSTOD
	// ExtrapNearestIDAvg takes the inverse-distance weighted average of
	// the nearest source points.
	ExtrapNearestIDAvg
	// ExtrapCreepFill repeatedly fills unmapped points with the average
	// of their mapped neighbors.
	ExtrapCreepFill
)

func (e ExtrapMethod) String() string {
	switch e {
	case ExtrapNone:
		return "NONE"
	case ExtrapNearestSTOD:
		return "NEAREST_STOD"
	case ExtrapNearestIDAvg:
		return "NEAREST_IDAVG"
	case ExtrapCreepFill:
		return "CREEP_FILL"
	}
	return fmt.Sprintf("ExtrapMethod(%d)", int(e))
}

// Default extrapolation parameters used when Params leaves them unset.
const (
	DefaultExtrapNumSrcPnts   = 8
	DefaultExtrapDistExponent = 2.0
	DefaultExtrapNumLevels    = 1
)

// Params is the flat parameter record for weight generation. Nil
// extrapolation parameters mean the engine default.
type Params struct {
	RegridMethod       RegridMethod
	UnmappedAction     UnmappedAction
	ExtrapMethod       ExtrapMethod
	ExtrapNumSrcPnts   *int
	ExtrapDistExponent *float64
	ExtrapNumLevels    *int
}

// MeshLoc is where field values sit on a discretization.
type MeshLoc int

const (
	// Node fields have one value per discretization node.
	Node MeshLoc = iota
	// Element fields have one value per discretization element.
	Element
)

func (l MeshLoc) String() string {
	if l == Element {
		return "ELEMENT"
	}
	return "NODE"
}

// Field holds values on a discretization.
type Field struct {
	Discretization mesh.Discretization
	Loc            MeshLoc
	Data           []float64
}

// NewField returns a zero-valued field on d at loc.
func NewField(d mesh.Discretization, loc MeshLoc) *Field {
	n := d.NumNodes()
	if loc == Element {
		n = d.NumElements()
	}
	return &Field{Discretization: d, Loc: loc, Data: make([]float64, n)}
}

// Size returns the number of values in the field.
func (f *Field) Size() int { return len(f.Data) }

// Points returns the locations of the field values: the nodes for node
// fields and the element centroids for element fields.
func (f *Field) Points() []geom.Point {
	o := make([]geom.Point, f.Size())
	for i := range o {
		if f.Loc == Element {
			o[i] = f.Discretization.ElementCentroid(i)
		} else {
			o[i] = f.Discretization.Node(i)
		}
	}
	return o
}

// Engine creates regridding operators.
type Engine interface {
	// NewRegrid computes the operator that maps values of src onto dst.
	NewRegrid(src, dst *Field, p Params) (Operator, error)
}

// Operator applies precomputed regridding weights.
type Operator interface {
	// Regrid overwrites the data of dst with the regridded data of src.
	Regrid(src, dst *Field) error
}
