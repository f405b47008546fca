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

/*Package regrid transfers fields between spatial discretizations. A
Regridder is configured once with a method, the locations that values
are attached to on each side, an unmapped-point policy and an
extrapolation policy, and can then be applied to any number of source
fields of the right size.*/
package regrid

import (
	"errors"

	"github.com/spatialmodel/inmap/regrid/mesh"
	"github.com/spatialmodel/inmap/regrid/topology"
)

var (
	// ErrInvalidLocation is returned for a location name that is not one
	// of node, corner, patch or cell.
	ErrInvalidLocation = topology.ErrInvalidLocation

	// ErrMalformedTopology is returned when a topology provider supplies
	// inconsistent coordinates or connectivity.
	ErrMalformedTopology = mesh.ErrMalformedTopology

	// ErrInvalidOrder is returned for a conservative order other than 1 or 2.
	ErrInvalidOrder = errors.New("invalid conservative order")

	// ErrIncompatibleLocation is returned when a method cannot be used
	// with the requested locations.
	ErrIncompatibleLocation = errors.New("incompatible location")

	// ErrUnknownExtrapolationMethod is matched by *UnknownExtrapolationMethodError.
	ErrUnknownExtrapolationMethod = errors.New("unknown extrapolation method")

	// ErrUnknownUnmappedAction is returned for an unrecognized unmapped
	// policy name.
	ErrUnknownUnmappedAction = errors.New("unknown unmapped action")

	// ErrUnknownMethod is returned for an unrecognized method kind.
	ErrUnknownMethod = errors.New("unknown regrid method")

	// ErrShapeMismatch is returned when the values passed to Regrid do not
	// match the size of the source field.
	ErrShapeMismatch = errors.New("shape mismatch")
)
