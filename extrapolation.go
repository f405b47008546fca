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

package regrid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spatialmodel/inmap/regrid/engine"
)

// Extrapolation fills destination points that the regridding method
// leaves unmapped. It is implemented by ExtrapolateNone,
// ExtrapolateNearest, ExtrapolateInverseDistance and ExtrapolateCreep.
type Extrapolation interface {
	// Name returns the name the extrapolation is registered under.
	Name() string

	apply(p *engine.Params)
}

// ExtrapolateNone leaves unmapped points unmapped.
type ExtrapolateNone struct{}

// Name implements Extrapolation.
func (ExtrapolateNone) Name() string { return "none" }

func (ExtrapolateNone) apply(p *engine.Params) { p.ExtrapMethod = engine.ExtrapNone }

// ExtrapolateNearest gives unmapped points the value of the nearest
// source point.
type ExtrapolateNearest struct{}

// Name implements Extrapolation.
func (ExtrapolateNearest) Name() string { return "nearest" }

func (ExtrapolateNearest) apply(p *engine.Params) { p.ExtrapMethod = engine.ExtrapNearestSTOD }

// ExtrapolateInverseDistance gives unmapped points the inverse distance
// weighted average of the nearest source points. Nil fields use the
// engine defaults.
type ExtrapolateInverseDistance struct {
	// NumSourcePoints is the number of source points averaged.
	NumSourcePoints *int
	// DistanceExponent is the power distances are raised to.
	DistanceExponent *float64
}

// Name implements Extrapolation.
func (ExtrapolateInverseDistance) Name() string { return "inverse" }

func (e ExtrapolateInverseDistance) apply(p *engine.Params) {
	p.ExtrapMethod = engine.ExtrapNearestIDAvg
	p.ExtrapNumSrcPnts = e.NumSourcePoints
	p.ExtrapDistExponent = e.DistanceExponent
}

// ExtrapolateCreep fills unmapped points from their mapped neighbors,
// one ring of points per level. A nil NumLevels uses the engine default.
type ExtrapolateCreep struct {
	NumLevels *int
}

// Name implements Extrapolation.
func (ExtrapolateCreep) Name() string { return "creep" }

func (e ExtrapolateCreep) apply(p *engine.Params) {
	p.ExtrapMethod = engine.ExtrapCreepFill
	p.ExtrapNumLevels = e.NumLevels
}

var extrapolations = map[string]Extrapolation{
	"none":    ExtrapolateNone{},
	"nearest": ExtrapolateNearest{},
	"inverse": ExtrapolateInverseDistance{},
	"creep":   ExtrapolateCreep{},
}

// ExtrapolationNames returns the names accepted by FindExtrapolation, sorted.
func ExtrapolationNames() []string {
	names := make([]string, 0, len(extrapolations))
	for name := range extrapolations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownExtrapolationMethodError is returned by FindExtrapolation for an
// unrecognized name.
type UnknownExtrapolationMethodError struct {
	Name  string
	Valid []string
}

func (e *UnknownExtrapolationMethodError) Error() string {
	return fmt.Sprintf("regrid: %v %q (valid methods are %s)",
		ErrUnknownExtrapolationMethod, e.Name, strings.Join(e.Valid, ", "))
}

// Is reports whether target is ErrUnknownExtrapolationMethod.
func (e *UnknownExtrapolationMethodError) Is(target error) bool {
	return target == ErrUnknownExtrapolationMethod
}

// FindExtrapolation returns the extrapolation with the given name, with
// default parameters.
func FindExtrapolation(name string) (Extrapolation, error) {
	if e, ok := extrapolations[name]; ok {
		return e, nil
	}
	return nil, &UnknownExtrapolationMethodError{Name: name, Valid: ExtrapolationNames()}
}
