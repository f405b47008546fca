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
	"strings"

	"github.com/spatialmodel/inmap/regrid/engine"
	"github.com/spatialmodel/inmap/regrid/topology"
)

// MethodKind is the family of a regridding method.
type MethodKind int

const (
	// Bilinear interpolates within the source polygon containing each
	// destination point.
	Bilinear MethodKind = iota
	// Patch fits a smooth local patch to the source values around each
	// destination point.
	Patch
	// NearestNeighbor copies values between nearest points.
	NearestNeighbor
	// Conserve remaps area-weighted polygon values, conserving the
	// integral of the field.
	Conserve
)

func (k MethodKind) String() string {
	switch k {
	case Bilinear:
		return "bilinear"
	case Patch:
		return "patch"
	case NearestNeighbor:
		return "nearest"
	case Conserve:
		return "conserve"
	}
	return fmt.Sprintf("MethodKind(%d)", int(k))
}

// Method is a regridding method with its parameters.
type Method struct {
	Kind MethodKind

	// Order is the conservative remapping order, 1 or 2. It is only used
	// by Conserve.
	Order int

	// DToS selects destination-to-source nearest neighbor matching, where
	// every destination point takes the value of its nearest source point.
	// Otherwise each source point is sent to its nearest destination
	// point. It is only used by NearestNeighbor.
	DToS bool
}

func (m Method) String() string {
	switch m.Kind {
	case NearestNeighbor:
		if m.DToS {
			return "nearest(dtos)"
		}
		return "nearest(stod)"
	case Conserve:
		return fmt.Sprintf("conserve(order=%d)", m.Order)
	}
	return m.Kind.String()
}

// ParseMethod returns the method with the given name: "bilinear",
// "patch", "nearest_stod", "nearest_dtos", "conserve" or "conserve2".
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "bilinear":
		return Method{Kind: Bilinear}, nil
	case "patch":
		return Method{Kind: Patch}, nil
	case "nearest_stod", "nearest":
		return Method{Kind: NearestNeighbor}, nil
	case "nearest_dtos":
		return Method{Kind: NearestNeighbor, DToS: true}, nil
	case "conserve", "conserve1":
		return Method{Kind: Conserve, Order: 1}, nil
	case "conserve2":
		return Method{Kind: Conserve, Order: 2}, nil
	}
	return Method{}, fmt.Errorf("regrid: %w %q", ErrUnknownMethod, name)
}

func (m Method) engineMethod() (engine.RegridMethod, error) {
	switch m.Kind {
	case Bilinear:
		return engine.Bilinear, nil
	case Patch:
		return engine.Patch, nil
	case NearestNeighbor:
		if m.DToS {
			return engine.NearestDTOS, nil
		}
		return engine.NearestSTOD, nil
	case Conserve:
		switch m.Order {
		case 1:
			return engine.Conserve, nil
		case 2:
			return engine.Conserve2nd, nil
		}
		return 0, fmt.Errorf("regrid: %w: %d (must be 1 or 2)", ErrInvalidOrder, m.Order)
	}
	return 0, fmt.Errorf("regrid: %w %s", ErrUnknownMethod, m.Kind)
}

// UnmappedAction is the policy for destination points that no source
// value maps to.
type UnmappedAction int

const (
	// UnmappedIgnore leaves unmapped destination values at zero.
	UnmappedIgnore UnmappedAction = iota
	// UnmappedRaise makes construction fail if any destination point is
	// unmapped.
	UnmappedRaise
)

var unmappedActions = map[string]UnmappedAction{
	"ignore": UnmappedIgnore,
	"raise":  UnmappedRaise,
}

func (u UnmappedAction) String() string {
	for name, a := range unmappedActions {
		if a == u {
			return name
		}
	}
	return fmt.Sprintf("UnmappedAction(%d)", int(u))
}

// FindUnmappedAction returns the unmapped action with the given name.
// The empty name and "none" mean UnmappedIgnore.
func FindUnmappedAction(name string) (UnmappedAction, bool) {
	if name == "" || name == "none" {
		return UnmappedIgnore, true
	}
	a, ok := unmappedActions[name]
	return a, ok
}

func (u UnmappedAction) engineAction() engine.UnmappedAction {
	if u == UnmappedRaise {
		return engine.UnmappedError
	}
	return engine.UnmappedIgnore
}

// Config is a validated regridder configuration.
type Config struct {
	Method        Method
	Unmapped      UnmappedAction
	Extrapolation Extrapolation
	SrcAt, DstAt  topology.Location
}

// Configure validates a combination of method, locations and policies.
// A conservative method must have order 1 or 2 and can only be used
// between patch and cell locations.
func Configure(m Method, srcAt, dstAt topology.Location, unmapped UnmappedAction, e Extrapolation) (Config, error) {
	if _, err := m.engineMethod(); err != nil {
		return Config{}, err
	}
	for _, at := range []topology.Location{srcAt, dstAt} {
		if !at.Valid() {
			return Config{}, fmt.Errorf("regrid: %w: %s", ErrInvalidLocation, at)
		}
	}
	if m.Kind == Conserve {
		for _, at := range []topology.Location{srcAt, dstAt} {
			if at.IsPoint() {
				return Config{}, fmt.Errorf("regrid: %w: conservative regridding requires patch or cell locations, got %s", ErrIncompatibleLocation, at)
			}
		}
	}
	if unmapped != UnmappedIgnore && unmapped != UnmappedRaise {
		return Config{}, fmt.Errorf("regrid: %w: %d", ErrUnknownUnmappedAction, int(unmapped))
	}
	if e == nil {
		e = ExtrapolateNone{}
	}
	return Config{
		Method:        m,
		Unmapped:      unmapped,
		Extrapolation: e,
		SrcAt:         srcAt,
		DstAt:         dstAt,
	}, nil
}

// Params returns the flat engine parameter record for c.
func (c Config) Params() engine.Params {
	m, _ := c.Method.engineMethod()
	p := engine.Params{
		RegridMethod:   m,
		UnmappedAction: c.Unmapped.engineAction(),
		ExtrapMethod:   engine.ExtrapNone,
	}
	if c.Extrapolation != nil {
		c.Extrapolation.apply(&p)
	}
	return p
}
