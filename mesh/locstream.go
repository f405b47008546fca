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

import "github.com/ctessum/geom"

// Keys of the coordinate items stored in a LocStream.
const (
	XOfPoint = "x_of_point"
	YOfPoint = "y_of_point"
	EngineX  = "ESMF:X"
	EngineY  = "ESMF:Y"
)

// LocStream is a list of scattered points without connectivity, used to
// extract field values at, or inject them from, arbitrary locations.
type LocStream struct {
	items map[string][]float64
}

// NewLocStream creates a location stream from the given coordinates.
func NewLocStream(xy []geom.Point) *LocStream {
	x := make([]float64, len(xy))
	y := make([]float64, len(xy))
	for i, p := range xy {
		x[i], y[i] = p.X, p.Y
	}
	return &LocStream{items: map[string][]float64{
		XOfPoint: x,
		YOfPoint: y,
		EngineX:  append([]float64(nil), x...),
		EngineY:  append([]float64(nil), y...),
	}}
}

// Item returns a copy of the named coordinate item.
func (s *LocStream) Item(key string) ([]float64, bool) {
	v, ok := s.items[key]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// Kind returns KindLocStream.
func (s *LocStream) Kind() Kind { return KindLocStream }

// NumNodes is the number of points.
func (s *LocStream) NumNodes() int { return len(s.items[EngineX]) }

// Node returns the coordinates of point i.
func (s *LocStream) Node(i int) geom.Point {
	return geom.Point{X: s.items[EngineX][i], Y: s.items[EngineY][i]}
}

// NumElements is always zero.
func (s *LocStream) NumElements() int { return 0 }

// ElementNodes always returns nil; a LocStream has no elements.
func (s *LocStream) ElementNodes(int) []int { return nil }

// ElementCentroid always returns the zero point; a LocStream has no
// elements, so callers should check NumElements first.
func (s *LocStream) ElementCentroid(int) geom.Point { return geom.Point{} }
