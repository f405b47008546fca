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

/*Package hilbert provides a quasi-rectangular mesh of S2 cells, ordered
along the Hilbert curve, as a topology provider.*/
package hilbert

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ctessum/geom"
	"github.com/golang/geo/s2"
	"github.com/spatialmodel/inmap/regrid/topology"
)

// EarthRadius is the radius of the Earth at the equator.
const EarthRadius = 6.3781e6 // meters

// Make sure our mesh fulfills the interface.
var _ topology.Provider = &Mesh2D{}

// Mesh2D represents a 2D quasi-rectangular mesh. Each S2 cell is a patch
// and the cell vertices are the nodes, with coordinates in degrees
// longitude (x) and latitude (y).
type Mesh2D struct {
	*topology.Unstructured

	cells         []s2.CellID
	boundaryCells []s2.CellID
}

// RectBounds returns a latitude-longitude rectangle, in degrees, that can
// be passed to NewMesh2D.
func RectBounds(lngLo, latLo, lngHi, latHi float64) s2.Rect {
	r := s2.RectFromLatLng(s2.LatLngFromDegrees(latLo, lngLo))
	return r.AddPoint(s2.LatLngFromDegrees(latHi, lngHi))
}

// NewMesh2D returns a new 2D mesh at the specified resolution level,
// approximately covering the region b.
// Information regarding resolution levels is available at
// https://s2geometry.io/resources/s2cell_statistics.html.
func NewMesh2D(b s2.Region, level int) (*Mesh2D, error) {
	if level < 0 || level > s2.MaxLevel {
		return nil, fmt.Errorf("hilbert: level %d out of range [0, %d]", level, s2.MaxLevel)
	}
	rc := &s2.RegionCoverer{
		MinLevel: level,
		MaxLevel: level,
		MaxCells: 1 << 20,
	}
	m := &Mesh2D{
		cells: rc.Covering(b),
	}
	if err := m.build(); err != nil {
		return nil, err
	}
	return m, nil
}

// build creates the nodes, patches and boundary index.
func (m *Mesh2D) build() error {
	// Add cells to index for lookup.
	index := make(map[s2.CellID]int)
	for i, c := range m.cells {
		index[c] = i
	}
	m.boundaryCells = nil
	seen := make(map[s2.CellID]bool)

	nodeIndex := make(map[vertexKey]int)
	var nodes []geom.Point
	patches := make([][]int, len(m.cells))
	for i, c := range m.cells {
		for _, nbc := range c.EdgeNeighbors() {
			// If the neighbor is not in the index, it is a boundary condition.
			if _, ok := index[nbc]; !ok && !seen[nbc] {
				seen[nbc] = true
				m.boundaryCells = append(m.boundaryCells, nbc)
			}
		}
		c2 := s2.CellFromCellID(c)
		ids := make([]int, 4)
		for k := 0; k < 4; k++ {
			ll := s2.LatLngFromPoint(c2.Vertex(k))
			p := geom.Point{X: ll.Lng.Degrees(), Y: ll.Lat.Degrees()}
			key := newVertexKey(p)
			j, ok := nodeIndex[key]
			if !ok {
				j = len(nodes)
				nodeIndex[key] = j
				nodes = append(nodes, p)
			}
			ids[k] = j
		}
		patches[i] = ids
	}
	u, err := topology.NewUnstructured(nodes, patches)
	if err != nil {
		return fmt.Errorf("hilbert: %w", err)
	}
	m.Unstructured = u
	return nil
}

// vertexKey rounds vertex coordinates so that vertices shared by
// neighboring cells map to the same node.
type vertexKey struct{ x, y int64 }

func newVertexKey(p geom.Point) vertexKey {
	const scale = 1e9
	return vertexKey{x: int64(math.Round(p.X * scale)), y: int64(math.Round(p.Y * scale))}
}

// Cells returns the number of cells in this mesh.
func (m *Mesh2D) Cells() int { return len(m.cells) }

// CellID returns the S2 id of the cell at index i.
func (m *Mesh2D) CellID(i int) s2.CellID { return m.cells[i] }

// BoundaryCells returns the cells that border the mesh but are not part of it.
func (m *Mesh2D) BoundaryCells() []s2.CellID { return m.boundaryCells }

// CellArea returns the area of cell i in square meters.
func (m *Mesh2D) CellArea(i int) float64 {
	return s2.CellFromCellID(m.cells[i]).ApproxArea() * EarthRadius * EarthRadius
}

// EdgeLength returns the length in meters of the great circle between
// nodes i and j.
func (m *Mesh2D) EdgeLength(i, j int) float64 {
	xy := m.XYOf(topology.Node)
	v0 := s2.LatLngFromDegrees(xy[i].Y, xy[i].X)
	v1 := s2.LatLngFromDegrees(xy[j].Y, xy[j].X)
	return v0.Distance(v1).Radians() * EarthRadius
}

// MarshalBinary serializes this mesh into a byte array.
func (m *Mesh2D) MarshalBinary() ([]byte, error) {
	b := bytes.NewBuffer(nil)
	if err := binary.Write(b, binary.LittleEndian, m.cells); err != nil {
		return nil, fmt.Errorf("hilbert: marshalling mesh: %w", err)
	}
	return b.Bytes(), nil
}

// UnmarshalBinary initializes this mesh from a byte array.
func (m *Mesh2D) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)
	m.cells = m.cells[:0]
	for {
		var v s2.CellID
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("hilbert: unmarshalling mesh: %w", err)
		}
		m.cells = append(m.cells, v)
	}
	return m.build()
}
