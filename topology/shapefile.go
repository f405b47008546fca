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
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// ReadShapefile reads the polygons in a shapefile as the patches of an
// unstructured mesh. Vertices that have identical coordinates are merged
// into a single node. Holes are ignored and multipolygons contribute one
// patch per outer ring.
func ReadShapefile(path string) (*Unstructured, error) {
	return ReadShapefileSR(path, nil)
}

// ReadShapefileSR is like ReadShapefile, but reprojects the polygons from
// the spatial reference in the shapefile's .prj file into sr. A nil sr
// leaves the coordinates unchanged.
func ReadShapefileSR(path string, sr *proj.SR) (*Unstructured, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("topology: opening shapefile: %v", err)
	}
	defer d.Close()

	var trans proj.Transformer
	if sr != nil {
		src, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("topology: shapefile %s spatial reference: %v", path, err)
		}
		if trans, err = src.NewTransform(sr); err != nil {
			return nil, fmt.Errorf("topology: shapefile %s: %v", path, err)
		}
	}

	index := make(map[geom.Point]int)
	var nodes []geom.Point
	var patches [][]int
	addRing := func(ring geom.Path) {
		if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		if len(ring) < 3 {
			return
		}
		ids := make([]int, 0, len(ring))
		for _, p := range ring {
			i, ok := index[p]
			if !ok {
				i = len(nodes)
				index[p] = i
				nodes = append(nodes, p)
			}
			ids = append(ids, i)
		}
		if signedArea(nodes, ids) < 0 {
			for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
		patches = append(patches, ids)
	}

	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("topology: shapefile %s: %v", path, err)
			}
		}
		switch t := g.(type) {
		case geom.Polygon:
			if len(t) > 0 {
				addRing(t[0])
			}
		case geom.MultiPolygon:
			for _, p := range t {
				if len(p) > 0 {
					addRing(p[0])
				}
			}
		default:
			return nil, fmt.Errorf("topology: shapefile %s: unsupported geometry type %T", path, g)
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("topology: reading shapefile %s: %v", path, err)
	}
	return NewUnstructured(nodes, patches)
}

// WriteShapefile writes the elements of p at the given location to a
// shapefile. Patches and cells are written as polygons, nodes and
// corners as points. If values is not nil it must have one entry per
// element and is written to a "value" field.
func WriteShapefile(path string, p Provider, at Location, values []float64) error {
	if !at.Valid() {
		return fmt.Errorf("topology: writing shapefile: %w", ErrInvalidLocation)
	}
	n := p.Count(at)
	if values != nil && len(values) != n {
		return fmt.Errorf("topology: writing shapefile: got %d values for %d elements at %s", len(values), n, at)
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}

	fields := []goshp.Field{goshp.NumberField("id", 10)}
	if values != nil {
		fields = append(fields, goshp.FloatField("value", 24, 10))
	}
	shapeType := goshp.POINT
	if !at.IsPoint() {
		shapeType = goshp.POLYGON
	}
	e, err := shp.NewEncoderFromFields(base+".shp", shapeType, fields...)
	if err != nil {
		return fmt.Errorf("topology: creating shapefile: %v", err)
	}

	xy := p.XYOf(at.Points())
	var table [][]int
	if !at.IsPoint() {
		table = p.EntitiesAt(at.Points(), at)
	}
	for i := 0; i < n; i++ {
		var g geom.Geom
		if at.IsPoint() {
			g = xy[i]
		} else {
			ring := make(geom.Path, 0, len(table[i])+1)
			for _, id := range table[i] {
				if id != Sentinel {
					ring = append(ring, xy[id])
				}
			}
			ring = append(ring, ring[0])
			g = geom.Polygon{ring}
		}
		data := []interface{}{i}
		if values != nil {
			data = append(data, values[i])
		}
		if err := e.EncodeFields(g, data...); err != nil {
			e.Close()
			return fmt.Errorf("topology: writing shapefile: %v", err)
		}
	}
	e.Close()
	return nil
}

func signedArea(nodes []geom.Point, ring []int) float64 {
	var a float64
	for i, id := range ring {
		p, q := nodes[id], nodes[ring[(i+1)%len(ring)]]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}
