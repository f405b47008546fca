/*
Copyright © 2020 the InMAP authors.
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

// Package plot draws discretizations and the fields on them.
package plot

import (
	"fmt"
	"image/color"

	"github.com/spatialmodel/inmap/regrid/mesh"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// XYs implements the gonum.org/v1/plot/plotter.XYer interface.
type XYs []XY

// XY is an x and y value.
type XY struct{ X, Y float64 }

// Len returns the number of X,Y pairs.
func (xys XYs) Len() int {
	return len(xys)
}

// XY return the x and y values at index i, where i < Len()
func (xys XYs) XY(i int) (float64, float64) {
	return xys[i].X, xys[i].Y
}

// Outline returns the closed outline of element i of d.
func Outline(d mesh.Discretization, i int) XYs {
	ring := mesh.ElementPolygon(d, i)[0]
	o := make(XYs, len(ring))
	for k, p := range ring {
		o[k] = XY{X: p.X, Y: p.Y}
	}
	return o
}

// Points returns the nodes of d.
func Points(d mesh.Discretization) XYs {
	o := make(XYs, d.NumNodes())
	for i := range o {
		p := d.Node(i)
		o[i] = XY{X: p.X, Y: p.Y}
	}
	return o
}

// Centroids returns the element centroids of d.
func Centroids(d mesh.Discretization) XYs {
	o := make(XYs, d.NumElements())
	for i := range o {
		p := d.ElementCentroid(i)
		o[i] = XY{X: p.X, Y: p.Y}
	}
	return o
}

// Discretization plots the element outlines of d. If values is not nil it
// must hold one value per node or one per element of d; the values are
// drawn as colored points at the nodes or element centroids.
func Discretization(d mesh.Discretization, values []float64, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	for i := 0; i < d.NumElements(); i++ {
		l, err := plotter.NewLine(Outline(d, i))
		if err != nil {
			return nil, fmt.Errorf("plot: element %d: %w", i, err)
		}
		l.Color = color.Gray{Y: 128}
		l.Width = vg.Points(0.5)
		p.Add(l)
	}

	var pts XYs
	switch len(values) {
	case 0:
		pts = Points(d)
	case d.NumNodes():
		pts = Points(d)
	case d.NumElements():
		pts = Centroids(d)
	default:
		return nil, fmt.Errorf("plot: %d values do not match %d nodes or %d elements",
			len(values), d.NumNodes(), d.NumElements())
	}
	if len(pts) == 0 {
		return p, nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	if len(values) > 0 {
		cm := moreland.SmoothBlueRed()
		lo, hi := floats.Min(values), floats.Max(values)
		if hi <= lo {
			hi = lo + 1
		}
		cm.SetMin(lo)
		cm.SetMax(hi)
		s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			c, err := cm.At(values[i])
			if err != nil {
				c = color.Black
			}
			return draw.GlyphStyle{Color: c, Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
		}
	}
	p.Add(s)
	return p, nil
}

// Save writes p to path; the format is chosen from the file extension.
func Save(p *plot.Plot, path string) error {
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
