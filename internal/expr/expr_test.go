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

package expr

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		p    geom.Point
		want float64
	}{
		{expr: "x + y", p: geom.Point{X: 1, Y: 2}, want: 3},
		{expr: "2 * x - y / 4", p: geom.Point{X: 1.5, Y: 2}, want: 2.5},
		{expr: "sqrt(x*x + y*y)", p: geom.Point{X: 3, Y: 4}, want: 5},
		{expr: "pow(x, 3) + max(y, 10)", p: geom.Point{X: 2, Y: 1}, want: 18},
		{expr: "sin(pi * x)", p: geom.Point{X: 0.5}, want: 1},
		{expr: "x > 1 ? 1 : 0", p: geom.Point{X: 2}, want: 1},
		{expr: "7", want: 7},
	}
	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			e, err := Parse(test.expr)
			if err != nil {
				t.Fatal(err)
			}
			got, err := e.Eval(test.p)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-test.want) > 1e-12 {
				t.Errorf("%g != %g", got, test.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"x +", "z * 2", "(x"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("%q: expected an error", s)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	for _, s := range []string{"sqrt(x, y)", "'abc'"} {
		e, err := Parse(s)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.Eval(geom.Point{X: 2}); err == nil {
			t.Errorf("%q: expected an error", s)
		}
	}
}

func TestField(t *testing.T) {
	e, err := Parse("x * y")
	if err != nil {
		t.Fatal(err)
	}
	f, err := e.Field([]geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}})
	if err != nil {
		t.Fatal(err)
	}
	if f[0] != 2 || f[1] != 12 {
		t.Errorf("field: %v", f)
	}
}
