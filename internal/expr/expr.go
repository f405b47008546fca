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

// Package expr evaluates arithmetic expressions of the coordinates x and
// y, for generating fields on a discretization.
package expr

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom"
	"github.com/spf13/cast"
)

func unary(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expr: %s takes 1 argument, got %d", name, len(args))
		}
		x, err := cast.ToFloat64E(args[0])
		if err != nil {
			return nil, fmt.Errorf("expr: %s: %w", name, err)
		}
		return f(x), nil
	}
}

func binary(name string, f func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expr: %s takes 2 arguments, got %d", name, len(args))
		}
		x, err := cast.ToFloat64E(args[0])
		if err != nil {
			return nil, fmt.Errorf("expr: %s: %w", name, err)
		}
		y, err := cast.ToFloat64E(args[1])
		if err != nil {
			return nil, fmt.Errorf("expr: %s: %w", name, err)
		}
		return f(x, y), nil
	}
}

var functions = map[string]govaluate.ExpressionFunction{
	"sqrt":  unary("sqrt", math.Sqrt),
	"abs":   unary("abs", math.Abs),
	"exp":   unary("exp", math.Exp),
	"log":   unary("log", math.Log),
	"sin":   unary("sin", math.Sin),
	"cos":   unary("cos", math.Cos),
	"tan":   unary("tan", math.Tan),
	"floor": unary("floor", math.Floor),
	"pow":   binary("pow", math.Pow),
	"min":   binary("min", math.Min),
	"max":   binary("max", math.Max),
	"atan2": binary("atan2", math.Atan2),
}

// Expression is a parsed expression.
type Expression struct {
	e *govaluate.EvaluableExpression
}

// Parse parses s. Expressions may use the variables x and y, the constant
// pi and the functions sqrt, abs, exp, log, sin, cos, tan, floor, pow,
// min, max and atan2.
func Parse(s string) (*Expression, error) {
	e, err := govaluate.NewEvaluableExpressionWithFunctions(s, functions)
	if err != nil {
		return nil, fmt.Errorf("expr: parsing %q: %w", s, err)
	}
	for _, v := range e.Vars() {
		switch v {
		case "x", "y", "pi":
		default:
			return nil, fmt.Errorf("expr: %q: unknown variable %q", s, v)
		}
	}
	return &Expression{e: e}, nil
}

// Eval evaluates the expression at p.
func (e *Expression) Eval(p geom.Point) (float64, error) {
	r, err := e.e.Evaluate(map[string]interface{}{"x": p.X, "y": p.Y, "pi": math.Pi})
	if err != nil {
		return 0, fmt.Errorf("expr: %s: %w", e.e, err)
	}
	v, err := cast.ToFloat64E(r)
	if err != nil {
		return 0, fmt.Errorf("expr: %s: %w", e.e, err)
	}
	return v, nil
}

// Field evaluates the expression at each point.
func (e *Expression) Field(pts []geom.Point) ([]float64, error) {
	o := make([]float64, len(pts))
	for i, p := range pts {
		v, err := e.Eval(p)
		if err != nil {
			return nil, err
		}
		o[i] = v
	}
	return o, nil
}
