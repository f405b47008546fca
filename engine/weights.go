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

package engine

import (
	"fmt"
	"sort"
)

// entry is a single weight in a row of the weight matrix.
type entry struct {
	col int
	w   float64
}

// row holds the weights of one destination point. An empty row is unmapped.
type row []entry

// scaled appends the entries of r multiplied by f to o.
func (r row) scaled(f float64, o row) row {
	for _, e := range r {
		o = append(o, entry{col: e.col, w: e.w * f})
	}
	return o
}

// Weights is a sparse destination × source weight matrix in compressed
// row storage. Regrid computes dst = W·src.
type Weights struct {
	rows, cols int
	rowPtr     []int
	col        []int
	val        []float64
}

var _ Operator = &Weights{}

// newWeights compresses rows into a Weights matrix, merging duplicate
// columns within each row.
func newWeights(rows []row, cols int) *Weights {
	w := &Weights{rows: len(rows), cols: cols, rowPtr: make([]int, len(rows)+1)}
	for i, r := range rows {
		sort.Slice(r, func(a, b int) bool { return r[a].col < r[b].col })
		for k, e := range r {
			if k > 0 && r[k-1].col == e.col {
				w.val[len(w.val)-1] += e.w
				continue
			}
			w.col = append(w.col, e.col)
			w.val = append(w.val, e.w)
		}
		w.rowPtr[i+1] = len(w.col)
	}
	return w
}

// Dims returns the number of destination and source points.
func (w *Weights) Dims() (rows, cols int) { return w.rows, w.cols }

// NNZ returns the number of stored weights.
func (w *Weights) NNZ() int { return len(w.val) }

// Row returns the source ids and weights of destination point i.
func (w *Weights) Row(i int) (cols []int, vals []float64) {
	lo, hi := w.rowPtr[i], w.rowPtr[i+1]
	return w.col[lo:hi:hi], w.val[lo:hi:hi]
}

// Unmapped returns the destination points that have no weights.
func (w *Weights) Unmapped() []int {
	var o []int
	for i := 0; i < w.rows; i++ {
		if w.rowPtr[i] == w.rowPtr[i+1] {
			o = append(o, i)
		}
	}
	return o
}

// Regrid overwrites dst.Data with W·src.Data. Unmapped points are set to zero.
func (w *Weights) Regrid(src, dst *Field) error {
	if len(src.Data) != w.cols {
		return fmt.Errorf("engine: source field has %d values, weights expect %d", len(src.Data), w.cols)
	}
	if len(dst.Data) != w.rows {
		return fmt.Errorf("engine: destination field has %d values, weights expect %d", len(dst.Data), w.rows)
	}
	for i := 0; i < w.rows; i++ {
		var v float64
		for k := w.rowPtr[i]; k < w.rowPtr[i+1]; k++ {
			v += w.val[k] * src.Data[w.col[k]]
		}
		dst.Data[i] = v
	}
	return nil
}
