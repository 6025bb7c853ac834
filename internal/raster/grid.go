// Package raster holds the in-memory 2-D arrays the masking engine works on:
// float grids for physical quantities, boolean masks for classification layers
// and byte grids for interchange with raster tools.
//
// All arrays are row-major. Operations never modify their inputs; they return
// newly allocated arrays.
package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrShape = errors.New("raster: shape mismatch")

type Shape struct {
	Rows, Cols int
}

func (s Shape) Len() int { return s.Rows * s.Cols }

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

func checkShapes(shapes ...Shape) error {
	for _, s := range shapes[1:] {
		if s != shapes[0] {
			return fmt.Errorf("%w: %s vs %s", ErrShape, shapes[0], s)
		}
	}
	return nil
}

// Grid is a row-major float64 array.
type Grid struct {
	Rows, Cols int
	Data       []float64
}

func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// GridFrom wraps data without copying. The caller hands over ownership.
func GridFrom(rows, cols int, data []float64) (*Grid, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrShape, len(data), rows, cols)
	}
	return &Grid{Rows: rows, Cols: cols, Data: data}, nil
}

// Fill returns a grid with every cell set to v.
func Fill(rows, cols int, v float64) *Grid {
	g := NewGrid(rows, cols)
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

func (g *Grid) Shape() Shape { return Shape{Rows: g.Rows, Cols: g.Cols} }

func (g *Grid) At(row, col int) float64 { return g.Data[row*g.Cols+col] }

// Map applies fn to every cell.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	out := NewGrid(g.Rows, g.Cols)
	for i, v := range g.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// Test returns a mask that is true where pred holds.
func (g *Grid) Test(pred func(v float64) bool) *Mask {
	out := NewMask(g.Rows, g.Cols)
	for i, v := range g.Data {
		out.Data[i] = pred(v)
	}
	return out
}

// Finite returns the finite values of g, optionally restricted to where is true.
func (g *Grid) Finite(where *Mask) []float64 {
	values := make([]float64, 0, len(g.Data))
	for i, v := range g.Data {
		if where != nil && !where.Data[i] {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	return values
}

// Range returns the smallest and largest finite cell, optionally restricted to
// where is true. Both are NaN when none is finite.
func (g *Grid) Range(where *Mask) (float64, float64) {
	values := g.Finite(where)
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(values), floats.Max(values)
}

// Zip combines two grids of identical shape cell by cell.
func Zip(a, b *Grid, fn func(x, y float64) float64) (*Grid, error) {
	if err := checkShapes(a.Shape(), b.Shape()); err != nil {
		return nil, err
	}
	out := NewGrid(a.Rows, a.Cols)
	for i := range a.Data {
		out.Data[i] = fn(a.Data[i], b.Data[i])
	}
	return out, nil
}

// Divide returns x/y, collapsing NaN and infinite quotients to replace.
// A zero denominator therefore never escapes as NaN or Inf, and neither does a
// genuine overflow.
func Divide(x, y, replace float64) float64 {
	q := x / y
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return replace
	}
	return q
}

// DivideSafe is the element-wise form of Divide.
func DivideSafe(a, b *Grid, replace float64) (*Grid, error) {
	return Zip(a, b, func(x, y float64) float64 { return Divide(x, y, replace) })
}
