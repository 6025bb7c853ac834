package raster

import (
	"fmt"
	"math"
)

// Mask is a row-major boolean array.
type Mask struct {
	Rows, Cols int
	Data       []bool
}

func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Data: make([]bool, rows*cols)}
}

func MaskFrom(rows, cols int, data []bool) (*Mask, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d mask", ErrShape, len(data), rows, cols)
	}
	return &Mask{Rows: rows, Cols: cols, Data: data}, nil
}

func (m *Mask) Shape() Shape { return Shape{Rows: m.Rows, Cols: m.Cols} }

func (m *Mask) At(row, col int) bool { return m.Data[row*m.Cols+col] }

// Count returns the number of true cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

func (m *Mask) Not() *Mask {
	out := NewMask(m.Rows, m.Cols)
	for i, v := range m.Data {
		out.Data[i] = !v
	}
	return out
}

func (m *Mask) Clone() *Mask {
	out := NewMask(m.Rows, m.Cols)
	copy(out.Data, m.Data)
	return out
}

// Equal reports whether both masks have the same shape and cells. Two nil
// masks are equal.
func (m *Mask) Equal(o *Mask) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Shape() != o.Shape() {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

func reduce(masks []*Mask, and bool) (*Mask, error) {
	shapes := make([]Shape, len(masks))
	for i, m := range masks {
		shapes[i] = m.Shape()
	}
	if err := checkShapes(shapes...); err != nil {
		return nil, err
	}
	out := masks[0].Clone()
	for _, m := range masks[1:] {
		for i, v := range m.Data {
			if and {
				out.Data[i] = out.Data[i] && v
			} else {
				out.Data[i] = out.Data[i] || v
			}
		}
	}
	return out, nil
}

// And intersects one or more masks of identical shape.
func And(first *Mask, rest ...*Mask) (*Mask, error) {
	return reduce(append([]*Mask{first}, rest...), true)
}

// Or unions one or more masks of identical shape.
func Or(first *Mask, rest ...*Mask) (*Mask, error) {
	return reduce(append([]*Mask{first}, rest...), false)
}

// Bytes is a row-major uint8 array.
type Bytes struct {
	Rows, Cols int
	Data       []uint8
}

func (b *Bytes) Shape() Shape { return Shape{Rows: b.Rows, Cols: b.Cols} }

// Scale maps true to on and false to 0.
func (m *Mask) Scale(on uint8) *Bytes {
	out := &Bytes{Rows: m.Rows, Cols: m.Cols, Data: make([]uint8, len(m.Data))}
	for i, v := range m.Data {
		if v {
			out.Data[i] = on
		}
	}
	return out
}

// NaNOrZero is true where g holds NaN or exactly zero.
func NaNOrZero(g *Grid) *Mask {
	return g.Test(func(v float64) bool { return math.IsNaN(v) || v == 0 })
}
