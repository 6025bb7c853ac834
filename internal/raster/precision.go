package raster

// Precision is the floating point width a pipeline evaluates at. Grids always
// store float64; a Single pipeline rounds every intermediate value to the
// nearest float32, which reproduces element-wise float32 arithmetic exactly
// for + - * / since float64 carries more than twice the float32 mantissa.
type Precision int

const (
	Double Precision = iota
	Single
)

func (p Precision) String() string {
	if p == Single {
		return "float32"
	}
	return "float64"
}

// Round rounds v to p.
func (p Precision) Round(v float64) float64 {
	if p == Single {
		return float64(float32(v))
	}
	return v
}

// Rounded returns g rounded to p. A Double precision returns g itself.
func (g *Grid) Rounded(p Precision) *Grid {
	if p != Single {
		return g
	}
	return g.Map(p.Round)
}
