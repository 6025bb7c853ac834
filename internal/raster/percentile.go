package raster

import (
	"math"
	"sort"
)

// Percentiles returns the requested percentiles (0-100) of the finite cells of g
// where population is true. Values are linearly interpolated between order
// statistics, matching numpy's default "linear" method, including its
// two-sided lerp. An empty population yields NaN for every percentile.
func Percentiles(g *Grid, population *Mask, ps ...float64) ([]float64, error) {
	return PercentilesAt(Double, g, population, ps...)
}

// PercentilesAt is Percentiles with the interpolation evaluated at precision
// prec. The order statistic positions are always computed in float64.
func PercentilesAt(prec Precision, g *Grid, population *Mask, ps ...float64) ([]float64, error) {
	if population != nil {
		if err := checkShapes(g.Shape(), population.Shape()); err != nil {
			return nil, err
		}
	}
	values := g.Finite(population)
	sort.Float64s(values)

	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = percentile(values, p, prec)
	}
	return out, nil
}

func percentile(sorted []float64, p float64, prec Precision) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	q := p / 100
	virtual := float64(n)*q + (1 + q*-1) - 1
	prev := math.Floor(virtual)
	gamma := virtual - prev

	lo := clampIndex(int(prev), n)
	hi := clampIndex(int(prev)+1, n)
	if virtual < 0 {
		lo, hi, gamma = 0, 0, 0
	}
	r := prec.Round
	a, b := sorted[lo], sorted[hi]
	diff := r(b - a)
	if gamma >= 0.5 {
		return r(b - r(diff*r(1-gamma)))
	}
	return r(a + r(diff*r(gamma)))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
