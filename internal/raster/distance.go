package raster

import "math"

const farAway = 1e20

// DistanceToNearest returns, for every cell, the exact Euclidean distance (in
// cells) to the nearest true cell of m. Cells of m that are true get 0. When m
// has no true cell every distance is +Inf.
//
// This is scipy's distance_transform_edt applied to the inverse of m, computed
// with the two-pass lower-envelope algorithm of Felzenszwalb and Huttenlocher.
func DistanceToNearest(m *Mask) *Grid {
	out := NewGrid(m.Rows, m.Cols)
	if m.Count() == 0 {
		for i := range out.Data {
			out.Data[i] = math.Inf(1)
		}
		return out
	}

	for i, v := range m.Data {
		if !v {
			out.Data[i] = farAway
		}
	}

	longest := m.Rows
	if m.Cols > longest {
		longest = m.Cols
	}
	f := make([]float64, longest)
	d := make([]float64, longest)
	v := make([]int, longest)
	z := make([]float64, longest+1)

	for c := 0; c < m.Cols; c++ {
		for r := 0; r < m.Rows; r++ {
			f[r] = out.Data[r*m.Cols+c]
		}
		squaredDistance1D(f[:m.Rows], d[:m.Rows], v, z)
		for r := 0; r < m.Rows; r++ {
			out.Data[r*m.Cols+c] = d[r]
		}
	}
	for r := 0; r < m.Rows; r++ {
		line := out.Data[r*m.Cols : (r+1)*m.Cols]
		copy(f, line)
		squaredDistance1D(f[:m.Cols], d[:m.Cols], v, z)
		copy(line, d[:m.Cols])
	}

	for i, sq := range out.Data {
		out.Data[i] = math.Sqrt(sq)
	}
	return out
}

func squaredDistance1D(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for s <= z[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

func intersect(f []float64, q, p int) float64 {
	fq, fp := float64(q), float64(p)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}
