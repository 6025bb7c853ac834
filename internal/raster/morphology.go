package raster

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a rectangular filter footprint. The zero value disables a filter stage.
type Window struct {
	Rows, Cols int
}

func (w Window) Enabled() bool { return w.Rows > 0 && w.Cols > 0 }

func (w Window) String() string {
	if !w.Enabled() {
		return "off"
	}
	return fmt.Sprintf("%dx%d", w.Rows, w.Cols)
}

// ParseWindow reads "3x3", "10x10", a single size "5" or "off".
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "off" || s == "none" || s == "0" {
		return Window{}, nil
	}
	parts := strings.Split(s, "x")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	rows, err := strconv.Atoi(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("invalid window rows %q: %w", parts[0], err)
	}
	cols, err := strconv.Atoi(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("invalid window cols %q: %w", parts[1], err)
	}
	if rows <= 0 || cols <= 0 {
		return Window{}, fmt.Errorf("invalid window %q: sizes must be positive", s)
	}
	return Window{Rows: rows, Cols: cols}, nil
}

// MinimumFilter erodes m: a cell stays true only if every cell in the window
// around it is true. Windows are placed like scipy.ndimage with origin 0
// (cells [i-size/2, i-size/2+size-1]) and the border is mirrored
// (d c b a | a b c d | d c b a).
func MinimumFilter(m *Mask, w Window) *Mask {
	return separable(m, w, true)
}

// MaximumFilter dilates m: a cell becomes true if any cell in the window is true.
func MaximumFilter(m *Mask, w Window) *Mask {
	return separable(m, w, false)
}

func separable(m *Mask, w Window, erode bool) *Mask {
	if !w.Enabled() {
		return m.Clone()
	}
	out := m.Clone()

	row := make([]bool, m.Cols)
	for r := 0; r < m.Rows; r++ {
		line := out.Data[r*m.Cols : (r+1)*m.Cols]
		copy(row, line)
		filter1D(row, line, w.Cols, erode)
	}

	col := make([]bool, m.Rows)
	res := make([]bool, m.Rows)
	for c := 0; c < m.Cols; c++ {
		for r := 0; r < m.Rows; r++ {
			col[r] = out.Data[r*m.Cols+c]
		}
		filter1D(col, res, w.Rows, erode)
		for r := 0; r < m.Rows; r++ {
			out.Data[r*m.Cols+c] = res[r]
		}
	}
	return out
}

// filter1D writes the windowed all/any of in to out using a running count over
// the mirrored line.
func filter1D(in, out []bool, size int, erode bool) {
	n := len(in)
	if n == 0 {
		return
	}
	before := size / 2
	padded := n + size - 1

	counts := make([]int, padded+1)
	for j := 0; j < padded; j++ {
		counts[j+1] = counts[j]
		if in[reflect(j-before, n)] {
			counts[j+1]++
		}
	}
	for i := 0; i < n; i++ {
		trues := counts[i+size] - counts[i]
		if erode {
			out[i] = trues == size
		} else {
			out[i] = trues > 0
		}
	}
}

func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}
