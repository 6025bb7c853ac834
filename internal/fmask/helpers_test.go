package fmask

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

type pixel struct {
	blue, green, red, nir, swir1, swir2, cirrus, thermal float64
}

var (
	cloudy     = pixel{blue: 0.5, green: 0.5, red: 0.45, nir: 0.5, swir1: 0.4, swir2: 0.3, cirrus: 0.02, thermal: 5}
	vegetation = pixel{blue: 0.04, green: 0.08, red: 0.05, nir: 0.4, swir1: 0.2, swir2: 0.1, cirrus: 0.001, thermal: 25}
	lake       = pixel{blue: 0.08, green: 0.06, red: 0.04, nir: 0.02, swir1: 0.01, swir2: 0.005, cirrus: 0.001, thermal: 15}
	dark       = pixel{blue: 0.03, green: 0.04, red: 0.03, nir: 0.08, swir1: 0.06, swir2: 0.04, cirrus: 0.001, thermal: 20}
)

// sceneOf lays pixels out row-major.
func sceneOf(t *testing.T, sensor landsat.Sensor, rows, cols int, px []pixel) Scene {
	t.Helper()
	require.Len(t, px, rows*cols)
	band := func(get func(p pixel) float64) *raster.Grid {
		g := raster.NewGrid(rows, cols)
		for i, p := range px {
			g.Data[i] = get(p)
		}
		return g
	}
	return Scene{
		Sensor:  sensor,
		Blue:    band(func(p pixel) float64 { return p.blue }),
		Green:   band(func(p pixel) float64 { return p.green }),
		Red:     band(func(p pixel) float64 { return p.red }),
		NIR:     band(func(p pixel) float64 { return p.nir }),
		SWIR1:   band(func(p pixel) float64 { return p.swir1 }),
		SWIR2:   band(func(p pixel) float64 { return p.swir2 }),
		Cirrus:  band(func(p pixel) float64 { return p.cirrus }),
		Thermal: band(func(p pixel) float64 { return p.thermal }),
	}
}

func mustScene(t *testing.T, s Scene) *Scene {
	t.Helper()
	out, err := SceneFromBands(s)
	require.NoError(t, err)
	return out
}

func repeat(p pixel, n int) []pixel {
	out := make([]pixel, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func jitter(rng *rand.Rand, p pixel) pixel {
	d := func() float64 { return (rng.Float64() - 0.5) * 0.01 }
	p.blue += d()
	p.green += d()
	p.red += d()
	p.nir += d()
	p.swir1 += d()
	p.swir2 += d()
	p.thermal += d() * 200
	return p
}

// syntheticScene is a cloud blob with a dark patch beside it, a lake strip
// along the bottom and vegetation elsewhere.
func syntheticScene(t *testing.T, sensor landsat.Sensor, rows, cols int, seed int64) *Scene {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	px := make([]pixel, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var p pixel
			switch {
			case r >= rows-4:
				p = lake
			case r >= rows/4 && r < rows/2 && c >= cols/4 && c < cols/2:
				p = cloudy
			case r >= rows/2 && r < rows/2+4 && c >= cols/2 && c < cols/2+6:
				p = dark
			case rng.Float64() < 0.02:
				p = cloudy
			default:
				p = vegetation
			}
			px[r*cols+c] = jitter(rng, p)
		}
	}
	s := sceneOf(t, sensor, rows, cols, px)
	if sensor.EightBit() {
		s.BlueSaturated = raster.NewMask(rows, cols)
		s.GreenSaturated = raster.NewMask(rows, cols)
		s.RedSaturated = raster.NewMask(rows, cols)
		for i := range s.BlueSaturated.Data {
			s.BlueSaturated.Data[i] = rng.Float64() < 0.01
		}
	}
	return mustScene(t, s)
}
