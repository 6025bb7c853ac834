package fmask

import (
	"math"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// WhitenessIndex is the summed absolute deviation of blue, green and red from
// their mean, relative to that mean.
func (f *Fmask) WhitenessIndex() *raster.Grid {
	s, r := f.s, f.r
	dev := func(v, mean float64) float64 {
		return r(math.Abs(raster.Divide(r(v-mean), mean, 0)))
	}
	return f.surface(func(i int) float64 {
		b, g, red := s.Blue.Data[i], s.Green.Data[i], s.Red.Data[i]
		mean := r(r(r(b+g)+red) / 3)
		return r(r(dev(b, mean)+dev(g, mean)) + dev(red, mean))
	})
}

// BasicTest is equation 1 of Zhu & Woodcock (2012).
func (f *Fmask) BasicTest() *raster.Mask {
	s, k := f.s, f.k
	return f.test(func(i int) bool {
		return s.SWIR2.Data[i] > k.BasicSWIR2 &&
			s.Thermal.Data[i] < k.BasicTemperature &&
			s.NDSI.Data[i] < k.BasicNDSI &&
			s.NDVI.Data[i] < k.BasicNDVI
	})
}

func (f *Fmask) WhitenessTest() *raster.Mask {
	return f.whitenessTest(f.WhitenessIndex())
}

func (f *Fmask) whitenessTest(whiteness *raster.Grid) *raster.Mask {
	return f.test(func(i int) bool { return whiteness.Data[i] < f.k.Whiteness })
}

// HOTTest is the haze optimized transformation: haze and thin cloud brighten
// blue more than red.
func (f *Fmask) HOTTest() *raster.Mask {
	s, k, r := f.s, f.k, f.r
	return f.test(func(i int) bool {
		return r(r(s.Blue.Data[i]-r(k.HOTRedWeight*s.Red.Data[i]))-k.HOTOffset) > 0.0
	})
}

// NIRSWIRTest excludes bright rock and desert. The ratio is a plain IEEE
// division: a zero SWIR1 gives +Inf (pass) or NaN (fail).
func (f *Fmask) NIRSWIRTest() *raster.Mask {
	s := f.s
	return f.test(func(i int) bool { return f.r(s.NIR.Data[i]/s.SWIR1.Data[i]) > f.k.NIRSWIRRatio })
}

// CirrusTest is empty for sensors without a cirrus band.
func (f *Fmask) CirrusTest() *raster.Mask {
	if f.s.Cirrus == nil {
		return f.test(func(int) bool { return false })
	}
	c := f.s.Cirrus
	return f.test(func(i int) bool { return c.Data[i] > f.k.Cirrus })
}

// WaterTest is equation 5 of Zhu & Woodcock (2012).
func (f *Fmask) WaterTest() *raster.Mask {
	s, k := f.s, f.k
	return f.test(func(i int) bool {
		ndvi, nir := s.NDVI.Data[i], s.NIR.Data[i]
		return (ndvi < k.WaterNDVI1 && nir < k.WaterNIR1) ||
			(ndvi < k.WaterNDVI2 && nir < k.WaterNIR2)
	})
}

// PotentialCloudPixels combines the spectral tests into the first pass cloud
// candidates. Cirrus alone qualifies a pixel on sensors that have the band.
func (f *Fmask) PotentialCloudPixels() *raster.Mask {
	return f.potentialCloudPixels(f.WhitenessIndex())
}

func (f *Fmask) potentialCloudPixels(whiteness *raster.Grid) *raster.Mask {
	basic := f.BasicTest()
	white := f.whitenessTest(whiteness)
	hot := f.HOTTest()
	nirswir := f.NIRSWIRTest()
	cirrus := f.CirrusTest()
	return f.test(func(i int) bool {
		return (basic.Data[i] && white.Data[i] && hot.Data[i] && nirswir.Data[i]) || cirrus.Data[i]
	})
}
