package fmask

import (
	"math"

	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Diagnostics are the intermediate values CloudMask works from.
type Diagnostics struct {
	Thresholds

	Whiteness *raster.Grid
	Water     *raster.Mask
	PCP       *raster.Mask

	WaterCloudProbability *raster.Grid
	LandCloudProbability  *raster.Grid
}

// Diagnostics computes the tests, dynamic thresholds and probability surfaces
// of the scene.
func (f *Fmask) Diagnostics() (*Diagnostics, error) {
	d := &Diagnostics{Whiteness: f.WhitenessIndex(), Water: f.WaterTest()}
	d.PCP = f.potentialCloudPixels(d.Whiteness)

	var err error
	cirrus := f.CirrusProbability()

	if d.WaterTemperature, err = f.WaterTemperature(d.Water); err != nil {
		return nil, err
	}
	d.WaterCloudProbability = f.WaterCloudProbability(f.WaterTemperatureProbability(d.WaterTemperature), f.BrightnessProbability(), cirrus)

	if d.LandLow, d.LandHigh, err = f.LandTemperatures(d.PCP, d.Water); err != nil {
		return nil, err
	}
	ltp := f.LandTemperatureProbability(d.LandLow, d.LandHigh)
	d.LandCloudProbability = f.LandCloudProbability(ltp, f.VariabilityProbability(d.Whiteness), cirrus)

	if d.LandThreshold, err = f.LandThreshold(d.LandCloudProbability, d.PCP, d.Water); err != nil {
		return nil, err
	}

	log.Debugw("dynamic thresholds",
		"sensor", f.s.Sensor.String(),
		"constants", f.k.Version,
		"water_temperature", d.WaterTemperature,
		"land_low", d.LandLow,
		"land_high", d.LandHigh,
		"land_threshold", d.LandThreshold,
	)
	return d, nil
}

// WaterTemperatureProbability is equation 9.
func (f *Fmask) WaterTemperatureProbability(waterTemperature float64) *raster.Grid {
	t, r := f.s.Thermal, f.r
	wt := r(waterTemperature)
	return f.surface(func(i int) float64 {
		return r(r(wt-t.Data[i]) / f.k.WaterTemperatureSpread)
	})
}

// BrightnessProbability is equation 10, clipped to [0, 1]. NaN reflectance
// stays NaN.
func (f *Fmask) BrightnessProbability() *raster.Grid {
	nir, th := f.s.NIR, f.k.BrightnessNIR
	return f.surface(func(i int) float64 {
		bp := f.r(math.Min(th, nir.Data[i]) / th)
		if bp > 1 {
			bp = 1
		}
		if bp < 0 {
			bp = 0
		}
		return bp
	})
}

// CirrusProbability is zero without a cirrus band.
func (f *Fmask) CirrusProbability() *raster.Grid {
	c := f.s.Cirrus
	if c == nil {
		return f.surface(func(int) float64 { return 0.0 })
	}
	return f.surface(func(i int) float64 { return f.r(c.Data[i] / f.k.CirrusProbability) })
}

func (f *Fmask) WaterCloudProbability(wtp, bp, cirrus *raster.Grid) *raster.Grid {
	return f.surface(func(i int) float64 {
		return f.r(f.r(wtp.Data[i]*bp.Data[i]) + cirrus.Data[i])
	})
}

// LandTemperatureProbability is equation 14.
func (f *Fmask) LandTemperatureProbability(low, high float64) *raster.Grid {
	t, buf, r := f.s.Thermal, f.k.LandTemperatureBuffer, f.r
	top := r(high + buf)
	den := r(top - r(low-buf))
	return f.surface(func(i int) float64 {
		return r(r(top-t.Data[i]) / den)
	})
}

// VariabilityProbability is equation 15. On 8-bit sensors a saturated red
// (green) band with NIR above red (SWIR1 above green) zeroes NDVI (NDSI).
// Maxima ignore NaN like numpy's fmax.
func (f *Fmask) VariabilityProbability(whiteness *raster.Grid) *raster.Grid {
	s := f.s
	override := s.Sensor.EightBit() && s.RedSaturated != nil && s.GreenSaturated != nil
	return f.surface(func(i int) float64 {
		ndvi, ndsi := s.NDVI.Data[i], s.NDSI.Data[i]
		if override {
			if s.RedSaturated.Data[i] && s.NIR.Data[i] > s.Red.Data[i] {
				ndvi = 0
			}
			if s.GreenSaturated.Data[i] && s.SWIR1.Data[i] > s.Green.Data[i] {
				ndsi = 0
			}
		}
		return f.r(1.0 - fmax(fmax(math.Abs(ndvi), math.Abs(ndsi)), whiteness.Data[i]))
	})
}

func (f *Fmask) LandCloudProbability(ltp, vp, cirrus *raster.Grid) *raster.Grid {
	return f.surface(func(i int) float64 {
		return f.r(f.r(ltp.Data[i]*vp.Data[i]) + cirrus.Data[i])
	})
}

// fmax returns the larger argument, or the other one when one is NaN.
func fmax(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Max(a, b)
}
