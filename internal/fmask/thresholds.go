package fmask

import (
	"math"

	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Thresholds are the scene-adaptive values. Any of them is NaN when its
// population is empty; NaN compares false, which switches the dependent
// branch of the cloud layer off.
type Thresholds struct {
	WaterTemperature float64
	LandLow          float64
	LandHigh         float64
	LandThreshold    float64
}

// clearWater is water with low SWIR2 inside the valid data.
func (f *Fmask) clearWater(water *raster.Mask) *raster.Mask {
	s := f.s
	return f.test(func(i int) bool {
		return water.Data[i] && s.SWIR2.Data[i] < f.k.ClearWaterSWIR2 && s.Valid.Data[i]
	})
}

// clearLand is everything that is neither a cloud candidate nor water, inside
// the valid data.
func (f *Fmask) clearLand(pcp, water *raster.Mask) *raster.Mask {
	return f.test(func(i int) bool {
		return !(pcp.Data[i] || water.Data[i]) && f.s.Valid.Data[i]
	})
}

func (f *Fmask) percentiles(name string, g *raster.Grid, population *raster.Mask, ps ...float64) ([]float64, error) {
	v, err := raster.PercentilesAt(f.s.Precision, g, population, ps...)
	if err != nil {
		return nil, err
	}
	if len(v) > 0 && math.IsNaN(v[0]) {
		log.Warnw("empty percentile population, threshold is NaN", "threshold", name, "pixels", population.Count())
	}
	return v, nil
}

// WaterTemperature is the 82.5th percentile of clear-sky water temperature,
// equations 7 and 8 of Zhu & Woodcock (2012).
func (f *Fmask) WaterTemperature(water *raster.Mask) (float64, error) {
	v, err := f.percentiles("water_temperature", f.s.Thermal, f.clearWater(water), f.k.WaterPercentile)
	if err != nil {
		return math.NaN(), err
	}
	return v[0], nil
}

// LandTemperatures are the 17.5th and 82.5th percentiles of clear-sky land
// temperature, equations 12 and 13.
func (f *Fmask) LandTemperatures(pcp, water *raster.Mask) (low, high float64, err error) {
	v, err := f.percentiles("land_temperature", f.s.Thermal, f.clearLand(pcp, water), f.k.LandLowPercentile, f.k.LandHighPercentile)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	return v[0], v[1], nil
}

// LandThreshold is the clear-sky land cloud probability cutoff, equation 17.
func (f *Fmask) LandThreshold(landCloudProb *raster.Grid, pcp, water *raster.Mask) (float64, error) {
	v, err := f.percentiles("land_threshold", landCloudProb, f.clearLand(pcp, water), f.k.LandThresholdPercentile)
	if err != nil {
		return math.NaN(), err
	}
	return f.r(v[0] + f.k.LandThresholdOffset), nil
}
