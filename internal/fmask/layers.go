package fmask

import (
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// PotentialCloudLayer is equation 18: candidates over water above the water
// probability cutoff, candidates over land above the land threshold, and
// anything 35 degrees colder than the cold end of clear land. On 8-bit sensors
// a saturated visible band marks cloud outright.
func (f *Fmask) PotentialCloudLayer(pcp, water *raster.Mask, tLow float64, landCloudProb *raster.Grid, landThreshold float64, waterCloudProb *raster.Grid) *raster.Mask {
	s, k := f.s, f.k
	saturated := f.saturated()
	landThreshold, cold := f.r(landThreshold), f.r(tLow-k.ColdCloudOffset)
	return f.test(func(i int) bool {
		part1 := pcp.Data[i] && water.Data[i] && waterCloudProb.Data[i] > k.WaterCloudThreshold
		part2 := pcp.Data[i] && !water.Data[i] && landCloudProb.Data[i] > landThreshold
		return part1 || part2 || s.Thermal.Data[i] < cold || (saturated != nil && saturated.Data[i])
	})
}

// saturated is nil when the sensor does not saturate.
func (f *Fmask) saturated() *raster.Mask {
	s := f.s
	if !s.Sensor.EightBit() || s.BlueSaturated == nil || s.GreenSaturated == nil || s.RedSaturated == nil {
		return nil
	}
	m, err := raster.Or(s.BlueSaturated, s.GreenSaturated, s.RedSaturated)
	if err != nil {
		return nil
	}
	return m
}

// PotentialShadowLayer marks dark NIR and SWIR1 that is not water.
func (f *Fmask) PotentialShadowLayer(water *raster.Mask) *raster.Mask {
	s, k := f.s, f.k
	return f.test(func(i int) bool {
		return s.NIR.Data[i] < k.ShadowNIR && s.SWIR1.Data[i] < k.ShadowSWIR1 && !water.Data[i]
	})
}

// PotentialSnowLayer uses the 9.85 C (283 K) threshold of Zhu, Wang & Woodcock (2015).
func (f *Fmask) PotentialSnowLayer() *raster.Mask {
	s, k := f.s, f.k
	return f.test(func(i int) bool {
		return s.NDSI.Data[i] > k.SnowNDSI &&
			s.Thermal.Data[i] < k.SnowTemperature &&
			s.NIR.Data[i] > k.SnowNIR &&
			s.Green.Data[i] > k.SnowGreen
	})
}
