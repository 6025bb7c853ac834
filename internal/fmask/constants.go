package fmask

import "github.com/forest-guardian/landsat-fmask/internal/raster"

// Constants is one revision of the fixed thresholds the classifier uses.
// Reflectances are TOA fractions, temperatures degrees Celsius, percentiles 0-100.
type Constants struct {
	Version string

	// basic test
	BasicSWIR2       float64
	BasicTemperature float64
	BasicNDSI        float64
	BasicNDVI        float64

	Whiteness float64

	// haze optimized transformation: blue - HOTRedWeight*red - HOTOffset > 0
	HOTRedWeight float64
	HOTOffset    float64

	NIRSWIRRatio float64
	Cirrus       float64

	// water test: (ndvi < WaterNDVI1 and nir < WaterNIR1) or (ndvi < WaterNDVI2 and nir < WaterNIR2)
	WaterNDVI1, WaterNIR1 float64
	WaterNDVI2, WaterNIR2 float64

	ClearWaterSWIR2         float64
	WaterPercentile         float64
	LandLowPercentile       float64
	LandHighPercentile      float64
	LandThresholdPercentile float64
	LandThresholdOffset     float64

	WaterTemperatureSpread float64
	BrightnessNIR          float64
	CirrusProbability      float64
	LandTemperatureBuffer  float64

	WaterCloudThreshold float64
	ColdCloudOffset     float64

	ShadowNIR, ShadowSWIR1 float64
	ShadowRadius           float64

	SnowNDSI, SnowTemperature, SnowNIR, SnowGreen float64
}

// Zhu2015 follows Zhu & Woodcock (2012) with the cirrus and snow tests of
// Zhu, Wang & Woodcock (2015).
var Zhu2015 = Constants{
	Version: "zhu2015",

	BasicSWIR2:       0.03,
	BasicTemperature: 27.0,
	BasicNDSI:        0.8,
	BasicNDVI:        0.8,

	Whiteness: 0.7,

	HOTRedWeight: 0.5,
	HOTOffset:    0.08,

	NIRSWIRRatio: 0.75,
	Cirrus:       0.0113,

	WaterNDVI1: 0.01, WaterNIR1: 0.11,
	WaterNDVI2: 0.1, WaterNIR2: 0.05,

	ClearWaterSWIR2:         0.03,
	WaterPercentile:         82.5,
	LandLowPercentile:       17.5,
	LandHighPercentile:      82.5,
	LandThresholdPercentile: 82.5,
	LandThresholdOffset:     0.2,

	WaterTemperatureSpread: 4.0,
	BrightnessNIR:          0.11,
	CirrusProbability:      0.04,
	LandTemperatureBuffer:  4,

	WaterCloudThreshold: 0.5,
	ColdCloudOffset:     35,

	ShadowNIR:    0.10,
	ShadowSWIR1:  0.10,
	ShadowRadius: 100.0,

	SnowNDSI:        0.15,
	SnowTemperature: 9.85,
	SnowNIR:         0.11,
	SnowGreen:       0.1,
}

// at rounds every threshold to p, the width of the arrays it is compared
// against or combined with.
func (c Constants) at(p raster.Precision) Constants {
	r := p.Round
	for _, v := range []*float64{
		&c.BasicSWIR2, &c.BasicTemperature, &c.BasicNDSI, &c.BasicNDVI,
		&c.Whiteness, &c.HOTRedWeight, &c.HOTOffset, &c.NIRSWIRRatio, &c.Cirrus,
		&c.WaterNDVI1, &c.WaterNIR1, &c.WaterNDVI2, &c.WaterNIR2,
		&c.ClearWaterSWIR2, &c.LandThresholdOffset,
		&c.WaterTemperatureSpread, &c.BrightnessNIR, &c.CirrusProbability, &c.LandTemperatureBuffer,
		&c.WaterCloudThreshold, &c.ColdCloudOffset,
		&c.ShadowNIR, &c.ShadowSWIR1,
		&c.SnowNDSI, &c.SnowTemperature, &c.SnowNIR, &c.SnowGreen,
	} {
		*v = r(*v)
	}
	return c
}
