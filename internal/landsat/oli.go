package landsat

import (
	"math"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// oli is the Landsat 8 OLI/TIRS pair. It rescales with the MTL mult/add
// factors and evaluates everything at single precision, as the 16-bit
// product is usually processed. Values are stored widened to float64.
type oli struct {
	scene
}

func (o *oli) Bands() BandMap { return oliBands }

func (o *oli) optical(b Band) bool {
	n := b.Number()
	return n >= 1 && n <= 9 && b == oliBand(n)
}

func (o *oli) thermal(b Band) bool { return b == B10 || b == B11 }

func oliBand(n int) Band {
	return []Band{"", B1, B2, B3, B4, B5, B6, B7, B8, B9, B10, B11}[n]
}

func rescale32(dn *raster.Grid, mult, add float64) *raster.Grid {
	m, a := float32(mult), float32(add)
	return dn.Map(func(q float64) float64 {
		return float64(float32(m*float32(q)) + a)
	})
}

func (o *oli) Radiance(b Band) (*raster.Grid, error) {
	if !o.optical(b) && !o.thermal(b) {
		return nil, o.domain(b, "radiance")
	}
	c, err := o.im.Metadata.calibration(b)
	if err != nil {
		return nil, err
	}
	dn, err := o.im.DN(b)
	if err != nil {
		return nil, err
	}
	return rescale32(dn, c.RadianceMult, c.RadianceAdd), nil
}

func (o *oli) Reflectance(b Band) (*raster.Grid, error) {
	if !o.optical(b) {
		return nil, o.domain(b, "reflectance")
	}
	if err := o.im.Metadata.checkSunElevation(); err != nil {
		return nil, err
	}
	c, err := o.im.Metadata.calibration(b)
	if err != nil {
		return nil, err
	}
	dn, err := o.im.DN(b)
	if err != nil {
		return nil, err
	}
	sin := float32(math.Sin(o.im.Metadata.SunElevation * (math.Pi / 180)))
	return rescale32(dn, c.ReflectanceMult, c.ReflectanceAdd).Map(func(r float64) float64 {
		return float64(float32(r) / sin)
	}), nil
}

func (o *oli) BrightnessTemperature(b Band, scale Scale) (*raster.Grid, error) {
	if !o.thermal(b) {
		return nil, o.domain(b, "brightness temperature")
	}
	c, err := o.im.Metadata.calibration(b)
	if err != nil {
		return nil, err
	}
	rad, err := o.Radiance(b)
	if err != nil {
		return nil, err
	}
	return toBrightness(rad, c.K1, c.K2, scale, raster.Single)
}

func (o *oli) SaturationMask(b Band, value float64) (*raster.Mask, error) {
	if !o.optical(b) && !o.thermal(b) {
		return nil, o.domain(b, "saturation")
	}
	return o.saturation(b, value)
}

func (o *oli) Albedo() (*raster.Grid, error) { return albedo(o) }

func (o *oli) NDVI() (*raster.Grid, error) { return ndvi(o) }

func (o *oli) NDSI() (*raster.Grid, error) { return ndsi(o) }
