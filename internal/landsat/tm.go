package landsat

import (
	"fmt"
	"math"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Exo-atmospheric solar irradiance per band number, W/(m² sr µm). Band 6 is
// thermal and has none.
var (
	tmIrradiance  = []float64{1958.0, 1827.0, 1551.0, 1036.0, 214.9, math.NaN(), 80.65}
	etmIrradiance = []float64{1970.0, 1842.0, 1547.0, 1044.0, 255.7, math.NaN(), 82.06, 1369.0}
)

// legacy calibrates the 8-bit TM and ETM+ products from their min/max
// radiance and quantization pairs.
type legacy struct {
	scene
	bands    BandMap
	esun     []float64
	thermals []Band
	k1, k2   float64
}

func newLegacy(s scene, bands BandMap, esun []float64, thermals []Band, k1, k2 float64) legacy {
	return legacy{scene: s, bands: bands, esun: esun, thermals: thermals, k1: k1, k2: k2}
}

func (l *legacy) Bands() BandMap { return l.bands }

func (l *legacy) thermal(b Band) bool {
	for _, t := range l.thermals {
		if b == t {
			return true
		}
	}
	return false
}

func (l *legacy) optical(b Band) bool {
	n := b.Number()
	return n >= 1 && n <= len(l.esun) && n != 6 && b == Band(fmt.Sprintf("B%d", n))
}

func (l *legacy) Radiance(b Band) (*raster.Grid, error) {
	if !l.optical(b) && !l.thermal(b) {
		return nil, l.domain(b, "radiance")
	}
	c, err := l.im.Metadata.calibration(b)
	if err != nil {
		return nil, err
	}
	dn, err := l.im.DN(b)
	if err != nil {
		return nil, err
	}
	gain := (c.RadianceMax - c.RadianceMin) / (c.QuantizeMax - c.QuantizeMin)
	return dn.Map(func(q float64) float64 {
		return float64(gain*(q-c.QuantizeMin)) + c.RadianceMin
	}), nil
}

func (l *legacy) Reflectance(b Band) (*raster.Grid, error) {
	if !l.optical(b) {
		return nil, l.domain(b, "reflectance")
	}
	if err := l.im.Metadata.checkSunElevation(); err != nil {
		return nil, err
	}
	rad, err := l.Radiance(b)
	if err != nil {
		return nil, err
	}
	d := EarthSunDistance(l.im.Metadata.Acquired)
	d2 := d * d
	den := l.esun[b.Number()-1] * math.Cos(l.im.Metadata.SolarZenith())
	return rad.Map(func(r float64) float64 {
		return (math.Pi * r * d2) / den
	}), nil
}

func (l *legacy) brightnessTemperature(b Band, scale Scale) (*raster.Grid, error) {
	rad, err := l.Radiance(b)
	if err != nil {
		return nil, err
	}
	return toBrightness(rad, l.k1, l.k2, scale, raster.Double)
}

func (l *legacy) SaturationMask(b Band, value float64) (*raster.Mask, error) {
	if !l.optical(b) && !l.thermal(b) {
		return nil, l.domain(b, "saturation")
	}
	return l.saturation(b, value)
}

// tm is the Landsat 5 Thematic Mapper.
type tm struct {
	legacy
}

func (t *tm) BrightnessTemperature(b Band, scale Scale) (*raster.Grid, error) {
	if b != B6 {
		return nil, t.domain(b, "brightness temperature")
	}
	return t.brightnessTemperature(b, scale)
}

func (t *tm) Albedo() (*raster.Grid, error) { return albedo(t) }

func (t *tm) NDVI() (*raster.Grid, error) { return ndvi(t) }

func (t *tm) NDSI() (*raster.Grid, error) { return ndsi(t) }

// etm is the Landsat 7 Enhanced Thematic Mapper Plus. Its thermal band comes
// in a low gain (B6_VCID_1) and a high gain (B6_VCID_2) product; plain B6 means
// low gain.
type etm struct {
	legacy
}

// ThermalBand returns the band holding the requested ETM+ thermal gain.
func ThermalBand(g Gain) Band {
	if g == HighGain {
		return B6VCID2
	}
	return B6VCID1
}

func (e *etm) BrightnessTemperature(b Band, scale Scale) (*raster.Grid, error) {
	switch b {
	case B6:
		b = ThermalBand(LowGain)
	case B6VCID1, B6VCID2:
	default:
		return nil, e.domain(b, "brightness temperature")
	}
	return e.brightnessTemperature(b, scale)
}

func (e *etm) Albedo() (*raster.Grid, error) { return albedo(e) }

func (e *etm) NDVI() (*raster.Grid, error) { return ndvi(e) }

func (e *etm) NDSI() (*raster.Grid, error) { return ndsi(e) }
