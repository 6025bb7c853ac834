package landsat

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// BandCalibration carries the per-band coefficients of the MTL
// MIN_MAX_RADIANCE, MIN_MAX_PIXEL_VALUE, RADIOMETRIC_RESCALING and
// TIRS_THERMAL_CONSTANTS groups. Fields a product does not provide stay zero.
type BandCalibration struct {
	RadianceMin, RadianceMax float64
	QuantizeMin, QuantizeMax float64

	RadianceMult, RadianceAdd       float64
	ReflectanceMult, ReflectanceAdd float64

	K1, K2 float64
}

// Metadata is the scene record calibration needs.
type Metadata struct {
	SceneID      string
	Sensor       Sensor
	SunElevation float64 // degrees
	Acquired     time.Time
	// Corner coordinates in the product projection, if known.
	Corners Corners
	Bands   map[Band]BandCalibration
}

// Corners holds the projected product corners (upper left, lower right).
type Corners struct {
	ULX, ULY, LRX, LRY float64
}

func (c Corners) Valid() bool { return c.ULX != c.LRX && c.ULY != c.LRY }

func (m Metadata) calibration(b Band) (BandCalibration, error) {
	c, ok := m.Bands[b]
	if !ok {
		return BandCalibration{}, fmt.Errorf("%w: no calibration coefficients for band %s", ErrConfiguration, b)
	}
	return c, nil
}

// SolarZenith returns the scene center solar zenith in radians.
func (m Metadata) SolarZenith() float64 {
	return (90. - m.SunElevation) * math.Pi / 180
}

func (m Metadata) checkSunElevation() error {
	if m.SunElevation <= 0 {
		return fmt.Errorf("%w: sun elevation %.4f must be positive", ErrPhysicalConstraint, m.SunElevation)
	}
	return nil
}

// EarthSunDistance returns the Earth-Sun distance in astronomical units for
// the day of year of t.
func EarthSunDistance(t time.Time) float64 {
	doy := julian.DayOfYearGregorian(t.Year(), int(t.Month()), t.Day())
	rad := 0.9856 * float64(doy-4) * math.Pi / 180
	return 1 - float64(0.01672*math.Cos(rad))
}
