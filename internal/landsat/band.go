package landsat

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Band names a spectral band the way Landsat product files do (B1 .. B11,
// B6_VCID_1 and B6_VCID_2 for the two ETM+ thermal gains).
type Band string

const (
	B1      Band = "B1"
	B2      Band = "B2"
	B3      Band = "B3"
	B4      Band = "B4"
	B5      Band = "B5"
	B6      Band = "B6"
	B7      Band = "B7"
	B8      Band = "B8"
	B9      Band = "B9"
	B10     Band = "B10"
	B11     Band = "B11"
	B6VCID1 Band = "B6_VCID_1"
	B6VCID2 Band = "B6_VCID_2"
)

// KnownBands lists every band name across the supported sensors.
var KnownBands = []Band{B1, B2, B3, B4, B5, B6, B6VCID1, B6VCID2, B7, B8, B9, B10, B11}

// Number returns the band's position in the sensor's band list; both ETM+
// thermal gains are band 6.
func (b Band) Number() int {
	s := strings.TrimPrefix(string(b), "B")
	if i := strings.Index(s, "_"); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ParseBand reads "B4", "b4", "4", "B6_VCID_1" or "6_vcid_2".
func ParseBand(s string) (Band, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "B") {
		s = "B" + s
	}
	b := Band(s)
	switch b {
	case B1, B2, B3, B4, B5, B6, B7, B8, B9, B10, B11, B6VCID1, B6VCID2:
		return b, nil
	}
	return "", fmt.Errorf("%w: unrecognized band %q", ErrConfiguration, s)
}

// Gain selects the ETM+ thermal band.
type Gain int

const (
	LowGain Gain = iota
	HighGain
)

// Scale is a temperature scale.
type Scale int

const (
	Kelvin Scale = iota
	Celsius
	Fahrenheit
)

func (s Scale) String() string {
	switch s {
	case Kelvin:
		return "K"
	case Celsius:
		return "C"
	case Fahrenheit:
		return "F"
	}
	return fmt.Sprintf("Scale(%d)", int(s))
}

// fromKelvin converts k at precision p; the offsets are rounded to p like
// any other operand.
func (s Scale) fromKelvin(k float64, p raster.Precision) (float64, error) {
	r := p.Round
	switch s {
	case Kelvin:
		return k, nil
	case Celsius:
		return r(k - r(273.15)), nil
	case Fahrenheit:
		return r(r(k*r(9/5.0)) - r(459.67)), nil
	}
	return 0, fmt.Errorf("%w: %s is not a valid temperature scale", ErrConfiguration, s)
}

// BandMap assigns the bands Fmask reasons about to a sensor's band numbers.
// Cirrus is empty for sensors without it. Landsat 7 uses the low gain thermal
// band and Landsat 8 band 10 only.
type BandMap struct {
	Blue, Green, Red, NIR, SWIR1, SWIR2 Band
	Cirrus                              Band
	Thermal                             Band
}

func (m BandMap) HasCirrus() bool { return m.Cirrus != "" }

// Required lists the bands a calibrated Fmask scene reads, band 1 first since
// it defines the valid data mask.
func (m BandMap) Required() []Band {
	out := []Band{B1}
	for _, b := range []Band{m.Blue, m.Green, m.Red, m.NIR, m.SWIR1, m.SWIR2, m.Cirrus, m.Thermal} {
		if b != "" && !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	return out
}

// BandMap returns the band assignment of s.
func (s Sensor) BandMap() (BandMap, error) {
	switch s {
	case Landsat5:
		return tmBands, nil
	case Landsat7:
		return etmBands, nil
	case Landsat8:
		return oliBands, nil
	}
	return BandMap{}, fmt.Errorf("%w: no band map for sensor %s", ErrConfiguration, s)
}

var (
	tmBands = BandMap{
		Blue: B1, Green: B2, Red: B3, NIR: B4, SWIR1: B5, SWIR2: B7,
		Thermal: B6,
	}
	etmBands = BandMap{
		Blue: B1, Green: B2, Red: B3, NIR: B4, SWIR1: B5, SWIR2: B7,
		Thermal: B6VCID1,
	}
	oliBands = BandMap{
		Blue: B2, Green: B3, Red: B4, NIR: B5, SWIR1: B6, SWIR2: B7,
		Cirrus: B9, Thermal: B10,
	}
)
