// Package landsat turns raw Landsat digital numbers into physical quantities.
//
// Each supported instrument (TM on Landsat 5, ETM+ on Landsat 7, OLI/TIRS on
// Landsat 8) is a Calibrator with its own band map and conversion formulas.
// Calibrators are built from an Image, which holds the raw band grids together
// with the typed scene Metadata.
package landsat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

var (
	ErrConfiguration      = errors.New("landsat: configuration error")
	ErrDomain             = errors.New("landsat: band outside sensor domain")
	ErrPhysicalConstraint = errors.New("landsat: physical constraint violated")
)

// DomainError reports an operation asked of a band the sensor cannot serve,
// such as the reflectance of a thermal band.
type DomainError struct {
	Sensor Sensor
	Band   Band
	Op     string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("landsat: %s of band %s is not defined for %s", e.Op, e.Band, e.Sensor)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

type Sensor int

const (
	Landsat5 Sensor = iota + 1
	Landsat7
	Landsat8
)

func (s Sensor) String() string {
	switch s {
	case Landsat5:
		return "LT5"
	case Landsat7:
		return "LE7"
	case Landsat8:
		return "LC8"
	}
	return fmt.Sprintf("Sensor(%d)", int(s))
}

// EightBit reports whether the sensor quantizes to 8 bits and can therefore
// saturate its visible bands at DN 255.
func (s Sensor) EightBit() bool { return s == Landsat5 || s == Landsat7 }

// Precision is the width the sensor's products are calibrated and classified
// at. The 16-bit OLI/TIRS products are processed in float32.
func (s Sensor) Precision() raster.Precision {
	if s == Landsat8 {
		return raster.Single
	}
	return raster.Double
}

var sensorAliases = map[string]Sensor{
	"LT5":       Landsat5,
	"LT05":      Landsat5,
	"LANDSAT_5": Landsat5,
	"LE7":       Landsat7,
	"LE07":      Landsat7,
	"LANDSAT_7": Landsat7,
	"LC8":       Landsat8,
	"LC08":      Landsat8,
	"LANDSAT_8": Landsat8,
}

// ParseSensor accepts the short identifiers LT5, LE7 and LC8, the collection
// scene prefixes LT05, LE07 and LC08, and the MTL SPACECRAFT_ID values.
func ParseSensor(id string) (Sensor, error) {
	s, ok := sensorAliases[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return 0, fmt.Errorf("%w: unrecognized sensor %q, expected one of LT5, LE7, LC8", ErrConfiguration, id)
	}
	return s, nil
}

// SensorFromSceneID reads the sensor from a scene identifier such as
// LT50390272006159PAC01 or LC08_L1TP_039027_20130819_20170309_01_T1.
func SensorFromSceneID(id string) (Sensor, error) {
	id = strings.ToUpper(id)
	if len(id) >= 4 {
		if s, ok := sensorAliases[id[:4]]; ok {
			return s, nil
		}
	}
	if len(id) >= 3 {
		return ParseSensor(id[:3])
	}
	return ParseSensor(id)
}
