package mtl

import (
	"fmt"
	"strings"
	"time"

	"github.com/forest-guardian/landsat-fmask/internal/landsat"
)

const centerTimeLayout = "15:04:05.999999999Z07:00"

// Metadata extracts the scene record calibration needs. The sensor comes from
// SPACECRAFT_ID, falling back to the scene id prefix.
func (f *File) Metadata() (landsat.Metadata, error) {
	meta := landsat.Metadata{Bands: map[landsat.Band]landsat.BandCalibration{}}

	meta.SceneID, _ = f.Get("LANDSAT_SCENE_ID")
	sensor, err := f.sensor(meta.SceneID)
	if err != nil {
		return landsat.Metadata{}, err
	}
	meta.Sensor = sensor

	elev, ok, err := f.Float("SUN_ELEVATION")
	if err != nil {
		return landsat.Metadata{}, err
	}
	if !ok {
		return landsat.Metadata{}, fmt.Errorf("%w: metadata has no SUN_ELEVATION", landsat.ErrConfiguration)
	}
	meta.SunElevation = elev

	if meta.Acquired, err = f.acquired(); err != nil {
		return landsat.Metadata{}, err
	}
	if meta.Corners, err = f.corners(); err != nil {
		return landsat.Metadata{}, err
	}

	for _, b := range landsat.KnownBands {
		cal, found, err := f.calibration(b)
		if err != nil {
			return landsat.Metadata{}, err
		}
		if found {
			meta.Bands[b] = cal
		}
	}
	if len(meta.Bands) == 0 {
		return landsat.Metadata{}, fmt.Errorf("%w: metadata has no band calibration coefficients", landsat.ErrConfiguration)
	}
	return meta, nil
}

func (f *File) sensor(sceneID string) (landsat.Sensor, error) {
	if id, ok := f.Get("SPACECRAFT_ID"); ok {
		if s, err := landsat.ParseSensor(id); err == nil {
			return s, nil
		}
	}
	if sceneID == "" {
		return 0, fmt.Errorf("%w: metadata names neither SPACECRAFT_ID nor LANDSAT_SCENE_ID", landsat.ErrConfiguration)
	}
	return landsat.SensorFromSceneID(sceneID)
}

func (f *File) acquired() (time.Time, error) {
	date, ok := f.Get("DATE_ACQUIRED")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: metadata has no DATE_ACQUIRED", landsat.ErrConfiguration)
	}
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: DATE_ACQUIRED = %q: %v", ErrSyntax, date, err)
	}
	center, ok := f.Get("SCENE_CENTER_TIME")
	if !ok {
		return day, nil
	}
	clock, err := time.Parse(centerTimeLayout, center)
	if err != nil {
		// some products carry a truncated center time; the day is still usable
		return day, nil
	}
	clock = clock.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC), nil
}

func (f *File) corners() (landsat.Corners, error) {
	var c landsat.Corners
	for _, v := range []struct {
		key string
		dst *float64
	}{
		{"CORNER_UL_PROJECTION_X_PRODUCT", &c.ULX},
		{"CORNER_UL_PROJECTION_Y_PRODUCT", &c.ULY},
		{"CORNER_LR_PROJECTION_X_PRODUCT", &c.LRX},
		{"CORNER_LR_PROJECTION_Y_PRODUCT", &c.LRY},
	} {
		x, ok, err := f.Float(v.key)
		if err != nil {
			return landsat.Corners{}, err
		}
		if !ok {
			return landsat.Corners{}, nil
		}
		*v.dst = x
	}
	return c, nil
}

// bandSuffix maps B6_VCID_1 to _BAND_6_VCID_1 as used by the MTL keys.
func bandSuffix(b landsat.Band) string {
	return "_BAND_" + strings.TrimPrefix(string(b), "B")
}

func (f *File) calibration(b landsat.Band) (landsat.BandCalibration, bool, error) {
	var cal landsat.BandCalibration
	found := false
	suffix := bandSuffix(b)
	for _, v := range []struct {
		prefix string
		dst    *float64
	}{
		{"RADIANCE_MINIMUM", &cal.RadianceMin},
		{"RADIANCE_MAXIMUM", &cal.RadianceMax},
		{"QUANTIZE_CAL_MIN", &cal.QuantizeMin},
		{"QUANTIZE_CAL_MAX", &cal.QuantizeMax},
		{"RADIANCE_MULT", &cal.RadianceMult},
		{"RADIANCE_ADD", &cal.RadianceAdd},
		{"REFLECTANCE_MULT", &cal.ReflectanceMult},
		{"REFLECTANCE_ADD", &cal.ReflectanceAdd},
		{"K1_CONSTANT", &cal.K1},
		{"K2_CONSTANT", &cal.K2},
	} {
		x, ok, err := f.Float(v.prefix + suffix)
		if err != nil {
			return landsat.BandCalibration{}, false, err
		}
		if ok {
			*v.dst = x
			found = true
		}
	}
	return cal, found, nil
}
