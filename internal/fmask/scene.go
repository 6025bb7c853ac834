package fmask

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Scene is the calibrated input of the classifier. Reflectances are TOA
// fractions, Thermal is brightness temperature in degrees Celsius.
//
// Cirrus is only set for sensors with a cirrus band. The saturation masks are
// only used for 8-bit sensors; a nil mask means nothing saturated.
//
// Precision is the width the classifier evaluates at. NewScene takes it from
// the sensor; the zero value is Double.
type Scene struct {
	Sensor    landsat.Sensor
	Precision raster.Precision

	Blue, Green, Red, NIR, SWIR1, SWIR2 *raster.Grid
	Cirrus                              *raster.Grid
	Thermal                             *raster.Grid
	NDVI, NDSI                          *raster.Grid

	BlueSaturated, GreenSaturated, RedSaturated *raster.Mask

	Valid *raster.Mask
}

// NewScene calibrates every band the classifier needs. Bands are independent,
// so they are converted concurrently; each goroutine owns one field.
func NewScene(c landsat.Calibrator) (*Scene, error) {
	m := c.Bands()
	s := &Scene{Sensor: c.Sensor(), Precision: c.Sensor().Precision(), Valid: c.Valid()}

	var g errgroup.Group
	reflectance := func(dst **raster.Grid, b landsat.Band) {
		g.Go(func() error {
			r, err := c.Reflectance(b)
			if err != nil {
				return fmt.Errorf("failed to calibrate %s reflectance: %w", b, err)
			}
			*dst = r
			return nil
		})
	}
	reflectance(&s.Blue, m.Blue)
	reflectance(&s.Green, m.Green)
	reflectance(&s.Red, m.Red)
	reflectance(&s.NIR, m.NIR)
	reflectance(&s.SWIR1, m.SWIR1)
	reflectance(&s.SWIR2, m.SWIR2)
	if m.HasCirrus() {
		reflectance(&s.Cirrus, m.Cirrus)
	}

	g.Go(func() error {
		t, err := c.BrightnessTemperature(m.Thermal, landsat.Celsius)
		if err != nil {
			return fmt.Errorf("failed to calibrate %s brightness temperature: %w", m.Thermal, err)
		}
		s.Thermal = t
		return nil
	})
	g.Go(func() error {
		v, err := c.NDVI()
		if err != nil {
			return fmt.Errorf("failed to compute ndvi: %w", err)
		}
		s.NDVI = v
		return nil
	})
	g.Go(func() error {
		v, err := c.NDSI()
		if err != nil {
			return fmt.Errorf("failed to compute ndsi: %w", err)
		}
		s.NDSI = v
		return nil
	})

	if c.Sensor().EightBit() {
		saturation := func(dst **raster.Mask, b landsat.Band) {
			g.Go(func() error {
				sat, err := c.SaturationMask(b, landsat.DefaultSaturation)
				if err != nil {
					return fmt.Errorf("failed to compute %s saturation: %w", b, err)
				}
				*dst = sat
				return nil
			})
		}
		saturation(&s.BlueSaturated, m.Blue)
		saturation(&s.GreenSaturated, m.Green)
		saturation(&s.RedSaturated, m.Red)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// SceneFromBands checks a scene assembled from already calibrated arrays.
// Missing NDVI or NDSI are derived from the bands; missing saturation masks
// are taken as empty. A Single precision scene has its arrays rounded to
// float32.
func SceneFromBands(s Scene) (*Scene, error) {
	required := map[string]*raster.Grid{
		"blue": s.Blue, "green": s.Green, "red": s.Red, "nir": s.NIR,
		"swir1": s.SWIR1, "swir2": s.SWIR2, "thermal": s.Thermal,
	}
	if s.Sensor == landsat.Landsat8 {
		required["cirrus"] = s.Cirrus
	} else {
		s.Cirrus = nil
	}
	for name, g := range required {
		if g == nil {
			return nil, fmt.Errorf("%w: %s scene is missing the %s band", landsat.ErrConfiguration, s.Sensor, name)
		}
	}
	switch s.Sensor {
	case landsat.Landsat5, landsat.Landsat7, landsat.Landsat8:
	default:
		return nil, fmt.Errorf("%w: unsupported sensor %s", landsat.ErrConfiguration, s.Sensor)
	}

	if err := s.checkShape(); err != nil {
		return nil, err
	}
	shape := s.Blue.Shape()
	if s.Precision == raster.Single {
		for _, g := range []**raster.Grid{&s.Blue, &s.Green, &s.Red, &s.NIR, &s.SWIR1, &s.SWIR2, &s.Cirrus, &s.Thermal, &s.NDVI, &s.NDSI} {
			if *g != nil {
				*g = (*g).Rounded(raster.Single)
			}
		}
	}
	if s.Valid == nil {
		s.Valid = raster.NewMask(shape.Rows, shape.Cols).Not()
	}
	if s.NDVI == nil {
		s.NDVI = normalizedDifference(s.NIR, s.Red, s.Precision)
	}
	if s.NDSI == nil {
		s.NDSI = normalizedDifference(s.Green, s.SWIR1, s.Precision)
	}
	if s.Sensor.EightBit() {
		for _, m := range []**raster.Mask{&s.BlueSaturated, &s.GreenSaturated, &s.RedSaturated} {
			if *m == nil {
				*m = raster.NewMask(shape.Rows, shape.Cols)
			}
		}
	} else {
		s.BlueSaturated, s.GreenSaturated, s.RedSaturated = nil, nil, nil
	}

	return &s, nil
}

func (s *Scene) Shape() raster.Shape { return s.Blue.Shape() }

// checkShape skips arrays that are not set yet.
func (s *Scene) checkShape() error {
	want := s.Blue.Shape()
	grids := []*raster.Grid{s.Green, s.Red, s.NIR, s.SWIR1, s.SWIR2, s.Thermal, s.NDVI, s.NDSI}
	if s.Cirrus != nil {
		grids = append(grids, s.Cirrus)
	}
	for _, g := range grids {
		if g != nil && g.Shape() != want {
			return fmt.Errorf("scene band is %s, blue is %s: %w", g.Shape(), want, raster.ErrShape)
		}
	}
	masks := []*raster.Mask{s.Valid}
	if s.Sensor.EightBit() {
		masks = append(masks, s.BlueSaturated, s.GreenSaturated, s.RedSaturated)
	}
	for _, m := range masks {
		if m != nil && m.Shape() != want {
			return fmt.Errorf("scene mask is %s, blue is %s: %w", m.Shape(), want, raster.ErrShape)
		}
	}
	return nil
}

// normalizedDifference expects inputs of identical shape.
func normalizedDifference(a, b *raster.Grid, p raster.Precision) *raster.Grid {
	r := p.Round
	out := raster.NewGrid(a.Rows, a.Cols)
	for i := range out.Data {
		x, y := a.Data[i], b.Data[i]
		out.Data[i] = r(raster.Divide(r(x-y), r(x+y), 0))
	}
	return out
}
