package landsat

import (
	"fmt"
	"math"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// DefaultSaturation is the DN an 8-bit band reports when saturated.
const DefaultSaturation = 255

// Calibrator converts one image's digital numbers into physical quantities.
type Calibrator interface {
	Sensor() Sensor
	Bands() BandMap
	Shape() raster.Shape
	Valid() *raster.Mask

	Radiance(b Band) (*raster.Grid, error)
	Reflectance(b Band) (*raster.Grid, error)
	BrightnessTemperature(b Band, scale Scale) (*raster.Grid, error)
	SaturationMask(b Band, value float64) (*raster.Mask, error)

	Albedo() (*raster.Grid, error)
	NDVI() (*raster.Grid, error)
	NDSI() (*raster.Grid, error)
}

// NewCalibrator picks the calibrator of the image's sensor.
func NewCalibrator(im *Image) (Calibrator, error) {
	base := scene{im: im}
	switch im.Metadata.Sensor {
	case Landsat5:
		return &tm{legacy: newLegacy(base, tmBands, tmIrradiance, []Band{B6}, 607.76, 1260.56)}, nil
	case Landsat7:
		return &etm{legacy: newLegacy(base, etmBands, etmIrradiance, []Band{B6VCID1, B6VCID2}, 666.09, 1282.71)}, nil
	case Landsat8:
		return &oli{scene: base}, nil
	}
	return nil, fmt.Errorf("%w: no calibrator for sensor %s", ErrConfiguration, im.Metadata.Sensor)
}

// scene is the part every calibrator shares.
type scene struct {
	im *Image
}

func (s scene) Sensor() Sensor { return s.im.Metadata.Sensor }

func (s scene) Shape() raster.Shape { return s.im.Shape() }

func (s scene) Valid() *raster.Mask { return s.im.Valid() }

func (s scene) domain(b Band, op string) error {
	return &DomainError{Sensor: s.Sensor(), Band: b, Op: op}
}

func (s scene) saturation(b Band, value float64) (*raster.Mask, error) {
	dn, err := s.im.DN(b)
	if err != nil {
		return nil, err
	}
	sat := dn.Test(func(v float64) bool { return v == value })
	return raster.And(sat, s.im.Valid())
}

// toBrightness inverts Planck's law, k2 / ln(k1/L + 1), rounding each step to p.
func toBrightness(rad *raster.Grid, k1, k2 float64, scale Scale, p raster.Precision) (*raster.Grid, error) {
	if _, err := scale.fromKelvin(0, p); err != nil {
		return nil, err
	}
	r := p.Round
	k1, k2 = r(k1), r(k2)
	return rad.Map(func(l float64) float64 {
		k := r(k2 / r(math.Log(r(r(k1/l)+1))))
		t, _ := scale.fromKelvin(k, p)
		return t
	}), nil
}

func albedo(c Calibrator) (*raster.Grid, error) {
	m := c.Bands()
	bands := []Band{m.Blue, m.Red, m.NIR, m.SWIR1, m.SWIR2}
	refl := make([]*raster.Grid, len(bands))
	for i, b := range bands {
		r, err := c.Reflectance(b)
		if err != nil {
			return nil, err
		}
		refl[i] = r
	}
	r := c.Sensor().Precision().Round
	w := [5]float64{r(0.356), r(0.130), r(0.373), r(0.085), r(0.072)}
	offset, norm := r(0.0018), r(1.014)

	out := raster.NewGrid(c.Shape().Rows, c.Shape().Cols)
	blue, red, nir, swir1, swir2 := refl[0].Data, refl[1].Data, refl[2].Data, refl[3].Data, refl[4].Data
	for i := range out.Data {
		sum := r(r(w[0]*blue[i]) + r(w[1]*red[i]))
		sum = r(sum + r(w[2]*nir[i]))
		sum = r(sum + r(w[3]*swir1[i]))
		sum = r(sum + r(w[4]*swir2[i]))
		out.Data[i] = r(r(sum-offset) / norm)
	}
	return out, nil
}

// normalizedDifference is (a-b)/(a+b) with zero where it is undefined.
func normalizedDifference(c Calibrator, a, b Band) (*raster.Grid, error) {
	ra, err := c.Reflectance(a)
	if err != nil {
		return nil, err
	}
	rb, err := c.Reflectance(b)
	if err != nil {
		return nil, err
	}
	r := c.Sensor().Precision().Round
	num, err := raster.Zip(ra, rb, func(x, y float64) float64 { return r(x - y) })
	if err != nil {
		return nil, err
	}
	den, err := raster.Zip(ra, rb, func(x, y float64) float64 { return r(x + y) })
	if err != nil {
		return nil, err
	}
	nd, err := raster.DivideSafe(num, den, 0)
	if err != nil {
		return nil, err
	}
	return nd.Map(r), nil
}

func ndvi(c Calibrator) (*raster.Grid, error) {
	return normalizedDifference(c, c.Bands().NIR, c.Bands().Red)
}

func ndsi(c Calibrator) (*raster.Grid, error) {
	return normalizedDifference(c, c.Bands().Green, c.Bands().SWIR1)
}
