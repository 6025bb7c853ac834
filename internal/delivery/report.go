package delivery

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/forest-guardian/landsat-fmask/internal/fmask"
	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
	"github.com/forest-guardian/landsat-fmask/output"
)

// BuildReport counts the classes over the valid pixels and summarizes the
// brightness temperature of what is left clear.
func BuildReport(meta landsat.Metadata, s *fmask.Scene, res *fmask.Result, snow *raster.Mask, d *fmask.Diagnostics, ref raster.Georeference) output.Report {
	shape := s.Shape()
	classes := res.Classes(s.Valid, snow)

	counts := map[uint8]int{}
	clear := raster.NewMask(shape.Rows, shape.Cols)
	for i, c := range classes.Data {
		counts[c]++
		clear.Data[i] = c == fmask.ClassClear
	}

	valid := s.Valid.Count()
	fraction := func(n int) float64 {
		if valid == 0 {
			return 0
		}
		return float64(n) / float64(valid)
	}

	mean, std := math.NaN(), math.NaN()
	if temps := s.Thermal.Finite(clear); len(temps) > 0 {
		mean, std = stat.MeanStdDev(temps, nil)
	}
	lo, hi := s.Thermal.Range(clear)

	r := output.Report{
		SceneID:     meta.SceneID,
		Sensor:      meta.Sensor.String(),
		Acquired:    meta.Acquired.Format(time.DateOnly),
		Rows:        shape.Rows,
		Cols:        shape.Cols,
		ValidPixels: valid,

		CloudPixels:  counts[fmask.ClassCloud],
		ShadowPixels: counts[fmask.ClassShadow],
		WaterPixels:  counts[fmask.ClassWater],
		SnowPixels:   counts[fmask.ClassSnow],

		CloudFraction:  fraction(counts[fmask.ClassCloud]),
		ShadowFraction: fraction(counts[fmask.ClassShadow]),
		WaterFraction:  fraction(counts[fmask.ClassWater]),
		SnowFraction:   fraction(counts[fmask.ClassSnow]),
		CloudArea:      float64(counts[fmask.ClassCloud]) * ref.PixelArea(),

		ClearTemperatureMean: output.Value(mean),
		ClearTemperatureStd:  output.Value(std),
		ClearTemperatureMin:  output.Value(lo),
		ClearTemperatureMax:  output.Value(hi),
	}
	if d != nil {
		r.WaterTemperature = output.Value(d.WaterTemperature)
		r.LandLow = output.Value(d.LandLow)
		r.LandHigh = output.Value(d.LandHigh)
		r.LandThreshold = output.Value(d.LandThreshold)
	}
	return r
}
