package output

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/forest-guardian/landsat-fmask/internal/log"
)

// Report summarizes one masked scene. Fractions are relative to the valid
// pixels; thresholds are NaN when their population was empty.
type Report struct {
	SceneID  string `csv:"scene_id" json:"scene_id"`
	Sensor   string `csv:"sensor" json:"sensor"`
	Acquired string `csv:"acquired" json:"acquired"`
	Rows     int    `csv:"rows" json:"rows"`
	Cols     int    `csv:"cols" json:"cols"`

	ValidPixels  int `csv:"valid_pixels" json:"valid_pixels"`
	CloudPixels  int `csv:"cloud_pixels" json:"cloud_pixels"`
	ShadowPixels int `csv:"shadow_pixels" json:"shadow_pixels"`
	WaterPixels  int `csv:"water_pixels" json:"water_pixels"`
	SnowPixels   int `csv:"snow_pixels" json:"snow_pixels"`

	CloudFraction  float64 `csv:"cloud_fraction" json:"cloud_fraction"`
	ShadowFraction float64 `csv:"shadow_fraction" json:"shadow_fraction"`
	WaterFraction  float64 `csv:"water_fraction" json:"water_fraction"`
	SnowFraction   float64 `csv:"snow_fraction" json:"snow_fraction"`
	CloudArea      float64 `csv:"cloud_area_m2" json:"cloud_area_m2"`

	WaterTemperature Value `csv:"water_temperature" json:"water_temperature"`
	LandLow          Value `csv:"land_temperature_low" json:"land_temperature_low"`
	LandHigh         Value `csv:"land_temperature_high" json:"land_temperature_high"`
	LandThreshold    Value `csv:"land_threshold" json:"land_threshold"`

	ClearTemperatureMean Value `csv:"clear_temperature_mean" json:"clear_temperature_mean"`
	ClearTemperatureStd  Value `csv:"clear_temperature_std" json:"clear_temperature_std"`
	ClearTemperatureMin  Value `csv:"clear_temperature_min" json:"clear_temperature_min"`
	ClearTemperatureMax  Value `csv:"clear_temperature_max" json:"clear_temperature_max"`
}

// WriteReport stores reports as CSV with a header row.
func WriteReport(path string, reports []Report) error {
	if len(reports) == 0 {
		return fmt.Errorf("no report rows to save")
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&reports, file); err != nil {
		return fmt.Errorf("failed to save report to file: %w", err)
	}
	log.Infow("report written", "path", path, "rows", len(reports))
	return nil
}

func ReadReport(path string) ([]Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	var reports []Report
	if err := gocsv.UnmarshalFile(file, &reports); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return reports, nil
}

// Value is a statistic that may be undefined. NaN and infinities are written
// as null in JSON and as NaN or Inf in CSV.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

func (v Value) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(v), 'g', -1, 64), nil
}

func (v *Value) UnmarshalCSV(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*v = Value(f)
	return nil
}
