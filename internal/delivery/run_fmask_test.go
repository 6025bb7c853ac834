package delivery

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/landsat-fmask/internal/cache"
	"github.com/forest-guardian/landsat-fmask/internal/fmask"
	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
	"github.com/forest-guardian/landsat-fmask/output"
)

const sceneID = "LC80390272013231LGN00"

var utm = raster.Georeference{
	GeoTransform: [6]float64{299400, 30, 0, 5191500, 0, -30},
	Projection:   "PROJCS[\"WGS 84 / UTM zone 12N\"]",
}

func metadataFile() string {
	var b strings.Builder
	b.WriteString("GROUP = L1_METADATA_FILE\n  GROUP = PRODUCT_METADATA\n")
	fmt.Fprintf(&b, "    LANDSAT_SCENE_ID = %q\n    SPACECRAFT_ID = \"LANDSAT_8\"\n    DATE_ACQUIRED = 2013-08-19\n", sceneID)
	b.WriteString("  END_GROUP = PRODUCT_METADATA\n  GROUP = IMAGE_ATTRIBUTES\n    SUN_ELEVATION = 90.0\n  END_GROUP = IMAGE_ATTRIBUTES\n")
	b.WriteString("  GROUP = RADIOMETRIC_RESCALING\n")
	for n := 1; n <= 9; n++ {
		fmt.Fprintf(&b, "    REFLECTANCE_MULT_BAND_%d = 2.0000E-05\n    REFLECTANCE_ADD_BAND_%d = -0.100000\n", n, n)
	}
	b.WriteString("    RADIANCE_MULT_BAND_10 = 3.3420E-04\n    RADIANCE_ADD_BAND_10 = 0.10000\n")
	b.WriteString("  END_GROUP = RADIOMETRIC_RESCALING\n  GROUP = TIRS_THERMAL_CONSTANTS\n")
	b.WriteString("    K1_CONSTANT_BAND_10 = 774.8853\n    K2_CONSTANT_BAND_10 = 1321.0789\n")
	b.WriteString("  END_GROUP = TIRS_THERMAL_CONSTANTS\nEND_GROUP = L1_METADATA_FILE\nEND\n")
	return b.String()
}

func productDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, sceneID+"_MTL.txt"), []byte(metadataFile()), 0o644))
	for _, b := range []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B9", "B10", "B11"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, sceneID+"_"+b+".TIF"), nil, 0o644))
	}
	return dir
}

const rows, cols = 24, 24

// syntheticReader serves a bright cold block in the upper left, a lake along
// the bottom rows and vegetation elsewhere.
type syntheticReader struct{}

func (syntheticReader) ReadBand(path string) (*raster.Grid, raster.Georeference, error) {
	name := filepath.Base(path)
	band := strings.TrimSuffix(name[strings.LastIndex(name, "_")+1:], ".TIF")

	// reflectance r is stored as DN (r + 0.1) / 2e-5
	dn := func(r float64) float64 { return math.Round((r + 0.1) / 2e-5) }
	g := raster.NewGrid(rows, cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cloud := row < 8 && col < 8
			lake := row >= rows-4
			var v float64
			switch band {
			case "B10", "B11":
				v = 30000
				if cloud {
					v = 20000
				}
			case "B5":
				v = dn(0.4)
				if lake {
					v = dn(0.02)
				}
				if cloud {
					v = dn(0.5)
				}
			case "B6", "B7":
				v = dn(0.15)
				if lake {
					v = dn(0.005)
				}
				if cloud {
					v = dn(0.35)
				}
			case "B9":
				v = dn(0.001)
			default:
				v = dn(0.05)
				if lake {
					v = dn(0.06)
				}
				if cloud {
					v = dn(0.5)
				}
			}
			g.Data[row*cols+col] = v
		}
	}
	return g, utm, nil
}

type recordingWriter struct {
	mu    sync.Mutex
	masks map[string]*raster.Mask
	bytes map[string]*raster.Bytes
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{masks: map[string]*raster.Mask{}, bytes: map[string]*raster.Bytes{}}
}

func (w *recordingWriter) WriteMask(path string, m *raster.Mask, ref raster.Georeference) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.masks[filepath.Base(path)] = m
	return os.WriteFile(path, nil, 0o644)
}

func (w *recordingWriter) WriteBytes(path string, b *raster.Bytes, ref raster.Georeference, nodata float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bytes[filepath.Base(path)] = b
	return os.WriteFile(path, nil, 0o644)
}

type offset struct{}

func (offset) Project(xs, ys []float64) error {
	for i := range xs {
		xs[i], ys[i] = -111+xs[i]/1e6, 46+ys[i]/1e7
	}
	return nil
}

func TestRunFmask(t *testing.T) {
	t.Parallel()

	w := newRecordingWriter()
	projected := false
	r := &Runner{
		Reader: syntheticReader{},
		Writer: w,
		Projector: func(wkt string) (output.Projector, func(), error) {
			projected = true
			return offset{}, func() {}, nil
		},
		Cache:   cache.NewFileCache[output.Report](t.TempDir()),
		Workers: 3,
		Silent:  true,
	}
	opts := fmask.DefaultOptions()
	opts.Combined = true
	out := t.TempDir()

	got, err := r.RunFmask(context.Background(), Request{
		SceneDir:  productDir(t),
		OutDir:    out,
		Options:   opts,
		Quicklook: true,
		Footprint: true,
		Report:    true,
	})
	require.NoError(t, err)

	var names []string
	for _, f := range got.Files {
		names = append(names, strings.TrimPrefix(filepath.Base(f), sceneID+"_"))
	}
	assert.Equal(t, []string{
		"classes.tif", "cloud.tif", "combined.tif", "footprint.geojson", "nodata.tif",
		"quicklook.png", "report.csv", "shadow.tif", "water.tif",
	}, names)
	assert.True(t, projected)

	rep := got.Report
	assert.Equal(t, sceneID, rep.SceneID)
	assert.Equal(t, "LC8", rep.Sensor)
	assert.Equal(t, "2013-08-19", rep.Acquired)
	assert.Equal(t, rows*cols, rep.ValidPixels)
	assert.Positive(t, rep.CloudPixels)
	assert.Positive(t, rep.WaterPixels)
	assert.InDelta(t, float64(rep.CloudPixels)*900, rep.CloudArea, 1e-6)

	cloud := w.masks[sceneID+"_cloud.tif"]
	require.NotNil(t, cloud)
	assert.Equal(t, rep.CloudPixels, cloud.Count())
	assert.True(t, cloud.At(0, 0))
	combined := w.masks[sceneID+"_combined.tif"]
	require.NotNil(t, combined)
	assert.GreaterOrEqual(t, combined.Count(), cloud.Count())

	reports, err := output.ReadReport(filepath.Join(out, sceneID+"_report.csv"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, rep.CloudPixels, reports[0].CloudPixels)

	cached, err := r.Stats(productDir(t), opts)
	require.NoError(t, err)
	assert.Equal(t, rep.CloudPixels, cached.CloudPixels)

	_, err = r.Stats(productDir(t), fmask.Options{})
	assert.Error(t, err, "a different filter setup is a cache miss")
}

func TestRunFmask_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing scene", func(t *testing.T) {
		t.Parallel()
		r := &Runner{Reader: syntheticReader{}, Writer: newRecordingWriter(), Silent: true}
		_, err := r.RunFmask(context.Background(), Request{SceneDir: t.TempDir(), OutDir: t.TempDir(), Options: fmask.DefaultOptions()})
		assert.ErrorIs(t, err, landsat.ErrConfiguration)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := &Runner{Reader: syntheticReader{}, Writer: newRecordingWriter(), Silent: true}
		_, err := r.RunFmask(ctx, Request{SceneDir: productDir(t), OutDir: t.TempDir(), Options: fmask.DefaultOptions()})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("stats without cache", func(t *testing.T) {
		t.Parallel()
		_, err := (&Runner{}).Stats(productDir(t), fmask.DefaultOptions())
		assert.Error(t, err)
	})
}

func TestSceneFootprint(t *testing.T) {
	t.Parallel()

	shape := raster.Shape{Rows: 10, Cols: 20}
	corners := landsat.Corners{ULX: 100, ULY: 900, LRX: 700, LRY: 600}

	got, err := sceneFootprint(utm, shape, corners)
	require.NoError(t, err)
	assert.Equal(t, output.Footprint(utm, shape), got)

	got, err = sceneFootprint(raster.Georeference{}, shape, corners)
	require.NoError(t, err)
	assert.Equal(t, orb.Polygon{{{100, 900}, {700, 900}, {700, 600}, {100, 600}, {100, 900}}}, got)
	assert.InDelta(t, 600*300, math.Abs(planar.Area(got)), 1e-9)

	_, err = sceneFootprint(raster.Georeference{}, shape, landsat.Corners{})
	assert.Error(t, err)
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	valid, err := raster.MaskFrom(1, 4, []bool{true, true, true, false})
	require.NoError(t, err)
	thermal, err := raster.GridFrom(1, 4, []float64{20, 22, 30, 0})
	require.NoError(t, err)
	s := &fmask.Scene{Blue: raster.NewGrid(1, 4), Thermal: thermal, Valid: valid}

	mask := func(cells ...int) *raster.Mask {
		m := raster.NewMask(1, 4)
		for _, c := range cells {
			m.Data[c] = true
		}
		return m
	}
	res := &fmask.Result{Cloud: mask(2), Shadow: mask(), Water: mask()}
	d := &fmask.Diagnostics{Thresholds: fmask.Thresholds{WaterTemperature: math.NaN(), LandLow: 18, LandHigh: 25, LandThreshold: 0.4}}
	meta := landsat.Metadata{SceneID: "scene", Sensor: landsat.Landsat5, Acquired: time.Date(2006, 6, 8, 17, 0, 0, 0, time.UTC)}

	r := BuildReport(meta, s, res, nil, d, utm)
	assert.Equal(t, 3, r.ValidPixels)
	assert.Equal(t, 1, r.CloudPixels)
	assert.InDelta(t, 1.0/3, r.CloudFraction, 1e-12)
	assert.Equal(t, 900.0, r.CloudArea)
	assert.Equal(t, "2006-06-08", r.Acquired)
	assert.Equal(t, "LT5", r.Sensor)
	assert.InDelta(t, 21, float64(r.ClearTemperatureMean), 1e-12)
	assert.InDelta(t, math.Sqrt2, float64(r.ClearTemperatureStd), 1e-12)
	assert.Equal(t, output.Value(20), r.ClearTemperatureMin)
	assert.Equal(t, output.Value(22), r.ClearTemperatureMax)
	assert.True(t, math.IsNaN(float64(r.WaterTemperature)))
	assert.Equal(t, output.Value(0.4), r.LandThreshold)
}
