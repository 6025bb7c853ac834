package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

const sceneID = "LC80390272013231LGN00"

const metadata = `GROUP = L1_METADATA_FILE
  GROUP = PRODUCT_METADATA
    LANDSAT_SCENE_ID = "LC80390272013231LGN00"
    SPACECRAFT_ID = "LANDSAT_8"
    DATE_ACQUIRED = 2013-08-19
  END_GROUP = PRODUCT_METADATA
  GROUP = IMAGE_ATTRIBUTES
    SUN_ELEVATION = 55.6
  END_GROUP = IMAGE_ATTRIBUTES
  GROUP = RADIOMETRIC_RESCALING
    REFLECTANCE_MULT_BAND_1 = 2.0000E-05
    REFLECTANCE_ADD_BAND_1 = -0.100000
  END_GROUP = RADIOMETRIC_RESCALING
END_GROUP = L1_METADATA_FILE
END
`

type fakeReader struct {
	mu    sync.Mutex
	read  []string
	fail  string
	shape raster.Shape
}

func (f *fakeReader) ReadBand(path string) (*raster.Grid, raster.Georeference, error) {
	f.mu.Lock()
	f.read = append(f.read, filepath.Base(path))
	f.mu.Unlock()
	if f.fail != "" && filepath.Base(path) == f.fail {
		return nil, raster.Georeference{}, errors.New("corrupt tiff")
	}
	g := raster.Fill(f.shape.Rows, f.shape.Cols, 1)
	return g, raster.Georeference{GeoTransform: [6]float64{299400, 30, 0, 5191500, 0, -30}}, nil
}

func productDir(t *testing.T, bands ...string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, sceneID+"_MTL.txt"), []byte(metadata), 0o644))
	for _, b := range bands {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("%s_%s.TIF", sceneID, b)), nil, 0o644))
	}
	return dir
}

var oliFiles = []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B9", "B10", "B11", "BQA"}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := productDir(t, "B1", "B6_VCID_1", "b10", "BQA")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fmask.tif"), nil, 0o644))

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, map[landsat.Band]string{
		landsat.B1:      filepath.Join(dir, sceneID+"_B1.TIF"),
		landsat.B6VCID1: filepath.Join(dir, sceneID+"_B6_VCID_1.TIF"),
		landsat.B10:     filepath.Join(dir, sceneID+"_b10.TIF"),
	}, files)
}

func TestDiscover_Duplicate(t *testing.T) {
	t.Parallel()

	dir := productDir(t, "B1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copy_B1.tif"), nil, 0o644))
	_, err := Discover(dir)
	assert.ErrorIs(t, err, landsat.ErrConfiguration)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := productDir(t, oliFiles...)
	r := &fakeReader{shape: raster.Shape{Rows: 3, Cols: 4}}

	s, err := Load(context.Background(), dir, r, 4)
	require.NoError(t, err)

	assert.Equal(t, sceneID, s.Metadata.SceneID)
	assert.Equal(t, landsat.Landsat8, s.Metadata.Sensor)
	assert.Len(t, s.Files, 11)
	assert.Len(t, r.read, 9, "only the bands the sensor needs are read")
	assert.NotContains(t, r.read, sceneID+"_B8.TIF")
	assert.Equal(t, raster.Shape{Rows: 3, Cols: 4}, s.Image.Shape())
	assert.Equal(t, 30.0, s.Georeference.GeoTransform[1])
	assert.Equal(t, 12, s.Image.Valid().Count())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing band", func(t *testing.T) {
		t.Parallel()
		dir := productDir(t, "B1", "B2", "B3", "B4", "B5", "B6", "B7", "B10")
		_, err := Load(context.Background(), dir, &fakeReader{shape: raster.Shape{Rows: 1, Cols: 1}}, 2)
		assert.ErrorIs(t, err, landsat.ErrConfiguration)
	})

	t.Run("missing metadata", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := Load(context.Background(), dir, &fakeReader{}, 2)
		assert.ErrorIs(t, err, landsat.ErrConfiguration)
	})

	t.Run("read failure", func(t *testing.T) {
		t.Parallel()
		dir := productDir(t, oliFiles...)
		r := &fakeReader{shape: raster.Shape{Rows: 1, Cols: 1}, fail: sceneID + "_B5.TIF"}
		_, err := Load(context.Background(), dir, r, 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read band B5")
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		dir := productDir(t, oliFiles...)
		_, err := Load(ctx, dir, &fakeReader{shape: raster.Shape{Rows: 1, Cols: 1}}, 2)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
