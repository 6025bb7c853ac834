package mtl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/landsat-fmask/internal/landsat"
)

const oliMTL = `GROUP = L1_METADATA_FILE
  GROUP = METADATA_FILE_INFO
    ORIGIN = "Image courtesy of the U.S. Geological Survey"
    LANDSAT_SCENE_ID = "LC80390272013231LGN00"
  END_GROUP = METADATA_FILE_INFO
  GROUP = PRODUCT_METADATA
    SPACECRAFT_ID = "LANDSAT_8"
    DATE_ACQUIRED = 2013-08-19
    SCENE_CENTER_TIME = "18:24:31.4672800Z"
    CORNER_UL_PROJECTION_X_PRODUCT = 299400.000
    CORNER_UL_PROJECTION_Y_PRODUCT = 5191500.000
    CORNER_LR_PROJECTION_X_PRODUCT = 527700.000
    CORNER_LR_PROJECTION_Y_PRODUCT = 4962000.000
  END_GROUP = PRODUCT_METADATA
  GROUP = IMAGE_ATTRIBUTES
    SUN_ELEVATION = 55.63831615
  END_GROUP = IMAGE_ATTRIBUTES
  GROUP = RADIOMETRIC_RESCALING
    RADIANCE_MULT_BAND_1 = 1.2594E-02
    RADIANCE_ADD_BAND_1 = -62.97115
    RADIANCE_MULT_BAND_10 = 3.3420E-04
    RADIANCE_ADD_BAND_10 = 0.10000
    REFLECTANCE_MULT_BAND_1 = 2.0000E-05
    REFLECTANCE_ADD_BAND_1 = -0.100000
  END_GROUP = RADIOMETRIC_RESCALING
  GROUP = TIRS_THERMAL_CONSTANTS
    K1_CONSTANT_BAND_10 = 774.8853
    K2_CONSTANT_BAND_10 = 1321.0789
  END_GROUP = TIRS_THERMAL_CONSTANTS
END_GROUP = L1_METADATA_FILE
END
`

const etmMTL = `GROUP = L1_METADATA_FILE
  GROUP = PRODUCT_METADATA
    LANDSAT_SCENE_ID = "LE70390272002154EDC00"
    DATE_ACQUIRED = 2002-06-03
  END_GROUP = PRODUCT_METADATA
  GROUP = IMAGE_ATTRIBUTES
    SUN_ELEVATION = 62.5
  END_GROUP = IMAGE_ATTRIBUTES
  GROUP = MIN_MAX_RADIANCE
    RADIANCE_MAXIMUM_BAND_6_VCID_1 = 17.040
    RADIANCE_MINIMUM_BAND_6_VCID_1 = 0.000
    RADIANCE_MAXIMUM_BAND_6_VCID_2 = 12.650
    RADIANCE_MINIMUM_BAND_6_VCID_2 = 3.200
  END_GROUP = MIN_MAX_RADIANCE
  GROUP = MIN_MAX_PIXEL_VALUE
    QUANTIZE_CAL_MAX_BAND_6_VCID_1 = 255
    QUANTIZE_CAL_MIN_BAND_6_VCID_1 = 1
  END_GROUP = MIN_MAX_PIXEL_VALUE
END_GROUP = L1_METADATA_FILE
END
`

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := Parse(strings.NewReader(oliMTL))
	require.NoError(t, err)
	assert.Equal(t, "L1_METADATA_FILE", f.Header)

	v, ok := f.Get("ORIGIN")
	require.True(t, ok)
	assert.Equal(t, "Image courtesy of the U.S. Geological Survey", v)

	g, ok := f.Group("TIRS_THERMAL_CONSTANTS")
	require.True(t, ok)
	assert.Equal(t, "774.8853", g["K1_CONSTANT_BAND_10"])

	_, ok = f.Get("MISSING")
	assert.False(t, ok)

	x, ok, err := f.Float("SUN_ELEVATION")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 55.63831615, x, 1e-12)

	_, _, err = f.Float("ORIGIN")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParse_KeysAfterInnerGroup(t *testing.T) {
	t.Parallel()

	f, err := Parse(strings.NewReader(`GROUP = A
  GROUP = B
    X = 1
  END_GROUP = B
  Y = 2
END_GROUP = A
END`))
	require.NoError(t, err)
	a, ok := f.Group("A")
	require.True(t, ok)
	assert.Equal(t, "2", a["Y"])
	b, ok := f.Group("B")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"X": "1"}, b)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"no groups", "END\n"},
		{"unclosed group", "GROUP = A\nX = 1\n"},
		{"mismatched end", "GROUP = A\nEND_GROUP = B\n"},
		{"missing equals", "GROUP = A\nX 1\nEND_GROUP = A\n"},
		{"key outside group", "X = 1\n"},
		{"unterminated string", "GROUP = A\nX = \"abc\nEND_GROUP = A\n"},
		{"content after end", "GROUP = A\nEND_GROUP = A\nEND\nX = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestMetadata_OLI(t *testing.T) {
	t.Parallel()

	f, err := Parse(strings.NewReader(oliMTL))
	require.NoError(t, err)
	meta, err := f.Metadata()
	require.NoError(t, err)

	assert.Equal(t, "LC80390272013231LGN00", meta.SceneID)
	assert.Equal(t, landsat.Landsat8, meta.Sensor)
	assert.InDelta(t, 55.63831615, meta.SunElevation, 1e-12)
	assert.Equal(t, time.Date(2013, time.August, 19, 18, 24, 31, 467280000, time.UTC), meta.Acquired)
	assert.Equal(t, landsat.Corners{ULX: 299400, ULY: 5191500, LRX: 527700, LRY: 4962000}, meta.Corners)

	require.Len(t, meta.Bands, 2)
	assert.Equal(t, landsat.BandCalibration{
		RadianceMult: 1.2594e-2, RadianceAdd: -62.97115,
		ReflectanceMult: 2e-5, ReflectanceAdd: -0.1,
	}, meta.Bands[landsat.B1])
	assert.Equal(t, landsat.BandCalibration{
		RadianceMult: 3.342e-4, RadianceAdd: 0.1, K1: 774.8853, K2: 1321.0789,
	}, meta.Bands[landsat.B10])
}

func TestMetadata_ETMFallsBackToSceneID(t *testing.T) {
	t.Parallel()

	f, err := Parse(strings.NewReader(etmMTL))
	require.NoError(t, err)
	meta, err := f.Metadata()
	require.NoError(t, err)

	assert.Equal(t, landsat.Landsat7, meta.Sensor)
	assert.Equal(t, time.Date(2002, time.June, 3, 0, 0, 0, 0, time.UTC), meta.Acquired)
	assert.False(t, meta.Corners.Valid())
	assert.Equal(t, landsat.BandCalibration{RadianceMax: 17.04, QuantizeMin: 1, QuantizeMax: 255}, meta.Bands[landsat.B6VCID1])
	assert.Equal(t, landsat.BandCalibration{RadianceMin: 3.2, RadianceMax: 12.65}, meta.Bands[landsat.B6VCID2])
	assert.NotContains(t, meta.Bands, landsat.B6)
}

func TestMetadata_Missing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		remove string
	}{
		{"sun elevation", "    SUN_ELEVATION = 55.63831615\n"},
		{"acquisition date", "    DATE_ACQUIRED = 2013-08-19\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := Parse(strings.NewReader(strings.Replace(oliMTL, tt.remove, "", 1)))
			require.NoError(t, err)
			_, err = f.Metadata()
			assert.ErrorIs(t, err, landsat.ErrConfiguration)
		})
	}
}

func TestFindAndOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Find(dir)
	assert.Error(t, err)

	path := filepath.Join(dir, "LC80390272013231LGN00_MTL.txt")
	require.NoError(t, os.WriteFile(path, []byte(oliMTL), 0o644))

	found, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	f, err := Open(found)
	require.NoError(t, err)
	assert.Equal(t, "L1_METADATA_FILE", f.Header)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other_MTL.txt"), []byte(oliMTL), 0o644))
	_, err = Find(dir)
	assert.Error(t, err)
}
