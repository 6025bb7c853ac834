package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Scene string  `json:"scene"`
	Cloud float64 `json:"cloud"`
}

func TestFileCache_RoundTrip(t *testing.T) {
	t.Parallel()

	fc := NewFileCache[summary](filepath.Join(t.TempDir(), "reports"))
	key := fc.GenerateKey("LC80390272013231LGN00", "3x3", "10x10")

	_, ok := fc.Get(key)
	assert.False(t, ok)

	want := summary{Scene: "LC80390272013231LGN00", Cloud: 0.12}
	require.NoError(t, fc.Set(key, want))

	got, ok := fc.Get(key)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, err := os.Stat(fc.path(key) + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileCache_Tampered(t *testing.T) {
	t.Parallel()

	fc := NewFileCache[summary](t.TempDir())
	key := fc.GenerateKey("scene")
	require.NoError(t, fc.Set(key, summary{Scene: "scene", Cloud: 0.5}))

	raw, err := os.ReadFile(fc.path(key))
	require.NoError(t, err)
	var entry Entry[summary]
	require.NoError(t, json.Unmarshal(raw, &entry))
	entry.Data.Cloud = 0.1
	raw, err = json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fc.path(key), raw, 0o644))

	_, ok := fc.Get(key)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(fc.path(key), []byte("{not json"), 0o644))
	_, ok = fc.Get(key)
	assert.False(t, ok)
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	fc := NewFileCache[summary](t.TempDir())
	a := fc.GenerateKey("scene", 3, true)
	assert.Len(t, a, 40)
	assert.Equal(t, a, fc.GenerateKey("scene", 3, true))
	assert.NotEqual(t, a, fc.GenerateKey("scene", 4, true))
}
