// Package scene loads an unpacked Landsat Level-1 product directory: one
// GeoTIFF per band next to the *_MTL.txt metadata file.
package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/gammazero/workerpool"

	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/mtl"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// BandReader reads the first band of a raster file together with its
// georeference.
type BandReader interface {
	ReadBand(path string) (*raster.Grid, raster.Georeference, error)
}

type Scene struct {
	Dir      string
	Metadata landsat.Metadata
	// Files maps every band found in Dir to its path, loaded or not.
	Files map[landsat.Band]string
	Image *landsat.Image
	// Georeference of band 1, shared by every band of the product.
	Georeference raster.Georeference
}

var bandFile = regexp.MustCompile(`(?i)_(B\d{1,2}(?:_VCID_[12])?)\.TIF$`)

// Discover maps band names to the band files of dir.
func Discover(dir string) (map[landsat.Band]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene directory: %w", err)
	}
	out := map[landsat.Band]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := bandFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		b, err := landsat.ParseBand(m[1])
		if err != nil {
			log.Debugw("skipping unknown band file", "file", e.Name())
			continue
		}
		if prev, ok := out[b]; ok {
			return nil, fmt.Errorf("%w: band %s found twice, %s and %s", landsat.ErrConfiguration, b, filepath.Base(prev), e.Name())
		}
		out[b] = filepath.Join(dir, e.Name())
	}
	return out, nil
}

// Load parses the metadata of dir and reads the bands its sensor needs for
// Fmask with up to workers concurrent reads.
func Load(ctx context.Context, dir string, r BandReader, workers int) (*Scene, error) {
	path, err := mtl.Find(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", landsat.ErrConfiguration, err)
	}
	doc, err := mtl.Open(path)
	if err != nil {
		return nil, err
	}
	meta, err := doc.Metadata()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	bands, err := meta.Sensor.BandMap()
	if err != nil {
		return nil, err
	}
	required := bands.Required()
	for _, b := range required {
		if _, ok := files[b]; !ok {
			return nil, fmt.Errorf("%w: %s scene %s has no band %s file", landsat.ErrConfiguration, meta.Sensor, meta.SceneID, b)
		}
	}

	log.Infow("loading scene", "scene", meta.SceneID, "sensor", meta.Sensor, "bands", len(required))
	dn, georef, err := readBands(ctx, r, files, required, workers)
	if err != nil {
		return nil, err
	}

	im, err := landsat.NewImage(meta, dn)
	if err != nil {
		return nil, err
	}
	return &Scene{
		Dir:          dir,
		Metadata:     meta,
		Files:        files,
		Image:        im,
		Georeference: georef,
	}, nil
}

func readBands(ctx context.Context, r BandReader, files map[landsat.Band]string, bands []landsat.Band, workers int) (map[landsat.Band]*raster.Grid, raster.Georeference, error) {
	if workers < 1 {
		workers = 1
	}
	var (
		mu     sync.Mutex
		dn     = make(map[landsat.Band]*raster.Grid, len(bands))
		georef raster.Georeference
		first  error
		once   sync.Once
	)
	fail := func(err error) { once.Do(func() { first = err }) }

	wp := workerpool.New(workers)
	for _, b := range bands {
		path := files[b]
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			g, ref, err := r.ReadBand(path)
			if err != nil {
				fail(fmt.Errorf("failed to read band %s: %w", b, err))
				return
			}
			log.Debugw("read band", "band", b, "file", filepath.Base(path), "shape", g.Shape().String())

			mu.Lock()
			dn[b] = g
			if b == landsat.B1 {
				georef = ref
			}
			mu.Unlock()
		})
	}
	wp.StopWait()

	if first != nil {
		return nil, raster.Georeference{}, first
	}
	return dn, georef, nil
}
