// Package geotiff moves rasters between GDAL datasets and the in-memory grids
// of the classifier.
package geotiff

import (
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

var register sync.Once

func registerDrivers() { register.Do(godal.RegisterAll) }

// warnings are logged, everything else fails the call.
func errLogger() godal.ErrorHandler {
	return func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			log.Debugw("gdal warning", "code", code, "msg", msg)
			return nil
		}
		return fmt.Errorf("gdal error %d: %s", code, msg)
	}
}

// Reader reads single band GeoTIFFs. It satisfies scene.BandReader.
type Reader struct{}

func NewReader() *Reader {
	registerDrivers()
	return &Reader{}
}

func (*Reader) ReadBand(path string) (*raster.Grid, raster.Georeference, error) {
	ds, err := godal.Open(path, godal.ErrLogger(errLogger()))
	if err != nil {
		return nil, raster.Georeference{}, fmt.Errorf("failed to open TIFF file: %w", err)
	}
	defer ds.Close()

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, raster.Georeference{}, fmt.Errorf("%s has no raster bands", path)
	}
	width, height := ds.Structure().SizeX, ds.Structure().SizeY
	g := raster.NewGrid(height, width)
	if err := bands[0].Read(0, 0, g.Data, width, height); err != nil {
		return nil, raster.Georeference{}, fmt.Errorf("failed to read raster data: %w", err)
	}

	ref, err := georeference(ds)
	if err != nil {
		return nil, raster.Georeference{}, err
	}
	return g, ref, nil
}

func georeference(ds *godal.Dataset) (raster.Georeference, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return raster.Georeference{}, fmt.Errorf("failed to get GeoTransform: %w", err)
	}
	return raster.Georeference{GeoTransform: gt, Projection: ds.Projection()}, nil
}
