package geotiff

import (
	"fmt"

	"github.com/airbusgeo/godal"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// WriteBytes writes b as a single band LZW compressed uint8 GeoTIFF. A nodata
// value below zero leaves the band without one.
func WriteBytes(path string, b *raster.Bytes, ref raster.Georeference, nodata float64) error {
	registerDrivers()
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Byte, b.Cols, b.Rows,
		godal.CreationOption("COMPRESS=LZW", "TILED=YES"), godal.ErrLogger(errLogger()))
	if err != nil {
		return fmt.Errorf("failed to create TIFF file: %w", err)
	}

	if !ref.IsZero() {
		if err := ds.SetGeoTransform(ref.GeoTransform); err != nil {
			ds.Close()
			return fmt.Errorf("failed to set GeoTransform: %w", err)
		}
	}
	if ref.Projection != "" {
		if err := ds.SetProjection(ref.Projection); err != nil {
			ds.Close()
			return fmt.Errorf("failed to set projection: %w", err)
		}
	}

	band := ds.Bands()[0]
	if nodata >= 0 {
		if err := band.SetNoData(nodata); err != nil {
			ds.Close()
			return fmt.Errorf("failed to set nodata: %w", err)
		}
	}
	if err := band.Write(0, 0, b.Data, b.Cols, b.Rows); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write raster data: %w", err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to close TIFF file: %w", err)
	}
	return nil
}

// WriteMask stores a boolean layer as 0/1 uint8.
func WriteMask(path string, m *raster.Mask, ref raster.Georeference) error {
	return WriteBytes(path, m.Scale(1), ref, -1)
}

// Projector converts projected coordinates in place to WGS84 longitude and
// latitude. Close releases the GDAL transform.
type Projector struct {
	src, dst *godal.SpatialRef
	tr       *godal.Transform
}

func NewProjector(wkt string) (*Projector, error) {
	registerDrivers()
	src, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse projection: %w", err)
	}
	dst, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create WGS84 reference: %w", err)
	}
	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		src.Close()
		dst.Close()
		return nil, fmt.Errorf("failed to create transform: %w", err)
	}
	return &Projector{src: src, dst: dst, tr: tr}, nil
}

func (p *Projector) Project(xs, ys []float64) error {
	if err := p.tr.TransformEx(xs, ys, nil, nil); err != nil {
		return fmt.Errorf("transform error: %w", err)
	}
	return nil
}

func (p *Projector) Close() {
	p.tr.Close()
	p.dst.Close()
	p.src.Close()
}

// Writer exposes WriteMask and WriteBytes as methods for callers that take
// the writer as a dependency.
type Writer struct{}

func (Writer) WriteMask(path string, m *raster.Mask, ref raster.Georeference) error {
	return WriteMask(path, m, ref)
}

func (Writer) WriteBytes(path string, b *raster.Bytes, ref raster.Georeference, nodata float64) error {
	return WriteBytes(path, b, ref, nodata)
}
