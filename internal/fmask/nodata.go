package fmask

import (
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// NodataMask is the GDAL style 8-bit mask: 255 where the pixel is clear with a
// usable thermal value, 0 for cloud, shadow and NaN or zero thermal.
func NodataMask(cloud, shadow *raster.Mask, thermal *raster.Grid) (*raster.Bytes, error) {
	masked, err := raster.Or(cloud, shadow, raster.NaNOrZero(thermal))
	if err != nil {
		return nil, err
	}
	return masked.Not().Scale(255), nil
}
