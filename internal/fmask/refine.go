package fmask

import (
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Refine cleans the raw layers. Erosion strips speckle from the cloud layer,
// shadow is kept only within ShadowRadius pixels of the remaining cloud and is
// eroded as well, then both layers are dilated to buffer their edges. A zero
// window skips its stage, but the distance restriction always applies: with
// erosion off the distance is measured to the raw cloud layer.
func (f *Fmask) Refine(cloud, shadow *raster.Mask, minFilter, maxFilter raster.Window) (*raster.Mask, *raster.Mask) {
	if minFilter.Enabled() {
		cloud = raster.MinimumFilter(cloud, minFilter)
	}

	dist := raster.DistanceToNearest(cloud)
	near := dist.Test(func(d float64) bool { return d < f.k.ShadowRadius })
	restricted := raster.NewMask(shadow.Rows, shadow.Cols)
	for i := range restricted.Data {
		restricted.Data[i] = near.Data[i] && shadow.Data[i]
	}
	shadow = restricted

	if minFilter.Enabled() {
		shadow = raster.MinimumFilter(shadow, minFilter)
	}
	if maxFilter.Enabled() {
		cloud = raster.MaximumFilter(cloud, maxFilter)
		shadow = raster.MaximumFilter(shadow, maxFilter)
	}
	return cloud, shadow
}
