package landsat

import (
	"fmt"

	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Image is one scene's raw digital numbers keyed by band.
type Image struct {
	Metadata Metadata
	shape    raster.Shape
	dn       map[Band]*raster.Grid
	valid    *raster.Mask
}

// NewImage checks that every band shares one shape and that band 1 is present,
// since the validity mask is DN(B1) > 0.
func NewImage(meta Metadata, dn map[Band]*raster.Grid) (*Image, error) {
	first, ok := dn[B1]
	if !ok {
		return nil, fmt.Errorf("%w: band %s is required to derive the valid data mask", ErrConfiguration, B1)
	}
	for b, g := range dn {
		if g.Shape() != first.Shape() {
			return nil, fmt.Errorf("band %s is %s, band %s is %s: %w", b, g.Shape(), B1, first.Shape(), raster.ErrShape)
		}
	}
	return &Image{
		Metadata: meta,
		shape:    first.Shape(),
		dn:       dn,
		valid:    first.Test(func(v float64) bool { return v > 0 }),
	}, nil
}

func (im *Image) Shape() raster.Shape { return im.shape }

// DN returns the raw grid of b.
func (im *Image) DN(b Band) (*raster.Grid, error) {
	g, ok := im.dn[b]
	if !ok {
		return nil, fmt.Errorf("%w: band %s was not loaded", ErrConfiguration, b)
	}
	return g, nil
}

// Valid is true where band 1 holds data.
func (im *Image) Valid() *raster.Mask { return im.valid }

func (im *Image) Bands() []Band {
	out := make([]Band, 0, len(im.dn))
	for b := range im.dn {
		out = append(out, b)
	}
	return out
}
