package output

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/forest-guardian/landsat-fmask/internal/fmask"
	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/properties"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Quicklook renders a class raster with properties.ColorMap, keeping every
// step-th pixel in each direction.
func Quicklook(classes *raster.Bytes, step int) image.Image {
	if step < 1 {
		step = 1
	}
	width := (classes.Cols + step - 1) / step
	height := (classes.Rows + step - 1) / step

	dc := gg.NewContext(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			code := classes.Data[y*step*classes.Cols+x*step]
			c, ok := properties.ColorMap[fmask.ClassName(code)]
			if !ok {
				c = properties.Color{R: 255}
			}
			dc.SetRGB255(int(c.R), int(c.G), int(c.B))
			dc.SetPixel(x, y)
		}
	}
	return dc.Image()
}

// WriteQuicklook saves the Quicklook of classes as a PNG.
func WriteQuicklook(path string, classes *raster.Bytes, step int) error {
	if err := gg.SavePNG(path, Quicklook(classes, step)); err != nil {
		return fmt.Errorf("failed to save quicklook: %w", err)
	}
	log.Infow("quicklook written", "path", path)
	return nil
}
