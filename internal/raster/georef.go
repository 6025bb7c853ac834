package raster

// Georeference places a grid in a projected coordinate system. GeoTransform
// follows the GDAL affine convention:
//
//	x = gt[0] + col*gt[1] + row*gt[2]
//	y = gt[3] + col*gt[4] + row*gt[5]
type Georeference struct {
	GeoTransform [6]float64
	// Projection is the WKT of the coordinate system, empty when unknown.
	Projection string
}

// World returns the projected coordinates of the pixel corner (col, row).
func (g Georeference) World(col, row float64) (x, y float64) {
	gt := g.GeoTransform
	return gt[0] + col*gt[1] + row*gt[2], gt[3] + col*gt[4] + row*gt[5]
}

// Corners returns the four outer corners of a grid of shape s, clockwise from
// the upper left.
func (g Georeference) Corners(s Shape) [4][2]float64 {
	cols, rows := float64(s.Cols), float64(s.Rows)
	var out [4][2]float64
	for i, p := range [4][2]float64{{0, 0}, {cols, 0}, {cols, rows}, {0, rows}} {
		out[i][0], out[i][1] = g.World(p[0], p[1])
	}
	return out
}

// PixelArea is the area of one pixel in squared projection units.
func (g Georeference) PixelArea() float64 {
	gt := g.GeoTransform
	a := gt[1]*gt[5] - gt[2]*gt[4]
	if a < 0 {
		return -a
	}
	return a
}

func (g Georeference) IsZero() bool { return g.GeoTransform == [6]float64{} }
