package output

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Projector converts projected coordinates in place, typically to WGS84.
type Projector interface {
	Project(xs, ys []float64) error
}

// Footprint is the closed outline of a grid of shape s in the projection of
// ref.
func Footprint(ref raster.Georeference, s raster.Shape) orb.Polygon {
	corners := ref.Corners(s)
	ring := make(orb.Ring, 0, 5)
	for _, c := range corners {
		ring = append(ring, orb.Point{c[0], c[1]})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// CornerFootprint is the rectangle spanned by the product corners of an MTL
// file, for scenes whose rasters carry no geotransform.
func CornerFootprint(c landsat.Corners) orb.Polygon {
	return orb.Polygon{{
		{c.ULX, c.ULY}, {c.LRX, c.ULY}, {c.LRX, c.LRY}, {c.ULX, c.LRY}, {c.ULX, c.ULY},
	}}
}

// FootprintFeature builds a feature from the projected footprint poly with the
// report and its centroid as properties. area_m2 is measured in the product
// projection; the geometry is reprojected with p when p is not nil.
func FootprintFeature(r Report, poly orb.Polygon, p Projector) (*geojson.Feature, error) {
	area := math.Abs(planar.Area(poly))

	if p != nil {
		ring := poly[0]
		xs, ys := make([]float64, len(ring)), make([]float64, len(ring))
		for i, pt := range ring {
			xs[i], ys[i] = pt.X(), pt.Y()
		}
		if err := p.Project(xs, ys); err != nil {
			return nil, fmt.Errorf("failed to project footprint: %w", err)
		}
		projected := make(orb.Ring, len(ring))
		for i := range ring {
			projected[i] = orb.Point{xs[i], ys[i]}
		}
		poly = orb.Polygon{projected}
	}

	centroid, _ := planar.CentroidArea(poly)

	f := geojson.NewFeature(poly)
	f.Properties["centroid"] = []float64{centroid.X(), centroid.Y()}
	f.Properties["scene_id"] = r.SceneID
	f.Properties["sensor"] = r.Sensor
	f.Properties["acquired"] = r.Acquired
	f.Properties["area_m2"] = area
	f.Properties["cloud_fraction"] = r.CloudFraction
	f.Properties["shadow_fraction"] = r.ShadowFraction
	f.Properties["water_fraction"] = r.WaterFraction
	f.Properties["cloud_area_m2"] = r.CloudArea
	return f, nil
}

// WriteFootprint stores f as a one feature GeoJSON FeatureCollection.
func WriteFootprint(path string, f *geojson.Feature) error {
	fc := geojson.NewFeatureCollection()
	fc.Append(f)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create GeoJSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fc); err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	log.Infow("footprint written", "path", path)
	return nil
}
