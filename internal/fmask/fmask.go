// Package fmask detects cloud, cloud shadow, water and snow in calibrated
// Landsat scenes with the Fmask tests of Zhu & Woodcock (2012) and Zhu, Wang &
// Woodcock (2015).
//
// The classifier works on whole-scene in-memory arrays and never performs I/O.
// Arithmetic runs at the Scene's Precision: Landsat 8 scenes are classified in
// float32, thresholds included.
// Every method is a pure function of the Scene and the Constants table: calling
// it twice yields identical arrays.
//
// Shadow detection uses a plain NIR/SWIR1 darkness test restricted to the
// neighbourhood of clouds instead of the published flood-fill projection.
// Snow is computed but never folded into the cloud, shadow or water layers.
package fmask

import (
	"github.com/forest-guardian/landsat-fmask/internal/raster"
)

// Class codes of a single-band classification raster.
const (
	ClassNull uint8 = iota
	ClassClear
	ClassCloud
	ClassShadow
	ClassSnow
	ClassWater
)

var classNames = [...]string{"null", "clear", "cloud", "shadow", "snow", "water"}

// ClassName returns the lower case name of a class code, "unknown" past water.
func ClassName(c uint8) string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

type Fmask struct {
	s   *Scene
	rev Constants
	// k is rev at the scene precision
	k Constants
	r func(float64) float64
}

// New classifies s with the Zhu2015 constants.
func New(s *Scene) *Fmask { return NewWithConstants(s, Zhu2015) }

func NewWithConstants(s *Scene, k Constants) *Fmask {
	return &Fmask{s: s, rev: k, k: k.at(s.Precision), r: s.Precision.Round}
}

func (f *Fmask) Scene() *Scene { return f.s }

func (f *Fmask) Constants() Constants { return f.rev }

// Options selects the refinement windows and the shape of the result.
type Options struct {
	// MinFilter erodes cloud and shadow; the zero window skips erosion.
	MinFilter raster.Window
	// MaxFilter dilates cloud and shadow; the zero window skips dilation.
	MaxFilter raster.Window
	// Combined requests cloud | shadow | water as a single mask.
	Combined bool
	// CloudAndShadow requests cloud | shadow. Combined wins if both are set.
	CloudAndShadow bool
}

// DefaultOptions erodes with 3x3 and dilates with 10x10.
func DefaultOptions() Options {
	return Options{
		MinFilter: raster.Window{Rows: 3, Cols: 3},
		MaxFilter: raster.Window{Rows: 10, Cols: 10},
	}
}

// Result holds the refined layers. Combined is nil unless Options asked for a
// single mask.
type Result struct {
	Cloud, Shadow, Water *raster.Mask
	Combined             *raster.Mask
}

// Output returns the single requested mask, if any.
func (r *Result) Output() (*raster.Mask, bool) {
	return r.Combined, r.Combined != nil
}

// Classes encodes the layers into one class raster. Invalid cells are
// ClassNull; otherwise cloud wins over shadow, shadow over snow, snow over
// water. snow may be nil.
func (r *Result) Classes(valid, snow *raster.Mask) *raster.Bytes {
	out := &raster.Bytes{Rows: r.Cloud.Rows, Cols: r.Cloud.Cols, Data: make([]uint8, len(r.Cloud.Data))}
	for i := range out.Data {
		switch {
		case valid != nil && !valid.Data[i]:
			out.Data[i] = ClassNull
		case r.Cloud.Data[i]:
			out.Data[i] = ClassCloud
		case r.Shadow.Data[i]:
			out.Data[i] = ClassShadow
		case snow != nil && snow.Data[i]:
			out.Data[i] = ClassSnow
		case r.Water.Data[i]:
			out.Data[i] = ClassWater
		default:
			out.Data[i] = ClassClear
		}
	}
	return out
}

// CloudMask runs the full classification and refinement.
func (f *Fmask) CloudMask(opts Options) (*Result, error) {
	res, _, err := f.Run(opts)
	return res, err
}

// Run is CloudMask that also hands back the diagnostics the layers were
// derived from.
func (f *Fmask) Run(opts Options) (*Result, *Diagnostics, error) {
	d, err := f.Diagnostics()
	if err != nil {
		return nil, nil, err
	}

	cloud := f.PotentialCloudLayer(d.PCP, d.Water, d.LandLow, d.LandCloudProbability, d.LandThreshold, d.WaterCloudProbability)
	shadow := f.PotentialShadowLayer(d.Water)
	cloud, shadow = f.Refine(cloud, shadow, opts.MinFilter, opts.MaxFilter)

	res := &Result{Cloud: cloud, Shadow: shadow, Water: d.Water}
	switch {
	case opts.Combined:
		res.Combined, err = raster.Or(cloud, shadow, d.Water)
	case opts.CloudAndShadow:
		res.Combined, err = raster.Or(cloud, shadow)
	}
	if err != nil {
		return nil, nil, err
	}
	return res, d, nil
}

// Snow is the potential snow layer.
func (f *Fmask) Snow() *raster.Mask { return f.PotentialSnowLayer() }

func (f *Fmask) shape() raster.Shape { return f.s.Shape() }

func (f *Fmask) test(pred func(i int) bool) *raster.Mask {
	sh := f.shape()
	out := raster.NewMask(sh.Rows, sh.Cols)
	for i := range out.Data {
		out.Data[i] = pred(i)
	}
	return out
}

func (f *Fmask) surface(fn func(i int) float64) *raster.Grid {
	sh := f.shape()
	out := raster.NewGrid(sh.Rows, sh.Cols)
	for i := range out.Data {
		out.Data[i] = fn(i)
	}
	return out
}
