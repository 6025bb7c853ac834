package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/paulmach/orb"
	"github.com/schollz/progressbar/v3"

	"github.com/forest-guardian/landsat-fmask/internal/cache"
	"github.com/forest-guardian/landsat-fmask/internal/fmask"
	"github.com/forest-guardian/landsat-fmask/internal/landsat"
	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/mtl"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
	"github.com/forest-guardian/landsat-fmask/internal/scene"
	"github.com/forest-guardian/landsat-fmask/output"
)

// RasterWriter persists layers next to the scene products.
type RasterWriter interface {
	WriteMask(path string, m *raster.Mask, ref raster.Georeference) error
	WriteBytes(path string, b *raster.Bytes, ref raster.Georeference, nodata float64) error
}

// ProjectorFactory opens a projector from a WKT projection to WGS84.
type ProjectorFactory func(wkt string) (output.Projector, func(), error)

// Runner wires the scene loader, the classifier and the writers.
type Runner struct {
	Reader    scene.BandReader
	Writer    RasterWriter
	Projector ProjectorFactory
	Cache     cache.Service[output.Report]
	Workers   int
	// Silent hides the progress bar.
	Silent bool
}

type Request struct {
	SceneDir string
	OutDir   string
	Options  fmask.Options

	Quicklook bool
	// QuicklookStep keeps one pixel in QuicklookStep along each axis.
	QuicklookStep int
	Footprint     bool
	Report        bool
}

type Outcome struct {
	Report output.Report
	Files  []string
}

const stages = 4

func (r *Runner) bar(desc string) *progressbar.ProgressBar {
	if r.Silent {
		return progressbar.DefaultSilent(stages, desc)
	}
	return progressbar.Default(stages, desc)
}

// RunFmask masks one scene directory and writes the requested products into
// req.OutDir.
func (r *Runner) RunFmask(ctx context.Context, req Request) (*Outcome, error) {
	bar := r.bar("Masking scene")

	s, err := scene.Load(ctx, req.SceneDir, r.Reader, r.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	bar.Add(1)

	c, err := landsat.NewCalibrator(s.Image)
	if err != nil {
		return nil, err
	}
	calibrated, err := fmask.NewScene(c)
	if err != nil {
		return nil, err
	}
	bar.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := fmask.New(calibrated)
	res, diag, err := f.Run(req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to run fmask: %w", err)
	}
	snow := f.Snow()
	report := BuildReport(s.Metadata, calibrated, res, snow, diag, s.Georeference)
	bar.Add(1)
	log.Infow("scene masked",
		"scene", report.SceneID,
		"cloud", report.CloudPixels,
		"shadow", report.ShadowPixels,
		"water", report.WaterPixels,
		"land_threshold", float64(report.LandThreshold),
	)

	files, err := r.write(ctx, req, s, calibrated, res, snow, report)
	if err != nil {
		return nil, err
	}
	bar.Add(1)

	if r.Cache != nil {
		if err := r.Cache.Set(r.Cache.GenerateKey(cacheKey(report.SceneID, req.Options)...), report); err != nil {
			log.Warnw("failed to cache report", "scene", report.SceneID, "error", err)
		}
	}
	return &Outcome{Report: report, Files: files}, nil
}

func cacheKey(sceneID string, opts fmask.Options) []any {
	return []any{sceneID, opts.MinFilter.String(), opts.MaxFilter.String()}
}

type task struct {
	name string
	run  func(path string) error
}

func (r *Runner) write(ctx context.Context, req Request, s *scene.Scene, calibrated *fmask.Scene, res *fmask.Result, snow *raster.Mask, report output.Report) ([]string, error) {
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	ref := s.Georeference
	prefix := report.SceneID
	if prefix == "" {
		prefix = filepath.Base(req.SceneDir)
	}

	mask := func(m *raster.Mask) func(string) error {
		return func(path string) error { return r.Writer.WriteMask(path, m, ref) }
	}
	classes := res.Classes(calibrated.Valid, snow)

	tasks := []task{
		{"cloud.tif", mask(res.Cloud)},
		{"shadow.tif", mask(res.Shadow)},
		{"water.tif", mask(res.Water)},
		{"classes.tif", func(path string) error {
			return r.Writer.WriteBytes(path, classes, ref, float64(fmask.ClassNull))
		}},
		{"nodata.tif", func(path string) error {
			nodata, err := fmask.NodataMask(res.Cloud, res.Shadow, calibrated.Thermal)
			if err != nil {
				return err
			}
			return r.Writer.WriteBytes(path, nodata, ref, -1)
		}},
	}
	if m, ok := res.Output(); ok {
		tasks = append(tasks, task{"combined.tif", mask(m)})
	}
	if req.Quicklook {
		tasks = append(tasks, task{"quicklook.png", func(path string) error {
			return output.WriteQuicklook(path, classes, req.QuicklookStep)
		}})
	}
	if req.Footprint {
		tasks = append(tasks, task{"footprint.geojson", func(path string) error {
			return r.writeFootprint(path, report, ref, calibrated.Shape(), s.Metadata.Corners)
		}})
	}
	if req.Report {
		tasks = append(tasks, task{"report.csv", func(path string) error {
			return output.WriteReport(path, []output.Report{report})
		}})
	}

	log.Infof("writing %d products to %s", len(tasks), req.OutDir)
	var (
		mu      sync.Mutex
		written []string
		first   error
		once    sync.Once
	)
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	wp := workerpool.New(workers)
	for _, t := range tasks {
		path := filepath.Join(req.OutDir, prefix+"_"+t.name)
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				once.Do(func() { first = err })
				return
			}
			if err := t.run(path); err != nil {
				once.Do(func() { first = fmt.Errorf("failed to write %s: %w", t.name, err) })
				return
			}
			mu.Lock()
			written = append(written, path)
			mu.Unlock()
		})
	}
	wp.StopWait()

	if first != nil {
		return nil, first
	}
	sort.Strings(written)
	return written, nil
}

// sceneFootprint outlines the rasters when they are georeferenced and falls
// back to the MTL product corners otherwise.
func sceneFootprint(ref raster.Georeference, shape raster.Shape, corners landsat.Corners) (orb.Polygon, error) {
	if !ref.IsZero() {
		return output.Footprint(ref, shape), nil
	}
	if corners.Valid() {
		return output.CornerFootprint(corners), nil
	}
	return nil, fmt.Errorf("scene has neither a geotransform nor product corners")
}

func (r *Runner) writeFootprint(path string, report output.Report, ref raster.Georeference, shape raster.Shape, corners landsat.Corners) error {
	poly, err := sceneFootprint(ref, shape, corners)
	if err != nil {
		return err
	}
	var p output.Projector
	if r.Projector != nil && ref.Projection != "" {
		proj, closeFn, err := r.Projector(ref.Projection)
		if err != nil {
			return err
		}
		defer closeFn()
		p = proj
	}
	f, err := output.FootprintFeature(report, poly, p)
	if err != nil {
		return err
	}
	return output.WriteFootprint(path, f)
}

// Stats returns the cached report of the scene in dir for opts.
func (r *Runner) Stats(dir string, opts fmask.Options) (output.Report, error) {
	if r.Cache == nil {
		return output.Report{}, fmt.Errorf("no report cache configured")
	}
	path, err := mtl.Find(dir)
	if err != nil {
		return output.Report{}, err
	}
	doc, err := mtl.Open(path)
	if err != nil {
		return output.Report{}, err
	}
	id, ok := doc.Get("LANDSAT_SCENE_ID")
	if !ok {
		return output.Report{}, fmt.Errorf("%w: metadata has no LANDSAT_SCENE_ID", landsat.ErrConfiguration)
	}
	report, ok := r.Cache.Get(r.Cache.GenerateKey(cacheKey(id, opts)...))
	if !ok {
		return output.Report{}, fmt.Errorf("no cached report for %s with filters %s/%s, run mask first", id, opts.MinFilter, opts.MaxFilter)
	}
	return report, nil
}
