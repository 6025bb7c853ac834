package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forest-guardian/landsat-fmask/internal/cache"
	"github.com/forest-guardian/landsat-fmask/internal/delivery"
	"github.com/forest-guardian/landsat-fmask/internal/fmask"
	"github.com/forest-guardian/landsat-fmask/internal/geotiff"
	"github.com/forest-guardian/landsat-fmask/internal/log"
	"github.com/forest-guardian/landsat-fmask/internal/properties"
	"github.com/forest-guardian/landsat-fmask/internal/raster"
	"github.com/forest-guardian/landsat-fmask/output"
)

func printBanner() {
	figure1 := figure.NewFigure("Fmask", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	fmt.Println()
}

type filterFlags struct {
	min, max string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.min, "min-filter", "3x3", "erosion window, RxC or off")
	cmd.Flags().StringVar(&f.max, "max-filter", "10x10", "dilation window, RxC or off")
}

func (f *filterFlags) options() (fmask.Options, error) {
	opts := fmask.Options{}
	var err error
	if opts.MinFilter, err = raster.ParseWindow(f.min); err != nil {
		return opts, fmt.Errorf("invalid --min-filter: %w", err)
	}
	if opts.MaxFilter, err = raster.ParseWindow(f.max); err != nil {
		return opts, fmt.Errorf("invalid --max-filter: %w", err)
	}
	return opts, nil
}

func newRunner(silent bool) *delivery.Runner {
	return &delivery.Runner{
		Reader: geotiff.NewReader(),
		Writer: geotiff.Writer{},
		Projector: func(wkt string) (output.Projector, func(), error) {
			p, err := geotiff.NewProjector(wkt)
			if err != nil {
				return nil, nil, err
			}
			return p, p.Close, nil
		},
		Cache:   cache.NewFileCache[output.Report](properties.CachePath()),
		Workers: properties.Workers(),
		Silent:  silent,
	}
}

func maskCommand() *cobra.Command {
	var (
		filters       filterFlags
		combined      bool
		cloudShadow   bool
		outDir        string
		quicklook     bool
		quicklookStep int
		footprint     bool
		report        bool
		quiet         bool
	)
	cmd := &cobra.Command{
		Use:   "mask <scene-dir>",
		Short: "Compute cloud, shadow and water masks of a Landsat scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := filters.options()
			if err != nil {
				return err
			}
			opts.Combined = combined
			opts.CloudAndShadow = cloudShadow

			dir := args[0]
			if outDir == "" {
				outDir = filepath.Join(properties.OutputPath(), filepath.Base(filepath.Clean(dir)))
			}

			outcome, err := newRunner(quiet).RunFmask(cmd.Context(), delivery.Request{
				SceneDir:      dir,
				OutDir:        outDir,
				Options:       opts,
				Quicklook:     quicklook,
				QuicklookStep: quicklookStep,
				Footprint:     footprint,
				Report:        report,
			})
			if err != nil {
				return err
			}

			bannercolor.Green("\nScene %s masked: %.1f%% cloud, %.1f%% shadow, %.1f%% water",
				outcome.Report.SceneID,
				100*outcome.Report.CloudFraction,
				100*outcome.Report.ShadowFraction,
				100*outcome.Report.WaterFraction)
			for _, f := range outcome.Files {
				fmt.Println(" -", f)
			}
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&combined, "combined", false, "also write cloud | shadow | water as one mask")
	cmd.Flags().BoolVar(&cloudShadow, "cloud-and-shadow", false, "also write cloud | shadow as one mask")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default $FMASK_OUTPUT_PATH/<scene>)")
	cmd.Flags().BoolVar(&quicklook, "quicklook", false, "write a PNG of the classes")
	cmd.Flags().IntVar(&quicklookStep, "quicklook-step", 4, "keep one quicklook pixel out of this many per axis")
	cmd.Flags().BoolVar(&footprint, "footprint", false, "write the scene footprint as GeoJSON")
	cmd.Flags().BoolVar(&report, "report", true, "write the scene statistics as CSV")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func statsCommand() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "stats <scene-dir>",
		Short: "Print the cached statistics of a masked scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := filters.options()
			if err != nil {
				return err
			}
			r, err := newRunner(true).Stats(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Printf("scene            %s (%s, %s)\n", r.SceneID, r.Sensor, r.Acquired)
			fmt.Printf("size             %d x %d, %d valid\n", r.Rows, r.Cols, r.ValidPixels)
			fmt.Printf("cloud            %d (%.2f%%, %.0f m2)\n", r.CloudPixels, 100*r.CloudFraction, r.CloudArea)
			fmt.Printf("shadow           %d (%.2f%%)\n", r.ShadowPixels, 100*r.ShadowFraction)
			fmt.Printf("water            %d (%.2f%%)\n", r.WaterPixels, 100*r.WaterFraction)
			fmt.Printf("snow             %d (%.2f%%)\n", r.SnowPixels, 100*r.SnowFraction)
			fmt.Printf("water temp       %.2f C\n", float64(r.WaterTemperature))
			fmt.Printf("land temp        %.2f .. %.2f C\n", float64(r.LandLow), float64(r.LandHigh))
			fmt.Printf("land threshold   %.4f\n", float64(r.LandThreshold))
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}

func main() {
	// a missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	debug := properties.Debug()
	root := &cobra.Command{
		Use:           "fmask",
		Short:         "Cloud, cloud shadow and water masking for Landsat 5, 7 and 8",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			printBanner()
			return log.Init(debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) { log.Sync() },
	}
	root.PersistentFlags().BoolVar(&debug, "debug", debug, "verbose logging (FMASK_DEBUG)")
	root.AddCommand(maskCommand(), statsCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Errorw("command failed", "error", err)
		log.Sync()
		bannercolor.Red("Error: %s", err)
		stop()
		os.Exit(1)
	}
}
