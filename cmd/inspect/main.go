package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/logger"
	"github.com/woozymasta/topoprobe/internal/report"
	"github.com/woozymasta/topoprobe/internal/topology"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile    string `short:"c" long:"config"         env:"CONFIG_FILE"    description:"Path to configuration file, defaults are used if empty"`
	Input         string `short:"i" long:"in"             env:"INPUT"          description:"Feature collection to inspect (default: subset file)"`
	Output        string `short:"o" long:"out"            description:"Summary output path"`
	Plot          string `short:"p" long:"plot"           description:"Self-intersection figure (.png or .webp), empty keeps the configured path"`
	HTML          string `long:"html"                     description:"HTML report path, empty keeps the configured path"`
	NoPlot        bool   `long:"no-plot"                  description:"Skip the self-intersection figure"`
	OverlapSample int    `short:"n" long:"overlap-sample" env:"OVERLAP_SAMPLE" description:"Features sampled for pairwise overlap, 0 keeps the configured value, negative checks all"`
	Seed          uint64 `short:"s" long:"seed"           env:"SEED"           description:"Sampling seed, random if zero"`
	Quiet         bool   `short:"q" long:"quiet"          description:"Do not print the summary to stdout"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	input := cfg.Files.Subset
	if opts.Input != "" {
		input = opts.Input
	}
	if opts.Output != "" {
		cfg.Files.Summary = opts.Output
	}
	if opts.Plot != "" {
		cfg.Files.IntersectPlot = opts.Plot
	}
	if opts.HTML != "" {
		cfg.Files.HTMLReport = opts.HTML
	}
	if opts.OverlapSample != 0 {
		cfg.Check.OverlapSample = opts.OverlapSample
	}
	if opts.Seed != 0 {
		cfg.Check.Seed = opts.Seed
	}

	fc, err := geo.LoadFeatureCollection(input)
	if err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("Failed to load feature collection")
	}

	log.Info().Str("path", input).Int("features", len(fc.Features)).Msg("Analyzing features")

	rep := topology.NewChecker(cfg.Check).Check(fc)

	var summary bytes.Buffer
	if err := report.WriteSummary(&summary, rep, report.SummaryOptions{SmallArea: cfg.Check.SmallArea}); err != nil {
		log.Fatal().Err(err).Msg("Failed to render summary")
	}
	if !opts.Quiet {
		if _, err := io.Copy(os.Stdout, bytes.NewReader(summary.Bytes())); err != nil {
			log.Error().Err(err).Msg("Failed to print summary")
		}
	}
	if err := geo.WriteFile(cfg.Files.Summary, summary.Bytes()); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Files.Summary).Msg("Failed to save summary")
	}
	log.Info().Str("path", cfg.Files.Summary).Msg("Summary saved")

	for _, i := range rep.Issues {
		if i.HasIssues() {
			log.Debug().Str("feature", i.Key).Strs("issues", i.Explanation).Msg("Feature issues")
		}
	}

	var intersecting []*geojson.Feature
	var keys []string
	for _, i := range rep.Issues {
		if i.SelfIntersecting {
			intersecting = append(intersecting, fc.Features[i.Index])
			keys = append(keys, i.Key)
		}
	}
	log.Info().Int("count", len(intersecting)).Msg("Features with self-intersections")

	plotOpts := report.DefaultPlotOptions()
	rows := report.IntersectionFigure(intersecting, keys)

	if !opts.NoPlot && cfg.Files.IntersectPlot != "" {
		if len(rows) == 0 {
			log.Info().Msg("No self-intersecting features to visualize")
		} else {
			img, err := report.Render(rows, plotOpts)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to render figure")
			}
			if err := report.SaveImage(cfg.Files.IntersectPlot, img, plotOpts); err != nil {
				log.Fatal().Err(err).Str("path", cfg.Files.IntersectPlot).Msg("Failed to save figure")
			}
			log.Info().Str("path", cfg.Files.IntersectPlot).Msg("Visualization saved")
		}
	}

	if cfg.Files.HTMLReport != "" {
		if err := saveHTML(cfg.Files.HTMLReport, plotOpts, report.Page{
			Title:   "Topology report: " + filepath.Base(input),
			Summary: summary.String(),
			Rows:    rows,
		}); err != nil {
			log.Fatal().Err(err).Str("path", cfg.Files.HTMLReport).Msg("Failed to save HTML report")
		}
		log.Info().Str("path", cfg.Files.HTMLReport).Msg("HTML report saved")
	}
}

func saveHTML(path string, opts report.PlotOptions, p report.Page) error {
	var buf bytes.Buffer
	if err := report.NewHTMLWriter(opts).Write(&buf, p); err != nil {
		return err
	}
	return geo.WriteFile(path, buf.Bytes())
}
