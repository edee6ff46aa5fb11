package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/woozymasta/topoprobe/internal/compare"
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

	ConfigFile    string `short:"c" long:"config"         env:"CONFIG_FILE" description:"Path to configuration file, defaults are used if empty"`
	Original      string `short:"i" long:"in"             description:"Original collection (default: corrupted file)"`
	SimplifiedDir string `short:"d" long:"simplified-dir" description:"Directory with simplified features"`
	Output        string `short:"o" long:"out"            description:"Preservation report path"`
	Plot          string `short:"p" long:"plot"           description:"Comparison figure (.png or .webp), empty keeps the configured path"`
	HTML          string `long:"html"                     description:"HTML report path, empty to skip"`
	NoPlot        bool   `long:"no-plot"                  description:"Skip the comparison figure"`
}

var errNotSimplified = errors.New("simplified feature not found")

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

	if opts.Original != "" {
		cfg.Files.Corrupted = opts.Original
	}
	if opts.SimplifiedDir != "" {
		cfg.Files.SimplifiedDir = opts.SimplifiedDir
	}
	if opts.Output != "" {
		cfg.Files.Preservation = opts.Output
	}
	if opts.Plot != "" {
		cfg.Files.ComparisonPlot = opts.Plot
	}

	original, err := geo.LoadFeatureCollection(cfg.Files.Corrupted)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Files.Corrupted).Msg("Failed to load original collection")
	}

	simplified, err := geo.LoadFeatures(cfg.Files.SimplifiedDir, cfg.Files.SimplifiedNames)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Files.SimplifiedDir).Msg("Failed to load simplified features")
	}

	before := make(map[string]bool, len(original.Features))
	var order []int
	for i, f := range original.Features {
		key := geo.FeatureKey(f, i)
		simple, err := topology.IsSimple(f.Geometry)
		if err != nil {
			log.Warn().Err(err).Str("feature", key).Msg("Error checking original feature")
			continue
		}
		before[key] = !simple
		order = append(order, i)
		log.Info().Str("feature", key).Bool("self_intersecting", !simple).Msg("Original feature checked")
	}

	after := make(map[string]bool, len(simplified))
	for key, f := range simplified {
		simple, err := topology.IsSimple(f.Geometry)
		if err != nil {
			log.Warn().Err(err).Str("feature", key).Msg("Error checking simplified feature")
			continue
		}
		after[key] = !simple
		log.Info().Str("feature", key).Bool("self_intersecting", !simple).Msg("Simplified feature checked")
	}

	res := compare.Compare(before, after)

	var table bytes.Buffer
	if err := res.WriteTable(&table); err != nil {
		log.Fatal().Err(err).Msg("Failed to render comparison")
	}
	if _, err := io.Copy(os.Stdout, bytes.NewReader(table.Bytes())); err != nil {
		log.Error().Err(err).Msg("Failed to print comparison")
	}
	if err := geo.WriteFile(cfg.Files.Preservation, table.Bytes()); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Files.Preservation).Msg("Failed to save preservation report")
	}

	log.Info().
		Int("preserved", res.Preserved).
		Int("intersecting", res.Intersecting).
		Float64("rate", res.Rate()).
		Bool("defined", res.Defined()).
		Strs("not_simplified", res.Missing).
		Msg("Preservation computed")

	var rows []report.ComparisonRow
	for _, idx := range order {
		key := geo.FeatureKey(original.Features[idx], idx)
		if !before[key] {
			continue
		}

		row := report.ComparisonRow{Key: key, Original: original.Features[idx].Geometry, Preserved: after[key]}
		if f, ok := simplified[key]; ok {
			row.Simplified = f.Geometry
		} else {
			row.Err = errNotSimplified
		}
		rows = append(rows, row)
	}

	plotOpts := report.DefaultPlotOptions()
	figure := report.ComparisonFigure(rows)

	if !opts.NoPlot {
		if len(figure) == 0 {
			log.Info().Msg("No self-intersecting features to visualize")
		} else {
			img, err := report.Render(figure, plotOpts)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to render figure")
			}
			if err := report.SaveImage(cfg.Files.ComparisonPlot, img, plotOpts); err != nil {
				log.Fatal().Err(err).Str("path", cfg.Files.ComparisonPlot).Msg("Failed to save figure")
			}
			log.Info().Str("path", cfg.Files.ComparisonPlot).Msg("Visualization saved")
		}
	}

	if opts.HTML != "" {
		var buf bytes.Buffer
		err := report.NewHTMLWriter(plotOpts).Write(&buf, report.Page{
			Title: "Simplification comparison: " + filepath.Base(cfg.Files.Corrupted),
			Table: table.String(),
			Rows:  figure,
		})
		if err == nil {
			err = geo.WriteFile(opts.HTML, buf.Bytes())
		}
		if err != nil {
			log.Fatal().Err(err).Str("path", opts.HTML).Msg("Failed to save HTML report")
		}
		log.Info().Str("path", opts.HTML).Msg("HTML report saved")
	}
}
