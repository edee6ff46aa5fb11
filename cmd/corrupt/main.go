package main

import (
	"os"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/inject"
	"github.com/woozymasta/topoprobe/internal/logger"
	"github.com/woozymasta/topoprobe/internal/topology"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE" description:"Path to configuration file, defaults are used if empty"`
	Input      string `short:"i" long:"in"       description:"Clean subset path"`
	Output     string `short:"o" long:"out"      description:"Corrupted collection path"`
	Features   int    `short:"n" long:"features" description:"Number of leading features to corrupt, 0 keeps the configured value"`
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

	if opts.Input != "" {
		cfg.Files.Subset = opts.Input
	}
	if opts.Output != "" {
		cfg.Files.Corrupted = opts.Output
	}
	if opts.Features > 0 {
		cfg.Inject.Features = opts.Features
	}

	fc, err := geo.LoadFeatureCollection(cfg.Files.Subset)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Files.Subset).Msg("Failed to load subset")
	}

	out, results := inject.New(cfg.Inject, cfg.Simplify).Collection(fc, cfg.Inject.Features)

	// confirm the fixture before saving it
	for _, res := range results {
		simple, err := topology.IsSimple(out.Features[res.Index].Geometry)
		switch {
		case err != nil:
			log.Error().Err(err).Str("feature", res.Key).Msg("Could not verify corrupted feature")
		case simple:
			log.Warn().Str("feature", res.Key).Str("strategy", res.Strategy.String()).Msg("Feature is still simple after corruption")
		default:
			log.Info().Str("feature", res.Key).Msg("Self-intersection verified")
		}
	}

	if err := geo.SaveFeatureCollection(cfg.Files.Corrupted, out); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Files.Corrupted).Msg("Failed to save corrupted collection")
	}

	log.Info().
		Str("path", cfg.Files.Corrupted).
		Int("corrupted", len(results)).
		Int("features", len(out.Features)).
		Msg("Saved collection with self-intersections")
}
