package main

import (
	"os"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/logger"
	"github.com/woozymasta/topoprobe/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"  env:"CONFIG_FILE" description:"Path to configuration file, defaults are used if empty"`
	Input      string `short:"i" long:"in"      env:"DATASET"     description:"Source dataset (GeoJSON FeatureCollection)"`
	Output     string `short:"o" long:"out"     description:"Subset output path"`
	Seed       uint64 `short:"s" long:"seed"    env:"SEED"        description:"Sampling seed, random if zero"`
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
		cfg.Files.Dataset = opts.Input
	}
	if opts.Output != "" {
		cfg.Files.Subset = opts.Output
	}
	if opts.Seed != 0 {
		cfg.Check.Seed = opts.Seed
	}

	log.Info().Str("path", cfg.Files.Dataset).Msg("Loading dataset")

	fc, err := geo.LoadFeatureCollection(cfg.Files.Dataset)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Files.Dataset).Msg("Failed to load dataset")
	}

	p := processor.New(cfg.Check, cfg.Subset)

	survey := p.Survey(fc)
	survey.Log()

	subset, sel := p.Subset(fc, survey)
	if err := geo.SaveFeatureCollection(cfg.Files.Subset, subset); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Files.Subset).Msg("Failed to save subset")
	}

	log.Info().
		Str("path", cfg.Files.Subset).
		Str("mode", sel.Mode).
		Ints("indexes", sel.Indexes).
		Msg("Saved subset")
}
