package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/logger"
	"github.com/woozymasta/topoprobe/internal/simplify"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string  `short:"c" long:"config"    env:"CONFIG_FILE" description:"Path to configuration file, defaults are used if empty"`
	Input        string  `short:"i" long:"in"        description:"Collection to simplify (default: corrupted file)"`
	OutDir       string  `short:"o" long:"out-dir"   description:"Directory for simplified features"`
	Method       string  `short:"m" long:"method"    description:"Simplification method" choice:"stride" choice:"douglas-peucker"`
	TargetPoints int     `short:"t" long:"target"    description:"Target points per ring for the stride method"`
	Tolerance    float64 `long:"tolerance"           description:"Douglas-Peucker tolerance in coordinate units"`
	Features     int     `short:"n" long:"features"  description:"Number of leading features to simplify, negative for all"`
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

	input := cfg.Files.Corrupted
	if opts.Input != "" {
		input = opts.Input
	}
	if opts.OutDir != "" {
		cfg.Files.SimplifiedDir = opts.OutDir
	}
	if opts.Method != "" {
		cfg.Simplify.Method = opts.Method
	}
	if opts.TargetPoints > 0 {
		cfg.Simplify.TargetPoints = opts.TargetPoints
	}
	if opts.Tolerance > 0 {
		cfg.Simplify.Tolerance = opts.Tolerance
	}
	if opts.Features != 0 {
		cfg.Simplify.Features = opts.Features
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid options")
	}

	fc, err := geo.LoadFeatureCollection(input)
	if err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("Failed to load feature collection")
	}

	s := simplify.New(cfg.Simplify)

	n := len(fc.Features)
	if cfg.Simplify.Features >= 0 {
		n = min(n, cfg.Simplify.Features)
	}

	saved := 0
	for i, f := range fc.Features[:n] {
		key := geo.FeatureKey(f, i)

		out, err := s.Feature(f)
		if err != nil {
			log.Warn().Err(err).Str("feature", key).Msg("Skipping feature")
			continue
		}

		path := filepath.Join(cfg.Files.SimplifiedDir, fmt.Sprintf(cfg.Files.SimplifiedNames, key))
		if err := geo.SaveFeature(path, out); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to save simplified feature")
		}
		saved++

		log.Info().
			Str("feature", key).
			Str("method", cfg.Simplify.Method).
			Int("before", vertexCount(f.Geometry)).
			Int("after", vertexCount(out.Geometry)).
			Str("path", path).
			Msg("Simplified feature saved")
	}

	log.Info().Int("saved", saved).Str("dir", cfg.Files.SimplifiedDir).Msg("Simplification finished")
}

func vertexCount(g orb.Geometry) int {
	polys, err := geo.Polygons(g)
	if err != nil {
		return 0
	}

	n := 0
	for _, r := range geo.Rings(polys) {
		n += len(r)
	}
	return n
}
