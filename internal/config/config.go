// Package config handles configuration loading and shared parameters of the pipeline.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Files    Files    `yaml:"files" json:"files"`
	Check    Check    `yaml:"check" json:"check"`
	Subset   Subset   `yaml:"subset" json:"subset"`
	Inject   Inject   `yaml:"inject" json:"inject"`
	Simplify Simplify `yaml:"simplify" json:"simplify"`
}

// Files holds artifact paths, relative to the working directory.
type Files struct {
	Dataset         string `yaml:"dataset" json:"dataset"`
	Subset          string `yaml:"subset" json:"subset"`
	Corrupted       string `yaml:"corrupted" json:"corrupted"`
	SimplifiedDir   string `yaml:"simplified_dir" json:"simplified_dir"`
	Summary         string `yaml:"summary" json:"summary"`
	Preservation    string `yaml:"preservation" json:"preservation"`
	IntersectPlot   string `yaml:"intersect_plot" json:"intersect_plot"`
	ComparisonPlot  string `yaml:"comparison_plot" json:"comparison_plot"`
	HTMLReport      string `yaml:"html_report,omitempty" json:"html_report,omitempty"`
	SimplifiedNames string `yaml:"simplified_names" json:"simplified_names"` // fmt pattern, receives the feature key
}

// Check holds thresholds of the topology battery.
type Check struct {
	CloseVertexEpsilon float64 `yaml:"close_vertex_epsilon" json:"close_vertex_epsilon"`
	SmallArea          float64 `yaml:"small_area" json:"small_area"`
	MaxDecimals        int     `yaml:"max_decimals" json:"max_decimals"`
	PrecisionFeatures  int     `yaml:"precision_features" json:"precision_features"`
	PrecisionCoords    int     `yaml:"precision_coords" json:"precision_coords"`

	// OverlapSample caps the pairwise overlap scan; zero or negative scans everything.
	OverlapSample int    `yaml:"overlap_sample" json:"overlap_sample"`
	Seed          uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// Subset holds parameters of the subset extraction.
type Subset struct {
	MaxInvalid          int     `yaml:"max_invalid" json:"max_invalid"`
	Complex             int     `yaml:"complex" json:"complex"`
	NearbySample        int     `yaml:"nearby_sample" json:"nearby_sample"`
	NearbyDistance      float64 `yaml:"nearby_distance" json:"nearby_distance"`
	NearbyPairs         int     `yaml:"nearby_pairs" json:"nearby_pairs"`
	IntersectSample     int     `yaml:"intersect_sample" json:"intersect_sample"`
	SurveyOverlapSample int     `yaml:"survey_overlap_sample" json:"survey_overlap_sample"`
}

// Inject holds parameters of the corruption injector.
type Inject struct {
	MinVertices int `yaml:"min_vertices" json:"min_vertices"`
	Features    int `yaml:"features" json:"features"`
}

// Simplify holds parameters of the simplifier.
type Simplify struct {
	Method         string   `yaml:"method" json:"method"`
	TargetPoints   int      `yaml:"target_points" json:"target_points"`
	Tolerance      float64  `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	KeepProperties []string `yaml:"keep_properties" json:"keep_properties"`
	Features       int      `yaml:"features" json:"features"`
}

// Simplification methods.
const (
	MethodStride         = "stride"
	MethodDouglasPeucker = "douglas-peucker"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Files: Files{
			Dataset:         "dataset.json",
			Subset:          "subset_for_ai.json",
			Corrupted:       "subset_with_error.json",
			SimplifiedDir:   "Json",
			SimplifiedNames: "simplified_feature_%s.json",
			Summary:         "topology_summary.txt",
			Preservation:    "preservation_report.txt",
			IntersectPlot:   "self_intersection_visualization.png",
			ComparisonPlot:  "simplified_comparison.png",
		},
		Check: Check{
			CloseVertexEpsilon: 1e-8,
			SmallArea:          1e-10,
			MaxDecimals:        10,
			PrecisionFeatures:  5,
			PrecisionCoords:    5,
			OverlapSample:      20,
		},
		Subset: Subset{
			MaxInvalid:          10,
			Complex:             5,
			NearbySample:        50,
			NearbyDistance:      1e-4,
			NearbyPairs:         5,
			IntersectSample:     100,
			SurveyOverlapSample: 50,
		},
		Inject: Inject{
			MinVertices: 15,
			Features:    3,
		},
		Simplify: Simplify{
			Method:         MethodStride,
			TargetPoints:   15,
			KeepProperties: []string{"fclass"},
			Features:       3,
		},
	}
}

// Load reads the YAML configuration file over the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values the pipeline cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if c.Check.CloseVertexEpsilon <= 0 {
		errs = append(errs, errors.New("check.close_vertex_epsilon must be > 0"))
	}
	if c.Check.SmallArea < 0 {
		errs = append(errs, errors.New("check.small_area must be >= 0"))
	}
	if c.Inject.MinVertices < 4 {
		errs = append(errs, errors.New("inject.min_vertices must be >= 4"))
	}
	if c.Simplify.TargetPoints < 1 {
		errs = append(errs, errors.New("simplify.target_points must be >= 1"))
	}
	switch c.Simplify.Method {
	case MethodStride:
	case MethodDouglasPeucker:
		if c.Simplify.Tolerance <= 0 {
			errs = append(errs, errors.New("simplify.tolerance must be > 0 for douglas-peucker"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown simplify.method %q", c.Simplify.Method))
	}

	return errors.Join(errs...)
}
