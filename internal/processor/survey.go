// Package processor surveys a raw dataset and extracts the feature subset
// that the rest of the pipeline works on.
package processor

import (
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/topology"
)

// invalidSamples is how many invalid features keep their reason in the survey.
const invalidSamples = 5

// InvalidFeature is an invalid feature with its validity reason.
type InvalidFeature struct {
	Key    string
	Index  int
	Reason string
}

// Survey is a dataset overview taken before any subset is extracted.
type Survey struct {
	Features      int
	GeometryTypes map[string]int
	Properties    map[string]int // unique values per property

	Invalid        []int // indexes of invalid features
	InvalidSamples []InvalidFeature
	Unchecked      int // features whose validity could not be computed

	Empty      int
	Duplicated int
	SmallAreas int

	IntersectSample   int
	SelfIntersections int

	OverlapSample int
	Overlaps      []topology.Overlap
}

// Processor runs the survey and the subset extraction.
type Processor struct {
	check  config.Check
	subset config.Subset
	rng    *rand.Rand
}

// New creates a processor sampling with the check seed.
func New(check config.Check, subset config.Subset) *Processor {
	return &Processor{
		check:  check,
		subset: subset,
		rng:    topology.NewRand(check.Seed),
	}
}

// Survey collects dataset statistics.
func (p *Processor) Survey(fc *geojson.FeatureCollection) *Survey {
	s := &Survey{
		Features:      len(fc.Features),
		GeometryTypes: make(map[string]int),
		Properties:    uniqueProperties(fc.Features),
		Duplicated:    duplicatedGeometries(fc.Features),
	}

	for idx, f := range fc.Features {
		if f.Geometry == nil {
			s.Empty++
			continue
		}
		s.GeometryTypes[f.Geometry.GeoJSONType()]++

		if isEmpty(f.Geometry) {
			s.Empty++
		}
		if math.Abs(planar.Area(f.Geometry)) < p.check.SmallArea {
			s.SmallAreas++
		}

		reason, err := explain(f.Geometry)
		if err != nil {
			log.Debug().Err(err).Str("feature", geo.FeatureKey(f, idx)).Msg("Validity not checked")
			s.Unchecked++
			continue
		}
		if reason != topology.ValidReason {
			s.Invalid = append(s.Invalid, idx)
			if len(s.InvalidSamples) < invalidSamples {
				s.InvalidSamples = append(s.InvalidSamples, InvalidFeature{
					Key: geo.FeatureKey(f, idx), Index: idx, Reason: reason,
				})
			}
		}
	}

	sample := topology.SampleIndexes(p.rng, len(fc.Features), p.subset.IntersectSample)
	s.IntersectSample = len(sample)
	for _, idx := range sample {
		simple, err := topology.IsSimple(fc.Features[idx].Geometry)
		if err == nil && !simple {
			s.SelfIntersections++
		}
	}

	sample = topology.SampleIndexes(p.rng, len(fc.Features), p.subset.SurveyOverlapSample)
	s.OverlapSample = len(sample)
	s.Overlaps = topology.Overlaps(fc.Features, sample)

	return s
}

// explain turns a failure of a single geometry into an error so one feature
// cannot abort the survey.
func explain(g orb.Geometry) (reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("explain: %v", r)
		}
	}()
	return topology.Explain(g)
}

// Log writes the survey through the global logger.
func (s *Survey) Log() {
	log.Info().
		Int("features", s.Features).
		Interface("geometry_types", s.GeometryTypes).
		Msg("Dataset loaded")

	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		log.Info().Str("property", name).Int("unique", s.Properties[name]).Msg("Property statistics")
	}

	if len(s.Invalid) == 0 {
		log.Info().Msg("All geometries are valid")
	} else {
		log.Warn().Int("count", len(s.Invalid)).Msg("Found invalid geometries")
	}
	for _, inv := range s.InvalidSamples {
		log.Warn().Str("feature", inv.Key).Int("index", inv.Index).Str("reason", inv.Reason).Msg("Invalid geometry")
	}
	if s.Unchecked > 0 {
		log.Warn().Int("count", s.Unchecked).Msg("Geometries skipped by the validity check")
	}

	log.Info().
		Int("empty", s.Empty).
		Int("duplicated", s.Duplicated).
		Int("small_area", s.SmallAreas).
		Msg("Additional topological properties")

	log.Info().
		Int("found", s.SelfIntersections).
		Int("sampled", s.IntersectSample).
		Msg("Self-intersections in sample")

	for i, o := range s.Overlaps {
		if i == 5 {
			break
		}
		log.Info().Str("a", o.A).Str("b", o.B).Msg("Overlap between features")
	}
	log.Info().
		Int("found", len(s.Overlaps)).
		Int("sampled", s.OverlapSample).
		Msg("Overlapping geometries in sample")
}

func uniqueProperties(features []*geojson.Feature) map[string]int {
	seen := make(map[string]map[string]struct{})
	for _, f := range features {
		for k, v := range f.Properties {
			if v == nil {
				continue
			}
			if seen[k] == nil {
				seen[k] = make(map[string]struct{})
			}
			seen[k][fmt.Sprintf("%T:%v", v, v)] = struct{}{}
		}
	}

	out := make(map[string]int, len(seen))
	for k, values := range seen {
		out[k] = len(values)
	}
	return out
}

// duplicatedGeometries counts features whose geometry equals an earlier one.
func duplicatedGeometries(features []*geojson.Feature) int {
	byBound := make(map[orb.Bound][]orb.Geometry)
	dup := 0

	for _, f := range features {
		if f.Geometry == nil {
			continue
		}

		b := f.Geometry.Bound()
		found := false
		for _, g := range byBound[b] {
			if orb.Equal(g, f.Geometry) {
				found = true
				break
			}
		}

		if found {
			dup++
			continue
		}
		byBound[b] = append(byBound[b], f.Geometry)
	}

	return dup
}

func isEmpty(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		_, err := geo.Polygons(v)
		return err != nil
	case orb.Collection:
		return len(v) == 0
	case orb.MultiLineString:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiPoint:
		return len(v) == 0
	}
	return false
}
