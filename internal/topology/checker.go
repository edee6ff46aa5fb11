// Package topology runs the battery of topological checks over polygon features:
// validity, simplicity, ring orientation, vertex spacing, area and pairwise overlap.
package topology

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
)

// Issue is the per-feature record of detected problems.
type Issue struct {
	Key   string
	Index int

	Invalid          bool
	SelfIntersecting bool
	Misoriented      bool
	Imprecise        bool
	SmallArea        bool

	Reason            string // validity reason
	OrientationIssues int
	OrientationNotes  []string
	CloseVertices     int
	DuplicateVertices int
	Area              float64

	Explanation []string
}

// HasIssues reports whether any of the four topology flags is set.
func (i Issue) HasIssues() bool {
	return i.Invalid || i.SelfIntersecting || i.Misoriented || i.Imprecise
}

// Skipped is a feature whose checks could not be computed.
type Skipped struct {
	Key   string
	Index int
	Err   error
}

// Totals are dataset-wide counters.
type Totals struct {
	Invalid           int
	SelfIntersections int
	OrientationIssues int
	CloseVertices     int
	DuplicateVertices int
	SmallGeometries   int
	Overlaps          int
}

// Report is the outcome of a Check run.
type Report struct {
	Features      int
	GeometryTypes map[string]int
	Issues        []Issue
	Skipped       []Skipped
	Totals        Totals
	Overlaps      []Overlap
	OverlapSample int
	PairsChecked  int
	Precision     PrecisionStats
}

// Issue returns the record for the feature key.
func (r *Report) Issue(key string) (Issue, bool) {
	for _, i := range r.Issues {
		if i.Key == key {
			return i, true
		}
	}
	return Issue{}, false
}

// Checker runs the battery with the configured thresholds.
type Checker struct {
	cfg config.Check
	rng *rand.Rand
}

// NewChecker creates a checker; a zero seed samples differently on each run.
func NewChecker(cfg config.Check) *Checker {
	return &Checker{cfg: cfg, rng: NewRand(cfg.Seed)}
}

// Check runs every check over the collection. Features that fail to compute
// are recorded as skipped and never abort the batch.
func (c *Checker) Check(fc *geojson.FeatureCollection) *Report {
	report := &Report{
		Features:      len(fc.Features),
		GeometryTypes: make(map[string]int),
	}

	cands := make([]candidate, 0, len(fc.Features))

	for idx, f := range fc.Features {
		key := geo.FeatureKey(f, idx)
		if f.Geometry != nil {
			report.GeometryTypes[f.Geometry.GeoJSONType()]++
		}

		issue, err := c.CheckFeature(f, idx)
		if err != nil {
			log.Warn().Err(err).Str("feature", key).Int("index", idx).Msg("Skipping feature")
			report.Skipped = append(report.Skipped, Skipped{Key: key, Index: idx, Err: err})
			continue
		}

		report.Issues = append(report.Issues, issue)
		report.Totals.add(issue)

		polys, _ := geo.Polygons(f.Geometry)
		cands = append(cands, candidate{key: key, index: idx, polys: polys, bound: f.Geometry.Bound()})
	}

	report.Overlaps, report.OverlapSample = c.sampledOverlaps(cands)
	report.PairsChecked = report.OverlapSample * (report.OverlapSample - 1) / 2
	report.Totals.Overlaps = len(report.Overlaps)

	report.Precision = CoordinatePrecision(fc.Features, c.cfg.PrecisionFeatures, c.cfg.PrecisionCoords, c.cfg.MaxDecimals)

	return report
}

// CheckFeature computes the issue record of a single feature.
func (c *Checker) CheckFeature(f *geojson.Feature, index int) (issue Issue, err error) {
	issue = Issue{Key: geo.FeatureKey(f, index), Index: index}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check feature %s: %v", issue.Key, r)
		}
	}()

	polys, err := geo.Polygons(f.Geometry)
	if err != nil {
		return issue, err
	}

	reason, err := Explain(f.Geometry)
	if err != nil {
		return issue, err
	}
	issue.Reason = reason
	if reason != ValidReason {
		issue.Invalid = true
		issue.Explanation = append(issue.Explanation, "invalid: "+reason)
	}

	for i, r := range geo.Rings(polys) {
		if p, found := RingSelfIntersection(r); found {
			issue.SelfIntersecting = true
			issue.Explanation = append(issue.Explanation,
				fmt.Sprintf("ring %d crosses itself at [%v %v]", i, p[0], p[1]))
			break
		}
	}

	_, multi := f.Geometry.(orb.MultiPolygon)
	notes := OrientationIssues(polys, multi)
	issue.OrientationIssues = len(notes)
	issue.OrientationNotes = notes
	issue.Misoriented = len(notes) > 0
	issue.Explanation = append(issue.Explanation, notes...)

	issue.CloseVertices, issue.DuplicateVertices = VertexSpacing(polys, c.cfg.CloseVertexEpsilon)
	if issue.CloseVertices > 0 {
		issue.Imprecise = true
		issue.Explanation = append(issue.Explanation,
			fmt.Sprintf("%d consecutive vertices closer than %g", issue.CloseVertices, c.cfg.CloseVertexEpsilon))
	}
	if issue.DuplicateVertices > 0 {
		issue.Explanation = append(issue.Explanation,
			fmt.Sprintf("%d duplicate consecutive vertices", issue.DuplicateVertices))
	}

	issue.Area = math.Abs(planar.Area(f.Geometry))
	if issue.Area < c.cfg.SmallArea {
		issue.SmallArea = true
		issue.Explanation = append(issue.Explanation, fmt.Sprintf("very small area %g", issue.Area))
	}

	return issue, nil
}

func (c *Checker) sampledOverlaps(cands []candidate) ([]Overlap, int) {
	picked := SampleIndexes(c.rng, len(cands), c.cfg.OverlapSample)

	sample := make([]candidate, len(picked))
	for i, p := range picked {
		sample[i] = cands[p]
	}

	return pairwiseOverlaps(sample), len(sample)
}

func (t *Totals) add(i Issue) {
	if i.Invalid {
		t.Invalid++
	}
	if i.SelfIntersecting {
		t.SelfIntersections++
	}
	if i.SmallArea {
		t.SmallGeometries++
	}
	t.OrientationIssues += i.OrientationIssues
	t.CloseVertices += i.CloseVertices
	t.DuplicateVertices += i.DuplicateVertices
}
