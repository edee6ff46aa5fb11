package topology

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
)

// clockwise 10x10 square
func shell() orb.Ring {
	return orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
}

// counter-clockwise 2x2 square inside shell
func hole() orb.Ring {
	return orb.Ring{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}
}

func square(x, y, size float64) orb.Ring {
	return orb.Ring{{x, y}, {x, y + size}, {x + size, y + size}, {x + size, y}, {x, y}}
}

func reversed(r orb.Ring) orb.Ring {
	c := slices.Clone(r)
	c.Reverse()
	return c
}

func TestOrientationIssues(t *testing.T) {
	poly := orb.Polygon{shell(), hole()}
	assert.Empty(t, OrientationIssues([]orb.Polygon{poly}, false))

	notes := OrientationIssues([]orb.Polygon{{reversed(shell()), hole()}}, false)
	assert.Equal(t, []string{"exterior ring is counter-clockwise"}, notes)

	notes = OrientationIssues([]orb.Polygon{{shell(), reversed(hole())}}, false)
	assert.Equal(t, []string{"hole 0 is clockwise"}, notes)

	notes = OrientationIssues([]orb.Polygon{poly, {reversed(shell()), reversed(hole())}}, true)
	assert.Equal(t, []string{"part 1: exterior ring is counter-clockwise", "part 1: hole 0 is clockwise"}, notes)

	// zero-area rings have no winding: counted for holes, never for exteriors
	flat := orb.Ring{{2, 2}, {4, 4}, {3, 3}, {2, 2}}
	notes = OrientationIssues([]orb.Polygon{{shell(), flat}}, false)
	assert.Equal(t, []string{"hole 0 has no orientation"}, notes)
	assert.Empty(t, OrientationIssues([]orb.Polygon{{flat}}, false))
}

func TestRingSelfIntersection(t *testing.T) {
	_, found := RingSelfIntersection(shell())
	assert.False(t, found)

	bowtie := orb.Ring{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}
	p, found := RingSelfIntersection(bowtie)
	require.True(t, found)
	assert.InDelta(t, 1.0, p[0], 1e-12)
	assert.InDelta(t, 1.0, p[1], 1e-12)

	// consecutive duplicates are not a crossing
	dup := orb.Ring{{0, 0}, {0, 10}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	_, found = RingSelfIntersection(dup)
	assert.False(t, found)

	// spike folding back on the previous edge
	spike := orb.Ring{{0, 0}, {0, 10}, {0, 5}, {10, 10}, {10, 0}, {0, 0}}
	_, found = RingSelfIntersection(spike)
	assert.True(t, found)

	// ring touching itself in a vertex
	touch := orb.Ring{{0, 0}, {0, 4}, {2, 2}, {4, 4}, {4, 0}, {2, 2}, {0, 0}}
	_, found = RingSelfIntersection(touch)
	assert.True(t, found)
}

func TestIsSimple(t *testing.T) {
	simple, err := IsSimple(orb.Polygon{shell(), hole()})
	require.NoError(t, err)
	assert.True(t, simple)

	simple, err = IsSimple(orb.MultiPolygon{{shell()}, {{{20, 0}, {22, 2}, {22, 0}, {20, 2}, {20, 0}}}})
	require.NoError(t, err)
	assert.False(t, simple)

	_, err = IsSimple(orb.Point{1, 1})
	assert.ErrorIs(t, err, geo.ErrUnsupportedGeometry)
}

func TestExplain(t *testing.T) {
	diamond := orb.Ring{{5, 0}, {10, 5}, {5, 10}, {0, 5}, {5, 0}}

	tests := []struct {
		name string
		geom orb.Geometry
		want string
	}{
		{"valid", orb.Polygon{shell(), hole()}, ValidReason},
		{"bowtie", orb.Polygon{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}, "Self-intersection[1 1]"},
		{"too few points", orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}, "Too few points in geometry component[0 0]"},
		{"not closed", orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}}}, "Ring is not closed[0 0]"},
		{"invalid coordinate", orb.Polygon{{{0, 0}, {0, math.NaN()}, {1, 1}, {0, 0}}}, "Invalid Coordinate[0 NaN]"},
		{"hole outside", orb.Polygon{shell(), {{20, 20}, {22, 20}, {22, 22}, {20, 22}, {20, 20}}}, "Hole lies outside shell"},
		{"nested holes", orb.Polygon{shell(), {{1, 1}, {8, 1}, {8, 8}, {1, 8}, {1, 1}}, hole()}, "Holes are nested"},
		{"hole splits interior", orb.Polygon{shell(), diamond}, "Interior is disconnected"},
		{"overlapping parts", orb.MultiPolygon{{square(0, 0, 4)}, {square(2, 2, 4)}}, "Self-intersection"},
		{"disjoint parts", orb.MultiPolygon{{square(0, 0, 4)}, {square(10, 10, 4)}}, ValidReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Explain(tt.geom)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(got, tt.want), "got %q, want prefix %q", got, tt.want)
		})
	}

	valid, err := IsValid(orb.Polygon{shell(), diamond})
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = Explain(orb.Polygon{shell(), {}})
	assert.ErrorIs(t, err, geo.ErrEmptyGeometry)
}

func TestInteriorsIntersect(t *testing.T) {
	a := []orb.Polygon{{square(0, 0, 4)}}

	assert.True(t, InteriorsIntersect(a, []orb.Polygon{{square(2, 2, 4)}}), "crossing squares")
	assert.True(t, InteriorsIntersect(a, []orb.Polygon{{square(1, 1, 1)}}), "contained square")
	assert.True(t, InteriorsIntersect(a, []orb.Polygon{{square(0, 0, 4)}}), "identical squares")
	assert.False(t, InteriorsIntersect(a, []orb.Polygon{{square(4, 0, 4)}}), "shared edge only touches")
	assert.False(t, InteriorsIntersect(a, []orb.Polygon{{square(4, 4, 4)}}), "shared corner only touches")
	assert.False(t, InteriorsIntersect(a, []orb.Polygon{{square(10, 10, 1)}}), "disjoint")

	// square sitting in the hole of a donut does not overlap it
	donut := []orb.Polygon{{shell(), hole()}}
	assert.False(t, InteriorsIntersect(donut, []orb.Polygon{{square(2.5, 2.5, 1)}}))
}

func TestVertexSpacing(t *testing.T) {
	r := orb.Ring{{0, 0}, {0, 1}, {0, 1}, {1, 1}, {1, 1 + 1e-9}, {1, 0}, {0, 0}}
	near, dup := VertexSpacing([]orb.Polygon{{r}}, 1e-8)
	assert.Equal(t, 1, near)
	assert.Equal(t, 1, dup)
}

func TestCoordinatePrecision(t *testing.T) {
	f := geojson.NewFeature(orb.Polygon{{{0.123, 1.5}, {0.12345678901234, 1}, {1, 1}, {0.123, 1.5}}})
	stats := CoordinatePrecision([]*geojson.Feature{f}, 5, 5, 10)
	assert.Equal(t, 14, stats.Max)
	assert.True(t, stats.Warning)
	// integral values count as one decimal place
	assert.Equal(t, 8, stats.Samples)
	assert.InDelta(t, 3.125, stats.Average, 1e-12)
}

func TestDecimals(t *testing.T) {
	tests := []struct {
		v    float64
		want int
	}{
		{0, 1},
		{1, 1},
		{-42, 1},
		{1.5, 1},
		{0.123, 3},
		{0.0001, 4},
		{1.5e-05, 5},
		{1e-05, 0},
		{1e16, 0},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, decimals(tt.v), "decimals(%v)", tt.v)
	}
}

func testCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	add := func(id string, g orb.Geometry) {
		f := geojson.NewFeature(g)
		f.ID = id
		fc.Append(f)
	}

	add("clean", orb.MultiPolygon{{shell(), hole()}})
	add("bowtie", orb.Polygon{{{20, 0}, {22, 2}, {22, 0}, {20, 2}, {20, 0}}})
	add("ccw", orb.Polygon{reversed(square(30, 0, 2))})
	add("tiny", orb.Polygon{square(40, 0, 1e-6)})
	add("overlap", orb.Polygon{square(8, 8, 4)})
	add("point", orb.Point{1, 1})

	return fc
}

func TestCheckerCheck(t *testing.T) {
	cfg := config.Default().Check
	cfg.OverlapSample = 0
	cfg.Seed = 1

	report := NewChecker(cfg).Check(testCollection())

	assert.Equal(t, 6, report.Features)
	assert.Equal(t, map[string]int{"Polygon": 4, "MultiPolygon": 1, "Point": 1}, report.GeometryTypes)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "point", report.Skipped[0].Key)
	assert.ErrorIs(t, report.Skipped[0].Err, geo.ErrUnsupportedGeometry)

	require.Len(t, report.Issues, 5)

	clean, ok := report.Issue("clean")
	require.True(t, ok)
	assert.False(t, clean.HasIssues())

	bowtie, _ := report.Issue("bowtie")
	assert.True(t, bowtie.SelfIntersecting)
	assert.True(t, bowtie.Invalid)
	assert.Equal(t, "Self-intersection[21 1]", bowtie.Reason)
	// lobes of opposite winding cancel out
	assert.True(t, bowtie.SmallArea)
	assert.Zero(t, bowtie.Area)

	ccw, _ := report.Issue("ccw")
	assert.True(t, ccw.Misoriented)
	assert.False(t, ccw.Invalid)

	tiny, _ := report.Issue("tiny")
	assert.True(t, tiny.SmallArea)

	assert.Equal(t, 1, report.Totals.Invalid)
	assert.Equal(t, 1, report.Totals.SelfIntersections)
	assert.Equal(t, 1, report.Totals.OrientationIssues)
	assert.Equal(t, 2, report.Totals.SmallGeometries)
	assert.Equal(t, 5, report.OverlapSample)
	assert.Equal(t, 10, report.PairsChecked)
	require.Len(t, report.Overlaps, 1)
	assert.Equal(t, Overlap{A: "clean", B: "overlap", IndexA: 0, IndexB: 4}, report.Overlaps[0])
}

func TestCheckerSampleBound(t *testing.T) {
	cfg := config.Default().Check
	cfg.OverlapSample = 3
	cfg.Seed = 7

	report := NewChecker(cfg).Check(testCollection())
	assert.Equal(t, 3, report.OverlapSample)
	assert.Equal(t, 3, report.PairsChecked)
}

func TestOverlapsByIndex(t *testing.T) {
	features := []*geojson.Feature{
		geojson.NewFeature(orb.Polygon{square(0, 0, 4)}),
		geojson.NewFeature(orb.LineString{{0, 0}, {5, 5}}),
		geojson.NewFeature(orb.Polygon{square(2, 2, 4)}),
		geojson.NewFeature(orb.Polygon{square(-4, 0, 4)}), // touches the first one
	}

	assert.Equal(t, []Overlap{{A: "0", B: "2", IndexA: 0, IndexB: 2}}, Overlaps(features, []int{0, 1, 2, 3}))
	assert.Empty(t, Overlaps(features, []int{0, 3}))
}

func TestSampleIndexes(t *testing.T) {
	rng := NewRand(7)
	assert.Equal(t, []int{0, 1, 2}, SampleIndexes(rng, 3, 0))
	assert.Equal(t, []int{0, 1, 2}, SampleIndexes(rng, 3, 5))

	picked := SampleIndexes(rng, 100, 10)
	assert.Len(t, picked, 10)
	slices.Sort(picked)
	assert.Len(t, slices.Compact(picked), 10)
}
