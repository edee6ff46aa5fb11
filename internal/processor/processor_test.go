package processor

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/topoprobe/internal/config"
)

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x, y + size}, {x + size, y + size}, {x + size, y}, {x, y}}}
}

func circle(cx, cy, radius float64, n int) orb.Polygon {
	r := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := -2 * math.Pi * float64(i) / float64(n)
		r = append(r, orb.Point{cx + radius*math.Cos(a), cy + radius*math.Sin(a)})
	}
	return orb.Polygon{append(r, r[0])}
}

var bowtie = orb.Polygon{{{20, 0}, {22, 2}, {22, 0}, {20, 2}, {20, 0}}}

func newProcessor() *Processor {
	cfg := config.Default()
	cfg.Check.Seed = 42
	return New(cfg.Check, cfg.Subset)
}

func collection(geoms ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, g := range geoms {
		f := geojson.NewFeature(g)
		f.ID = float64(i + 1)
		f.Properties["fclass"] = []string{"parking", "pitch"}[i%2]
		fc.Append(f)
	}
	return fc
}

func TestSurvey(t *testing.T) {
	fc := collection(
		square(0, 0, 1),
		bowtie,
		square(0, 0, 1),
		square(0.5, 0.5, 1),
		orb.MultiPolygon{},
		orb.LineString{{0, 0}, {1, 1}},
	)
	fc.Features[0].Properties["name"] = nil

	s := newProcessor().Survey(fc)

	assert.Equal(t, 6, s.Features)
	assert.Equal(t, map[string]int{"Polygon": 4, "MultiPolygon": 1, "LineString": 1}, s.GeometryTypes)
	assert.Equal(t, map[string]int{"fclass": 2}, s.Properties)
	assert.Equal(t, 1, s.Duplicated)
	assert.Equal(t, 1, s.Empty)

	assert.Equal(t, []int{1}, s.Invalid)
	require.Len(t, s.InvalidSamples, 1)
	assert.Equal(t, "2", s.InvalidSamples[0].Key)
	assert.Contains(t, s.InvalidSamples[0].Reason, "Self-intersection")

	// every feature fits in the default samples
	assert.Equal(t, 6, s.IntersectSample)
	assert.Equal(t, 1, s.SelfIntersections)
	assert.Equal(t, 6, s.OverlapSample)
	// the two identical squares and both of them with the shifted one
	assert.Len(t, s.Overlaps, 3)

	assert.NotPanics(t, s.Log)
}

func TestSurveyEmptyHole(t *testing.T) {
	withEmptyHole := orb.Polygon{square(0, 0, 1)[0], {}}
	fc := collection(withEmptyHole, square(5, 5, 1), bowtie)

	var s *Survey
	require.NotPanics(t, func() { s = newProcessor().Survey(fc) })

	assert.Equal(t, 3, s.Features)
	assert.Equal(t, 1, s.Unchecked)
	assert.Equal(t, []int{2}, s.Invalid)
	assert.Equal(t, 1, s.SelfIntersections)
	assert.Empty(t, s.Overlaps)
}

func TestSubsetInvalid(t *testing.T) {
	geoms := []orb.Geometry{square(0, 0, 1)}
	for i := 0; i < 12; i++ {
		b := orb.Clone(bowtie).(orb.Polygon)
		for j := range b[0] {
			b[0][j][1] += float64(i) * 10
		}
		geoms = append(geoms, b)
	}
	fc := collection(geoms...)

	p := newProcessor()
	out, sel := p.Subset(fc, p.Survey(fc))

	assert.Equal(t, SelectInvalid, sel.Mode)
	assert.Len(t, out.Features, 10)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, sel.Indexes)
	assert.Same(t, fc.Features[1], out.Features[0])
}

func TestSubsetComplexAndNearby(t *testing.T) {
	fc := collection(
		circle(0, 0, 1, 8),
		circle(10, 0, 1, 40),
		circle(20, 0, 1, 12),
		circle(30, 0, 1, 30),
		circle(40, 0, 1, 20),
		circle(50, 0, 1, 10),
		square(100, 100, 1),
		square(101.00005, 100, 1), // 5e-5 from the previous one
		square(200, 200, 1),
	)

	p := newProcessor()
	s := p.Survey(fc)
	require.Empty(t, s.Invalid)

	out, sel := p.Subset(fc, s)

	assert.Equal(t, SelectComplex, sel.Mode)
	assert.Equal(t, [][2]int{{6, 7}}, sel.Nearby)
	assert.Equal(t, []int{1, 3, 4, 2, 5, 6, 7}, sel.Indexes)
	assert.Len(t, out.Features, 7)
}

func TestMostComplex(t *testing.T) {
	features := []*geojson.Feature{
		geojson.NewFeature(square(0, 0, 1)),
		geojson.NewFeature(circle(0, 0, 1, 20)),
		geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}}),
		geojson.NewFeature(square(5, 5, 1)),
	}
	assert.Equal(t, []int{1, 0, 3}, MostComplex(features, 3))
	assert.Equal(t, []int{1, 0, 3, 2}, MostComplex(features, 10))
}

func TestPolygonDistance(t *testing.T) {
	a := []orb.Polygon{square(0, 0, 1)}

	assert.InDelta(t, 1.0, PolygonDistance(a, []orb.Polygon{square(2, 0, 1)}), 1e-12)
	assert.Zero(t, PolygonDistance(a, []orb.Polygon{square(1, 0, 1)}), "shared edge")
	assert.Zero(t, PolygonDistance(a, []orb.Polygon{square(0.5, 0.5, 1)}), "crossing")
	assert.Zero(t, PolygonDistance(a, []orb.Polygon{square(0.25, 0.25, 0.5)}), "contained")
	assert.InDelta(t, math.Sqrt2, PolygonDistance(a, []orb.Polygon{square(2, 2, 1)}), 1e-12)
}
