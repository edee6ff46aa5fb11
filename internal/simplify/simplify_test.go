package simplify

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/topology"
)

// circle returns a closed clockwise ring of n distinct vertices.
func circle(n int) orb.Ring {
	r := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := -2 * math.Pi * float64(i) / float64(n)
		r = append(r, orb.Point{math.Cos(a), math.Sin(a)})
	}
	return append(r, r[0])
}

func TestStride(t *testing.T) {
	assert.Equal(t, 1, Stride(10, 15))
	assert.Equal(t, 1, Stride(29, 15))
	assert.Equal(t, 2, Stride(31, 15))
	assert.Equal(t, 66, Stride(1000, 15))
	assert.Equal(t, 1, Stride(100, 0))
}

func TestRingClosure(t *testing.T) {
	for _, n := range []int{3, 14, 15, 16, 30, 31, 99, 1000} {
		r := circle(n)
		for _, stride := range []int{1, 2, 3, 7, Stride(len(r), 15)} {
			out := Ring(r, stride)
			require.NotEmpty(t, out)
			assert.Equal(t, out[0], out[len(out)-1], "n=%d stride=%d", n, stride)
			assert.Equal(t, r[0], out[0])
		}
	}
}

func TestRingStrideOneIsIdentity(t *testing.T) {
	r := circle(40)
	out := Ring(r, 1)
	assert.Len(t, out, len(r))
	assert.Equal(t, r, out)
}

func TestRingKeepsStrideSample(t *testing.T) {
	r := orb.Ring{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}, {2, 1}, {2, 0}, {1, 0}, {0, 0}}
	// indexes 0, 3, 6 kept, closing vertex re-appended
	assert.Equal(t, orb.Ring{{0, 0}, {1, 2}, {2, 0}, {0, 0}}, Ring(r, 3))
	// index 8 is the closing vertex itself, nothing to re-append
	assert.Equal(t, orb.Ring{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}, Ring(r, 2))
}

func TestSimplifierFeature(t *testing.T) {
	s := New(config.Default().Simplify)

	f := geojson.NewFeature(orb.MultiPolygon{{circle(300)}, {circle(10)}})
	f.ID = "w1"
	f.Properties["fclass"] = "parking"
	f.Properties["name"] = "dropped"

	out, err := s.Feature(f)
	require.NoError(t, err)

	assert.Equal(t, "w1", out.ID)
	assert.Equal(t, geojson.Properties{"fclass": "parking"}, out.Properties)

	mp, ok := out.Geometry.(orb.MultiPolygon)
	require.True(t, ok)
	// 301 vertices with stride 20: indexes 0..300, last kept index 300 closes the ring
	assert.Len(t, mp[0][0], 16)
	assert.Equal(t, mp[0][0][0], mp[0][0][len(mp[0][0])-1])
	// small ring untouched
	assert.Len(t, mp[1][0], 11)

	// source feature is not modified
	assert.Len(t, f.Geometry.(orb.MultiPolygon)[0][0], 301)
}

func TestSimplifierKeepsMissingPropertyAsNull(t *testing.T) {
	s := New(config.Default().Simplify)
	out, err := s.Feature(geojson.NewFeature(orb.Polygon{circle(20)}))
	require.NoError(t, err)

	v, ok := out.Properties["fclass"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSimplifierUnsupported(t *testing.T) {
	s := New(config.Default().Simplify)
	_, err := s.Geometry(orb.LineString{{0, 0}, {1, 1}})
	assert.Error(t, err)
}

func TestSimplifierDouglasPeucker(t *testing.T) {
	cfg := config.Default().Simplify
	cfg.Method = config.MethodDouglasPeucker
	cfg.Tolerance = 0.05

	g, err := New(cfg).Geometry(orb.Polygon{circle(200)})
	require.NoError(t, err)

	r := g.(orb.Polygon)[0]
	assert.Less(t, len(r), 201)
	assert.Equal(t, r[0], r[len(r)-1])
}

// Swapping two vertices on the stride sample keeps the crossing after
// simplification, swapping vertices between samples may lose it.
func TestSelfIntersectionThroughStride(t *testing.T) {
	base := circle(60) // 61 vertices, stride 4
	stride := Stride(len(base), 15)
	require.Equal(t, 4, stride)

	kept := append(orb.Ring(nil), base...)
	kept[stride*3], kept[stride*10] = kept[stride*10], kept[stride*3]

	simple, err := topology.IsSimple(orb.Polygon{kept})
	require.NoError(t, err)
	require.False(t, simple)

	simple, err = topology.IsSimple(orb.Polygon{Ring(kept, stride)})
	require.NoError(t, err)
	assert.False(t, simple, "swapped vertices on the sample keep the crossing")

	lost := append(orb.Ring(nil), base...)
	lost[13], lost[41] = lost[41], lost[13]

	simple, err = topology.IsSimple(orb.Polygon{lost})
	require.NoError(t, err)
	require.False(t, simple)

	simple, err = topology.IsSimple(orb.Polygon{Ring(lost, stride)})
	require.NoError(t, err)
	assert.True(t, simple, "swapped vertices between samples vanish")
}
