package processor

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/rtree"

	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/topology"
)

// Selection modes.
const (
	SelectInvalid = "invalid"
	SelectComplex = "complex"
)

// Selection explains how a subset was picked.
type Selection struct {
	Mode    string
	Indexes []int    // original feature indexes in selection order
	Nearby  [][2]int // nearby pairs that contributed features
}

// Subset picks the features for the downstream analysis. With invalid
// geometries present it takes the first of them, otherwise the most complex
// features plus features lying close to each other.
func (p *Processor) Subset(fc *geojson.FeatureCollection, s *Survey) (*geojson.FeatureCollection, Selection) {
	var sel Selection

	if len(s.Invalid) > 0 {
		sel.Mode = SelectInvalid
		sel.Indexes = slices.Clone(s.Invalid[:min(len(s.Invalid), p.subset.MaxInvalid)])
		log.Info().Int("count", len(sel.Indexes)).Msg("Including invalid geometries in the subset")
	} else {
		sel.Mode = SelectComplex
		sel.Indexes = MostComplex(fc.Features, p.subset.Complex)

		sample := topology.SampleIndexes(p.rng, len(fc.Features), p.subset.NearbySample)
		pairs := NearbyPairs(fc.Features, sample, p.subset.NearbyDistance)
		log.Info().Int("pairs", len(pairs)).Msg("Found nearby geometry pairs")

		sel.Nearby = pairs[:min(len(pairs), p.subset.NearbyPairs)]
		for _, pair := range sel.Nearby {
			for _, idx := range pair {
				if !slices.Contains(sel.Indexes, idx) {
					sel.Indexes = append(sel.Indexes, idx)
				}
			}
		}
	}

	out := geojson.NewFeatureCollection()
	for _, idx := range sel.Indexes {
		out.Append(fc.Features[idx])
	}

	log.Info().Str("mode", sel.Mode).Int("features", len(out.Features)).Msg("Created subset")
	return out, sel
}

// MostComplex returns the indexes of the n features with the most exterior
// ring vertices, ties broken by position.
func MostComplex(features []*geojson.Feature, n int) []int {
	idx := make([]int, len(features))
	counts := make([]int, len(features))
	for i, f := range features {
		idx[i] = i
		counts[i] = geo.ExteriorVertexCount(f.Geometry)
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(counts[b], counts[a])
	})

	return idx[:min(n, len(idx))]
}

// NearbyPairs returns pairs of sampled polygonal features closer than maxDist,
// in sample order. Each unordered pair is reported once.
func NearbyPairs(features []*geojson.Feature, sample []int, maxDist float64) [][2]int {
	type item struct {
		index int
		polys []orb.Polygon
	}

	items := make([]item, 0, len(sample))
	var tr rtree.RTreeG[int]
	for _, idx := range sample {
		polys, err := geo.Polygons(features[idx].Geometry)
		if err != nil {
			continue
		}
		b := features[idx].Geometry.Bound()
		tr.Insert(b.Min, b.Max, len(items))
		items = append(items, item{index: idx, polys: polys})
	}

	var pairs [][2]int
	hits := make([]int, 0, 8)
	for i, it := range items {
		b := features[it.index].Geometry.Bound().Pad(maxDist)

		hits = hits[:0]
		tr.Search(b.Min, b.Max, func(_, _ [2]float64, j int) bool {
			if j > i {
				hits = append(hits, j)
			}
			return true
		})
		slices.Sort(hits)

		for _, j := range hits {
			if PolygonDistance(it.polys, items[j].polys) < maxDist {
				pairs = append(pairs, [2]int{it.index, items[j].index})
			}
		}
	}

	return pairs
}

// PolygonDistance is the minimum distance between two polygon sets, zero
// when they touch, cross or one contains the other.
func PolygonDistance(a, b []orb.Polygon) float64 {
	for _, pa := range a {
		for _, pb := range b {
			if planar.PolygonContains(pb, pa[0][0]) || planar.PolygonContains(pa, pb[0][0]) {
				return 0
			}
		}
	}

	best := math.Inf(1)
	ra, rb := geo.Rings(a), geo.Rings(b)
	for _, r1 := range ra {
		for _, r2 := range rb {
			best = min(best, ringDistance(r1, r2))
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

func ringDistance(r1, r2 orb.Ring) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(r1); i++ {
		for j := 0; j+1 < len(r2); j++ {
			if c, _ := geo.SegmentIntersection(r1[i], r1[i+1], r2[j], r2[j+1]); c != geo.Disjoint {
				return 0
			}
			best = min(best,
				planar.DistanceFromSegment(r2[j], r2[j+1], r1[i]),
				planar.DistanceFromSegment(r1[i], r1[i+1], r2[j]),
			)
		}
	}

	// last vertex of an unclosed ring
	if n := len(r1); n > 0 {
		for j := 0; j+1 < len(r2); j++ {
			best = min(best, planar.DistanceFromSegment(r2[j], r2[j+1], r1[n-1]))
		}
	}
	if n := len(r2); n > 0 {
		for i := 0; i+1 < len(r1); i++ {
			best = min(best, planar.DistanceFromSegment(r1[i], r1[i+1], r2[n-1]))
		}
	}
	return best
}
