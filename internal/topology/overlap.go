package topology

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"

	"github.com/woozymasta/topoprobe/internal/geo"
)

// Overlap is a pair of features whose interiors intersect.
type Overlap struct {
	A, B           string
	IndexA, IndexB int
}

// InteriorsIntersect reports whether the geometries intersect without merely touching.
func InteriorsIntersect(a, b []orb.Polygon) bool {
	for _, pa := range a {
		for _, pb := range b {
			if polygonsOverlap(pa, pb) {
				return true
			}
		}
	}
	return false
}

func polygonsOverlap(a, b orb.Polygon) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	if _, ok := polygonsCross(a, b); ok {
		return true
	}

	if anyStrictlyInside(a, b) || anyStrictlyInside(b, a) {
		return true
	}

	// coincident boundaries, compare an interior point
	if p, ok := interiorPoint(a); ok && StrictlyInside(b, p) {
		return true
	}
	if p, ok := interiorPoint(b); ok && StrictlyInside(a, p) {
		return true
	}

	return false
}

// anyStrictlyInside checks vertices and edge midpoints of a against the interior of b.
func anyStrictlyInside(a, b orb.Polygon) bool {
	for _, r := range a {
		for i := 0; i+1 < len(r); i++ {
			mid := orb.Point{(r[i][0] + r[i+1][0]) / 2, (r[i][1] + r[i+1][1]) / 2}
			if StrictlyInside(b, r[i]) || StrictlyInside(b, mid) {
				return true
			}
		}
	}
	return false
}

// StrictlyInside reports whether p lies in the interior of the polygon, boundary excluded.
func StrictlyInside(poly orb.Polygon, p orb.Point) bool {
	if len(poly) == 0 || !planar.RingContains(poly[0], p) || onRing(poly[0], p) {
		return false
	}

	for _, hole := range poly[1:] {
		// RingContains counts the boundary as inside
		if planar.RingContains(hole, p) {
			return false
		}
	}

	return true
}

func interiorPoint(poly orb.Polygon) (orb.Point, bool) {
	c, _ := planar.CentroidArea(poly)
	if StrictlyInside(poly, c) {
		return c, true
	}
	return orb.Point{}, false
}

// SampleIndexes picks up to size distinct indexes out of n, all of them when size <= 0.
func SampleIndexes(rng *rand.Rand, n, size int) []int {
	if size <= 0 || size >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	return rng.Perm(n)[:size]
}

// NewRand returns a PCG source; a zero seed is replaced by the current time.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// Overlaps checks every pair among the features at the given indexes.
// Features without polygonal geometry are ignored.
func Overlaps(features []*geojson.Feature, indexes []int) []Overlap {
	cands := make([]candidate, 0, len(indexes))
	for _, idx := range indexes {
		f := features[idx]
		polys, err := geo.Polygons(f.Geometry)
		if err != nil {
			continue
		}
		cands = append(cands, candidate{key: geo.FeatureKey(f, idx), index: idx, polys: polys, bound: f.Geometry.Bound()})
	}
	return pairwiseOverlaps(cands)
}

// pairwiseOverlaps scans every pair of the given candidates, using an r-tree on
// bounds to skip pairs that cannot intersect.
func pairwiseOverlaps(cands []candidate) []Overlap {
	var tr rtree.RTreeG[int]
	for pos, c := range cands {
		b := c.bound
		tr.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, pos)
	}

	var overlaps []Overlap
	hits := make([]int, 0, 8)
	for i, c := range cands {
		hits = hits[:0]
		b := c.bound
		tr.Search([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, func(_, _ [2]float64, j int) bool {
			if j > i {
				hits = append(hits, j)
			}
			return true
		})
		slices.Sort(hits)

		for _, j := range hits {
			if InteriorsIntersect(c.polys, cands[j].polys) {
				overlaps = append(overlaps, Overlap{
					A: c.key, B: cands[j].key,
					IndexA: c.index, IndexB: cands[j].index,
				})
			}
		}
	}

	return overlaps
}

type candidate struct {
	key   string
	index int
	polys []orb.Polygon
	bound orb.Bound
}

// ringsCross finds a proper crossing between two rings.
func ringsCross(a, b orb.Ring) (orb.Point, bool) {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if kind, p := geo.SegmentIntersection(a[i], a[i+1], b[j], b[j+1]); kind == geo.Proper {
				return p, true
			}
		}
	}
	return orb.Point{}, false
}

func polygonsCross(a, b orb.Polygon) (orb.Point, bool) {
	for _, ra := range a {
		for _, rb := range b {
			if !ra.Bound().Intersects(rb.Bound()) {
				continue
			}
			if p, ok := ringsCross(ra, rb); ok {
				return p, true
			}
		}
	}
	return orb.Point{}, false
}

func onRing(r orb.Ring, p orb.Point) bool {
	return geo.PointOnRing(r, p)
}
