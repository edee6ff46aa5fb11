package topology

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"github.com/woozymasta/topoprobe/internal/geo"
)

// IsSimple reports whether every ring of a Polygon or MultiPolygon is simple.
// GEOS decides when it can read the rings, the ring scan covers the rest.
func IsSimple(g orb.Geometry) (bool, error) {
	polys, err := geo.Polygons(g)
	if err != nil {
		return false, err
	}

	readable := true
	for _, poly := range polys {
		if explainRings(poly) != "" {
			readable = false
			break
		}
	}
	if readable {
		_, multi := g.(orb.MultiPolygon)
		if simple, err := geosSimple(polys, multi); err == nil {
			return simple, nil
		}
	}

	for _, r := range geo.Rings(polys) {
		if _, found := RingSelfIntersection(r); found {
			return false, nil
		}
	}

	return true, nil
}

// RingSelfIntersection returns the first point where the ring touches or crosses itself.
// Consecutive duplicate vertices are ignored.
func RingSelfIntersection(r orb.Ring) (orb.Point, bool) {
	pts := dedupe(r)
	if len(pts) < 3 {
		return orb.Point{}, false
	}

	closed := pts[0] == pts[len(pts)-1]
	n := len(pts) - 1 // segments

	var tr rtree.RTreeG[int]
	for i := 0; i < n; i++ {
		lo, hi := segmentBox(pts[i], pts[i+1])
		tr.Insert(lo, hi, i)
	}

	candidates := make([]int, 0, 16)
	for i := 0; i < n; i++ {
		candidates = candidates[:0]
		lo, hi := segmentBox(pts[i], pts[i+1])
		tr.Search(lo, hi, func(_, _ [2]float64, j int) bool {
			if j > i {
				candidates = append(candidates, j)
			}
			return true
		})
		slices.Sort(candidates)

		for _, j := range candidates {
			kind, p := geo.SegmentIntersection(pts[i], pts[i+1], pts[j], pts[j+1])
			if kind == geo.Disjoint {
				continue
			}

			adjacent := j == i+1 || (closed && i == 0 && j == n-1)
			if !adjacent {
				return p, true
			}

			// neighbours share a vertex, anything more means the boundary folds back
			if kind == geo.Overlap {
				return p, true
			}
		}
	}

	return orb.Point{}, false
}

func dedupe(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r))
	for i, p := range r {
		if i > 0 && p == r[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func segmentBox(a, b orb.Point) ([2]float64, [2]float64) {
	return [2]float64{min(a[0], b[0]), min(a[1], b[1])},
		[2]float64{max(a[0], b[0]), max(a[1], b[1])}
}
