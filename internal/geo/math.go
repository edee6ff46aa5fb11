package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Crossing classifies how two segments meet.
type Crossing int

const (
	// Disjoint segments share no point.
	Disjoint Crossing = iota
	// Touch segments share exactly one point that is an endpoint of at least one of them.
	Touch
	// Proper segments cross at a single point interior to both.
	Proper
	// Overlap segments are collinear and share more than one point.
	Overlap
)

// Orient returns a positive value when c lies left of a->b,
// negative when right and zero when the three points are collinear.
func Orient(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// OnSegment reports whether p, assumed collinear with a and b, lies within the segment a-b.
func OnSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

// PointOnSegment reports whether p lies exactly on the segment a-b.
func PointOnSegment(a, b, p orb.Point) bool {
	return Orient(a, b, p) == 0 && OnSegment(a, b, p)
}

// PointOnRing reports whether p lies exactly on the ring boundary.
func PointOnRing(r orb.Ring, p orb.Point) bool {
	for i := 0; i+1 < len(r); i++ {
		if PointOnSegment(r[i], r[i+1], p) {
			return true
		}
	}
	return false
}

// SegmentIntersection classifies the intersection of a1-a2 and b1-b2 and
// returns one shared point when they are not disjoint.
func SegmentIntersection(a1, a2, b1, b2 orb.Point) (Crossing, orb.Point) {
	d1 := Orient(b1, b2, a1)
	d2 := Orient(b1, b2, a2)
	d3 := Orient(a1, a2, b1)
	d4 := Orient(a1, a2, b2)

	if d1 == 0 && d2 == 0 && d3 == 0 && d4 == 0 {
		return collinearIntersection(a1, a2, b1, b2)
	}

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		t := d1 / (d1 - d2)
		return Proper, orb.Point{a1[0] + t*(a2[0]-a1[0]), a1[1] + t*(a2[1]-a1[1])}
	}

	switch {
	case d1 == 0 && OnSegment(b1, b2, a1):
		return Touch, a1
	case d2 == 0 && OnSegment(b1, b2, a2):
		return Touch, a2
	case d3 == 0 && OnSegment(a1, a2, b1):
		return Touch, b1
	case d4 == 0 && OnSegment(a1, a2, b2):
		return Touch, b2
	}

	return Disjoint, orb.Point{}
}

func collinearIntersection(a1, a2, b1, b2 orb.Point) (Crossing, orb.Point) {
	// project on the axis where the segments spread the most
	axis := 0
	if math.Abs(a2[1]-a1[1])+math.Abs(b2[1]-b1[1]) > math.Abs(a2[0]-a1[0])+math.Abs(b2[0]-b1[0]) {
		axis = 1
	}

	lo := math.Max(math.Min(a1[axis], a2[axis]), math.Min(b1[axis], b2[axis]))
	hi := math.Min(math.Max(a1[axis], a2[axis]), math.Max(b1[axis], b2[axis]))
	if lo > hi {
		return Disjoint, orb.Point{}
	}

	var shared orb.Point
	found := false
	for _, p := range [...]orb.Point{b1, b2, a1, a2} {
		if OnSegment(a1, a2, p) && OnSegment(b1, b2, p) {
			shared, found = p, true
			break
		}
	}
	if !found {
		return Disjoint, orb.Point{}
	}

	if lo == hi {
		return Touch, shared
	}
	return Overlap, shared
}

// Distance returns the euclidean distance between two points.
func Distance(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
