// Package inject builds controlled fixtures by corrupting polygon rings
// so that they cross themselves.
package inject

import (
	"errors"
	"fmt"
	"maps"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/simplify"
)

var (
	// ErrTooFewVertices is returned when the ring is too short for a reliable crossing.
	ErrTooFewVertices = errors.New("too few vertices to create a reliable self-intersection")
	// ErrUnsupportedGeometry is returned for anything that is not a Polygon or MultiPolygon.
	ErrUnsupportedGeometry = errors.New("only Polygon and MultiPolygon features can be corrupted")
	// ErrDegenerateRing is returned when the displacement vector has no length.
	ErrDegenerateRing = errors.New("degenerate ring, displacement has no direction")
)

// Strategy is the way a ring gets corrupted.
type Strategy int

const (
	// Swap exchanges two vertices far apart, giving an X-shaped crossing.
	Swap Strategy = iota
	// Displace pulls the middle vertex through the ring past the quarter vertex.
	Displace
	// Loop exchanges two vertices close together, giving a small loop.
	Loop
)

func (s Strategy) String() string {
	switch s {
	case Swap:
		return "swap"
	case Displace:
		return "displace"
	case Loop:
		return "loop"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// StrategyFor picks the strategy by feature index.
func StrategyFor(index int) Strategy {
	return Strategy(index % 3)
}

// Result describes an applied corruption.
type Result struct {
	Key      string
	Index    int
	Strategy Strategy
	RingLen  int
	Stride   int
	Vertices []int // indexes of the moved vertices
}

// Injector corrupts the first ring of the first polygon of a feature.
type Injector struct {
	minVertices  int
	targetPoints int
}

// New creates an injector. The stride is derived from the simplifier target so
// that swapped vertices lie on the stride sample.
func New(inj config.Inject, simp config.Simplify) *Injector {
	return &Injector{
		minVertices:  max(4, inj.MinVertices),
		targetPoints: simp.TargetPoints,
	}
}

// Feature returns a corrupted deep copy of f. The input feature is not modified.
func (in *Injector) Feature(f *geojson.Feature, s Strategy) (*geojson.Feature, Result, error) {
	res := Result{Strategy: s}

	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return nil, res, ErrUnsupportedGeometry
	}
	if _, err := geo.Polygons(f.Geometry); err != nil {
		return nil, res, err
	}

	out := geojson.NewFeature(orb.Clone(f.Geometry))
	out.ID = f.ID
	out.Properties = maps.Clone(f.Properties)
	if out.Properties == nil {
		out.Properties = geojson.Properties{}
	}

	var ring orb.Ring
	switch g := out.Geometry.(type) {
	case orb.Polygon:
		ring = g[0]
	case orb.MultiPolygon:
		ring = g[0][0]
	}

	res.RingLen = len(ring)
	res.Stride = simplify.Stride(len(ring), in.targetPoints)
	if len(ring) < in.minVertices {
		return nil, res, fmt.Errorf("%w: %d < %d", ErrTooFewVertices, len(ring), in.minVertices)
	}

	switch s {
	case Swap, Loop:
		i, j := res.Stride*3, res.Stride*10
		if s == Loop {
			i, j = res.Stride*5, res.Stride*8
		}
		// the closing vertex must stay in place
		if j >= len(ring)-1 {
			return nil, res, fmt.Errorf("%w: vertex %d at stride %d is past a ring of %d",
				ErrTooFewVertices, j, res.Stride, len(ring))
		}
		res.Vertices = swap(ring, i, j)
	case Displace:
		idx, err := displace(ring)
		if err != nil {
			return nil, res, err
		}
		res.Vertices = []int{idx}
	default:
		return nil, res, fmt.Errorf("unknown strategy %v", s)
	}

	return out, res, nil
}

// Collection corrupts the first n features, each with StrategyFor(index).
// Features that cannot be corrupted are kept as they are and logged.
func (in *Injector) Collection(fc *geojson.FeatureCollection, n int) (*geojson.FeatureCollection, []Result) {
	out := geojson.NewFeatureCollection()
	out.Features = make([]*geojson.Feature, len(fc.Features))
	copy(out.Features, fc.Features)
	out.BBox = fc.BBox

	var results []Result
	for i := 0; i < min(n, len(fc.Features)); i++ {
		key := geo.FeatureKey(fc.Features[i], i)

		modified, res, err := in.Feature(fc.Features[i], StrategyFor(i))
		if err != nil {
			log.Warn().Err(err).Str("feature", key).Int("ring_len", res.RingLen).Msg("Feature not corrupted")
			continue
		}

		res.Key, res.Index = key, i
		out.Features[i] = modified
		results = append(results, res)

		log.Info().
			Str("feature", key).
			Str("strategy", res.Strategy.String()).
			Int("ring_len", res.RingLen).
			Int("stride", res.Stride).
			Ints("vertices", res.Vertices).
			Msg("Created self-intersection")
	}

	return out, results
}

func swap(r orb.Ring, i, j int) []int {
	r[i], r[j] = r[j], r[i]
	return []int{i, j}
}

// displace moves the middle vertex along the direction to the quarter vertex
// and 20% beyond it, so the two edges around it cut through the ring.
func displace(r orb.Ring) (int, error) {
	mid := len(r) / 2
	far := len(r) / 4

	vx := r[far][0] - r[mid][0]
	vy := r[far][1] - r[mid][1]
	if vx == 0 && vy == 0 {
		return 0, ErrDegenerateRing
	}

	r[mid] = orb.Point{r[mid][0] + vx*1.2, r[mid][1] + vy*1.2}
	return mid, nil
}
