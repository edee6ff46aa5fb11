// Package simplify downsamples polygon rings to keep features small.
//
// The default stride method keeps every Nth vertex. It does not preserve
// topology: a self-intersection may survive the sampling or vanish with the
// vertices that formed it.
package simplify

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	orbsimplify "github.com/paulmach/orb/simplify"

	"github.com/woozymasta/topoprobe/internal/config"
	"github.com/woozymasta/topoprobe/internal/geo"
)

// Stride returns the sampling step giving roughly target points out of n.
func Stride(n, target int) int {
	if target <= 0 {
		return 1
	}
	return max(1, n/target)
}

// Ring keeps every stride-th vertex starting with the first one and re-appends
// the first vertex when the sample dropped the closing one.
func Ring(r orb.Ring, stride int) orb.Ring {
	if len(r) == 0 {
		return orb.Ring{}
	}
	stride = max(1, stride)

	out := make(orb.Ring, 0, len(r)/stride+2)
	for i := 0; i < len(r); i += stride {
		out = append(out, r[i])
	}

	if out[len(out)-1] != r[0] {
		out = append(out, r[0])
	}

	return out
}

// Simplifier simplifies geometries and features with the configured method.
type Simplifier struct {
	cfg config.Simplify
}

// New creates a simplifier.
func New(cfg config.Simplify) *Simplifier {
	return &Simplifier{cfg: cfg}
}

// Geometry returns a simplified copy of a Polygon or MultiPolygon.
func (s *Simplifier) Geometry(g orb.Geometry) (orb.Geometry, error) {
	if _, err := geo.Polygons(g); err != nil {
		return nil, err
	}

	if s.cfg.Method == config.MethodDouglasPeucker {
		return orbsimplify.DouglasPeucker(s.cfg.Tolerance).Simplify(orb.Clone(g)), nil
	}

	switch v := g.(type) {
	case orb.Polygon:
		return s.polygon(v), nil
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			out[i] = s.polygon(p)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %s", geo.ErrUnsupportedGeometry, g.GeoJSONType())
}

func (s *Simplifier) polygon(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		out[i] = Ring(r, Stride(len(r), s.cfg.TargetPoints))
	}
	return out
}

// Feature returns a new feature with the same id, the kept properties and a
// simplified geometry.
func (s *Simplifier) Feature(f *geojson.Feature) (*geojson.Feature, error) {
	g, err := s.Geometry(f.Geometry)
	if err != nil {
		return nil, err
	}

	out := geojson.NewFeature(g)
	out.ID = f.ID

	// missing properties are kept as null
	for _, k := range s.cfg.KeepProperties {
		out.Properties[k] = f.Properties[k]
	}

	return out, nil
}
