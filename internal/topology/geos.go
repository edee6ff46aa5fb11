package topology

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// geosContext locks internally and is shared by every check.
var geosContext = geos.NewContext()

// newGeom converts polygons into a GEOS geometry. Rings must already be
// closed and long enough, GEOS rejects anything else while reading.
func newGeom(polys []orb.Polygon, multi bool) (*geos.Geom, error) {
	var g orb.Geometry = orb.MultiPolygon(polys)
	if !multi && len(polys) == 1 {
		g = polys[0]
	}

	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}

	gg, err := geosContext.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("read geometry: %w", err)
	}

	return gg, nil
}

// geosReason returns the GEOS validity reason, "Valid Geometry" when valid.
func geosReason(polys []orb.Polygon, multi bool) (string, error) {
	g, err := newGeom(polys, multi)
	if err != nil {
		return "", err
	}
	defer g.Destroy()

	if g.IsValid() {
		return ValidReason, nil
	}
	return g.IsValidReason(), nil
}

func geosSimple(polys []orb.Polygon, multi bool) (bool, error) {
	g, err := newGeom(polys, multi)
	if err != nil {
		return false, err
	}
	defer g.Destroy()

	return g.IsSimple(), nil
}
