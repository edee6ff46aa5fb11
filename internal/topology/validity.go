package topology

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/woozymasta/topoprobe/internal/geo"
)

// ValidReason is returned by Explain for a geometry without defects.
const ValidReason = "Valid Geometry"

// Explain checks a Polygon or MultiPolygon against the OGC simple-feature rules
// and returns the first violation found, formatted as "Reason[x y]".
// Rings GEOS cannot read are reported here, everything else is left to GEOS.
func Explain(g orb.Geometry) (string, error) {
	polys, err := geo.Polygons(g)
	if err != nil {
		return "", err
	}

	for _, poly := range polys {
		if reason := explainRings(poly); reason != "" {
			return reason, nil
		}
	}

	_, multi := g.(orb.MultiPolygon)
	return geosReason(polys, multi)
}

// IsValid is Explain reduced to a flag.
func IsValid(g orb.Geometry) (bool, error) {
	reason, err := Explain(g)
	if err != nil {
		return false, err
	}
	return reason == ValidReason, nil
}

func explainRings(poly orb.Polygon) string {
	for _, r := range poly {
		for _, p := range r {
			if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
				return reasonAt("Invalid Coordinate", p)
			}
		}
	}

	for _, r := range poly {
		if len(r) == 0 {
			return "Too few points in geometry component"
		}
		if len(r) < 4 || len(dedupe(r)) < 4 {
			return reasonAt("Too few points in geometry component", r[0])
		}
		if r[0] != r[len(r)-1] {
			return reasonAt("Ring is not closed", r[0])
		}
	}

	return ""
}

func reasonAt(reason string, p orb.Point) string {
	return fmt.Sprintf("%s[%v %v]", reason, p[0], p[1])
}
