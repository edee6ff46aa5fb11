package topology

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/topoprobe/internal/geo"
)

// VertexSpacing counts consecutive vertex pairs closer than epsilon (but apart)
// and exact consecutive duplicates over every ring.
func VertexSpacing(polys []orb.Polygon, epsilon float64) (near, duplicate int) {
	for _, r := range geo.Rings(polys) {
		for j := 0; j+1 < len(r); j++ {
			d := geo.Distance(r[j], r[j+1])
			switch {
			case d == 0:
				duplicate++
			case d < epsilon:
				near++
			}
		}
	}
	return near, duplicate
}

// PrecisionStats summarises the number of decimal places used by coordinates.
type PrecisionStats struct {
	Samples int
	Average float64
	Max     int
	Warning bool
}

// CoordinatePrecision inspects the first coords coordinates of the first exterior
// ring of the first features features.
func CoordinatePrecision(features []*geojson.Feature, featuresLimit, coords, maxDecimals int) PrecisionStats {
	var stats PrecisionStats
	total := 0

	for i, f := range features {
		if i >= featuresLimit {
			break
		}

		polys, err := geo.Polygons(f.Geometry)
		if err != nil {
			continue
		}

		for k, p := range polys[0][0] {
			if k >= coords {
				break
			}
			for _, v := range p {
				d := decimals(v)
				if d == 0 {
					continue
				}
				stats.Samples++
				total += d
				stats.Max = max(stats.Max, d)
			}
		}
	}

	if stats.Samples > 0 {
		stats.Average = float64(total) / float64(stats.Samples)
	}
	stats.Warning = stats.Max > maxDecimals

	return stats
}

// decimals counts the digits after the point in the shortest decimal form of v.
// Integral values count as one place ("1.0"). Magnitudes below 1e-4 or from
// 1e16 up use exponent form, where the digits after the point include the exponent.
func decimals(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])

	s := e
	if v == 0 || (exp >= -4 && exp < 16) {
		s = strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
	}

	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
