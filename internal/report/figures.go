package report

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/topoprobe/internal/geo"
	"github.com/woozymasta/topoprobe/internal/topology"
)

// IntersectionFigure lays out one row per feature, outlined in red with the
// first crossing of every ring marked.
func IntersectionFigure(features []*geojson.Feature, keys []string) [][]Panel {
	rows := make([][]Panel, 0, len(features))
	for i, f := range features {
		rows = append(rows, []Panel{{
			Title:    fmt.Sprintf("Feature %s with self-intersection", keys[i]),
			Geometry: f.Geometry,
			Color:    Red,
			Markers:  Crossings(f.Geometry),
		}})
	}
	return rows
}

// ComparisonRow pairs an original geometry with its simplified version.
type ComparisonRow struct {
	Key        string
	Original   orb.Geometry
	Simplified orb.Geometry // nil when the simplified feature could not be loaded
	Preserved  bool
	Err        error
}

// ComparisonFigure lays out the original on the left and the simplified geometry on the right.
func ComparisonFigure(rows []ComparisonRow) [][]Panel {
	out := make([][]Panel, 0, len(rows))
	for _, r := range rows {
		left := Panel{
			Title:    "Original Feature " + r.Key,
			Geometry: r.Original,
			Color:    Red,
		}

		right := Panel{Color: Blue}
		if r.Err != nil || r.Simplified == nil {
			right.Title = fmt.Sprintf("Simplified Feature %s - Error", r.Key)
			right.Note = "Error: missing simplified geometry"
			if r.Err != nil {
				right.Note = "Error: " + r.Err.Error()
			}
		} else {
			right.Title = fmt.Sprintf("Simplified Feature %s - Self-Intersection %s", r.Key, PreservedLabel(r.Preserved))
			right.Geometry = r.Simplified
			right.Markers = Crossings(r.Simplified)
		}

		out = append(out, []Panel{left, right})
	}
	return out
}

// PreservedLabel is the figure wording for the comparison outcome.
func PreservedLabel(preserved bool) string {
	if preserved {
		return "Preserved"
	}
	return "LOST"
}

// Crossings returns the first self-intersection point of each ring.
func Crossings(g orb.Geometry) []orb.Point {
	polys, err := geo.Polygons(g)
	if err != nil {
		return nil
	}

	var points []orb.Point
	for _, r := range geo.Rings(polys) {
		if p, ok := topology.RingSelfIntersection(r); ok {
			points = append(points, p)
		}
	}
	return points
}
