// Package report renders checker and comparison results as text, raster figures and HTML.
package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/woozymasta/topoprobe/internal/topology"
)

const rule = "=================================================="

// WriteSummary prints the numbered topology sections followed by the summary block.
func WriteSummary(w io.Writer, r *topology.Report, cfg SummaryOptions) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyzing %d features from the dataset...\n%s\n", r.Features, rule)
	fmt.Fprintf(&b, "Geometry types: %s\n", geometryTypes(r.GeometryTypes))

	checked := len(r.Issues)

	b.WriteString("\n1. VALIDITY CHECK:\n")
	fmt.Fprintf(&b, "   - Valid geometries: %d out of %d\n", checked-r.Totals.Invalid, checked)
	fmt.Fprintf(&b, "   - Invalid geometries: %d out of %d\n", r.Totals.Invalid, checked)
	for _, i := range r.Issues {
		if i.Invalid {
			fmt.Fprintf(&b, "   - Issue at feature %s (index %d): %s\n", i.Key, i.Index, i.Reason)
		}
	}

	b.WriteString("\n2. SELF-INTERSECTION CHECK:\n")
	for _, i := range r.Issues {
		if i.SelfIntersecting {
			fmt.Fprintf(&b, "   - Self-intersection found at feature %s (index %d)\n", i.Key, i.Index)
		}
	}
	fmt.Fprintf(&b, "   - Self-intersections found: %d out of %d\n", r.Totals.SelfIntersections, checked)

	b.WriteString("\n3. RING ORIENTATION CHECK:\n")
	for _, i := range r.Issues {
		for _, note := range i.OrientationNotes {
			fmt.Fprintf(&b, "   - Incorrect orientation at feature %s: %s\n", i.Key, note)
		}
	}
	fmt.Fprintf(&b, "   - Orientation issues found: %d\n", r.Totals.OrientationIssues)

	b.WriteString("\n4. PRECISION ISSUES CHECK:\n")
	fmt.Fprintf(&b, "   - Very close vertices found: %d\n", r.Totals.CloseVertices)
	fmt.Fprintf(&b, "   - Duplicate consecutive vertices found: %d\n", r.Totals.DuplicateVertices)

	b.WriteString("\n5. VERY SMALL GEOMETRIES CHECK:\n")
	fmt.Fprintf(&b, "   - Very small geometries (area < %g): %d\n", cfg.SmallArea, r.Totals.SmallGeometries)
	for _, i := range r.Issues {
		if i.SmallArea {
			fmt.Fprintf(&b, "   - Small geometry at feature %s, area: %g\n", i.Key, i.Area)
		}
	}

	b.WriteString("\n6. OVERLAPPING GEOMETRIES CHECK:\n")
	for _, o := range r.Overlaps {
		fmt.Fprintf(&b, "   - Overlap between features %s and %s\n", o.A, o.B)
	}
	fmt.Fprintf(&b, "   - Overlapping geometries found in sample: %d out of %d pairs checked\n",
		r.Totals.Overlaps, r.PairsChecked)

	b.WriteString("\n7. COORDINATE PRECISION CHECK:\n")
	if r.Precision.Samples > 0 {
		fmt.Fprintf(&b, "   - Average decimal places in coordinates: %.2f\n", r.Precision.Average)
		fmt.Fprintf(&b, "   - Maximum decimal places in coordinates: %d\n", r.Precision.Max)
		if r.Precision.Warning {
			b.WriteString("   - WARNING: High coordinate precision may cause computation issues\n")
		}
	} else {
		b.WriteString("   - No coordinates sampled\n")
	}

	if len(r.Skipped) > 0 {
		b.WriteString("\nSKIPPED FEATURES:\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "   - Feature %s (index %d): %v\n", s.Key, s.Index, s.Err)
		}
	}

	fmt.Fprintf(&b, "\n%s\nSUMMARY OF TOPOLOGICAL ISSUES:\n", rule)
	fmt.Fprintf(&b, "1. Invalid geometries: %d\n", r.Totals.Invalid)
	fmt.Fprintf(&b, "2. Self-intersections: %d\n", r.Totals.SelfIntersections)
	fmt.Fprintf(&b, "3. Ring orientation issues: %d\n", r.Totals.OrientationIssues)
	fmt.Fprintf(&b, "4. Very close vertices: %d\n", r.Totals.CloseVertices)
	fmt.Fprintf(&b, "5. Duplicate vertices: %d\n", r.Totals.DuplicateVertices)
	fmt.Fprintf(&b, "6. Very small geometries: %d\n", r.Totals.SmallGeometries)
	fmt.Fprintf(&b, "7. Overlapping geometries in sample: %d\n", r.Totals.Overlaps)
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// SummaryOptions carries thresholds echoed in the summary text.
type SummaryOptions struct {
	SmallArea float64
}

func geometryTypes(types map[string]int) string {
	if len(types) == 0 {
		return "none"
	}

	parts := make([]string, 0, len(types))
	for _, t := range slices.Sorted(maps.Keys(types)) {
		parts = append(parts, fmt.Sprintf("%s: %d", t, types[t]))
	}
	return strings.Join(parts, ", ")
}
