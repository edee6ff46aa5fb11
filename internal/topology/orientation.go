package topology

import (
	"fmt"

	"github.com/paulmach/orb"
)

// OrientationIssues checks the winding of every ring: exteriors must be clockwise,
// holes counter-clockwise. Each failing ring adds one note. A zero-area hole
// fails too, a zero-area exterior does not.
// Part indexes are included in the notes when multi is set.
func OrientationIssues(polys []orb.Polygon, multi bool) []string {
	var notes []string

	for i, poly := range polys {
		prefix := ""
		if multi {
			prefix = fmt.Sprintf("part %d: ", i)
		}

		if poly[0].Orientation() == orb.CCW {
			notes = append(notes, prefix+"exterior ring is counter-clockwise")
		}

		for j, hole := range poly[1:] {
			switch hole.Orientation() {
			case orb.CCW:
			case orb.CW:
				notes = append(notes, fmt.Sprintf("%shole %d is clockwise", prefix, j))
			default:
				notes = append(notes, fmt.Sprintf("%shole %d has no orientation", prefix, j))
			}
		}
	}

	return notes
}
