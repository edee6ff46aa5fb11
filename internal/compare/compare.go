// Package compare measures how many self-intersections survive a transform.
package compare

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
)

// Row is the comparison of a single feature.
type Row struct {
	Key       string
	Before    bool
	After     bool
	Preserved bool // flagged before and still flagged after
}

// Result holds the rows and the preservation counters.
type Result struct {
	Rows []Row

	// Intersecting is the number of compared features flagged before the transform.
	Intersecting int
	// Preserved is how many of those are still flagged after it.
	Preserved int
	// Missing lists keys present before but absent after.
	Missing []string
}

// Compare joins both sides by key. Keys only present on one side are excluded.
func Compare(before, after map[string]bool) Result {
	var res Result

	keys := make([]string, 0, len(before))
	for k := range before {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		a, ok := after[k]
		if !ok {
			res.Missing = append(res.Missing, k)
			continue
		}

		b := before[k]
		row := Row{Key: k, Before: b, After: a, Preserved: b && a}
		res.Rows = append(res.Rows, row)

		if b {
			res.Intersecting++
			if a {
				res.Preserved++
			}
		}
	}

	return res
}

// Defined reports whether there was anything to preserve.
func (r Result) Defined() bool {
	return r.Intersecting > 0
}

// Rate is Preserved/Intersecting, zero when nothing was intersecting.
func (r Result) Rate() float64 {
	if !r.Defined() {
		return 0
	}
	return float64(r.Preserved) / float64(r.Intersecting)
}

// WriteTable renders the comparison as an aligned text table followed by the rate.
func (r Result) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Feature ID\tOriginal\tSimplified\tPreserved?")
	for _, row := range r.Rows {
		preserved := "-"
		if row.Before {
			preserved = yesNo(row.Preserved, "Yes", "NO")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			row.Key, yesNo(row.Before, "Yes", "No"), yesNo(row.After, "Yes", "No"), preserved)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !r.Defined() {
		_, err := fmt.Fprintf(w, "\nPreservation rate: undefined (0/0), reported as 0\n")
		return err
	}

	_, err := fmt.Fprintf(w, "\nPreservation rate: %d/%d (%.1f%%)\n", r.Preserved, r.Intersecting, r.Rate()*100)
	return err
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
