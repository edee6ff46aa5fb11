package report

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/woozymasta/topoprobe/internal/geo"
)

// PanelSVG renders a panel as a standalone SVG element of w x h user units.
func PanelSVG(p Panel, w, h int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`, w, h, w, h)

	for i := 1; i < gridLines; i++ {
		x, y := w*i/gridLines, h*i/gridLines
		fmt.Fprintf(&b, `<line x1="%d" y1="0" x2="%d" y2="%d" stroke="%s"/>`, x, x, h, hex(gridColor))
		fmt.Fprintf(&b, `<line x1="0" y1="%d" x2="%d" y2="%d" stroke="%s"/>`, y, w, y, hex(gridColor))
	}

	if p.Geometry != nil {
		if polys, err := geo.Polygons(p.Geometry); err == nil {
			proj := newProjection(p.Geometry.Bound(), float64(w), float64(h))

			var d strings.Builder
			for _, r := range geo.Rings(polys) {
				for i, pt := range r {
					x, y := proj.apply(pt)
					if i == 0 {
						d.WriteString("M")
					} else {
						d.WriteString("L")
					}
					d.WriteString(num(x) + " " + num(y))
				}
				d.WriteString("Z")
			}

			c := hex(p.Color)
			fmt.Fprintf(&b, `<path d="%s" fill="%s" fill-opacity="0.1" fill-rule="evenodd" stroke="%s" stroke-width="1.5"/>`,
				d.String(), c, c)

			for _, m := range p.Markers {
				x, y := proj.apply(m)
				fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="4" fill="none" stroke="#000" stroke-width="1.5"/>`, num(x), num(y))
			}
		}
	}

	if p.Note != "" {
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" fill="%s">%s</text>`,
			w/2, h/2, hex(Red), escapeXML(p.Note))
	}

	b.WriteString("</svg>")
	return b.String()
}

func num(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 2, 32)
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
