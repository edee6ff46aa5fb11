package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"
)

//go:embed templates/report.html.tmpl
var pageTemplate string

//go:embed templates/style.css
var pageStyle string

var page = template.Must(template.New("report").Parse(pageTemplate))

// Page is the content of an HTML report.
type Page struct {
	Title   string
	Summary string // preformatted text, e.g. the topology summary
	Table   string // preformatted comparison table
	Rows    [][]Panel
}

type pageData struct {
	Title   string
	CSS     template.CSS
	Summary string
	Table   string
	Rows    [][]figureData
}

type figureData struct {
	Title string
	Lost  bool
	SVG   template.HTML
}

// HTMLWriter renders minified HTML reports with inline SVG panels.
type HTMLWriter struct {
	m      *minify.M
	width  int
	height int
}

// NewHTMLWriter creates a writer producing panels of the plot option size.
func NewHTMLWriter(opts PlotOptions) *HTMLWriter {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	return &HTMLWriter{
		m:      m,
		width:  max(opts.PanelWidth, 100),
		height: max(opts.PanelHeight, 100),
	}
}

// Write renders p to w.
func (hw *HTMLWriter) Write(w io.Writer, p Page) error {
	cssMin, err := hw.m.String("text/css", pageStyle)
	if err != nil {
		return fmt.Errorf("minify css: %w", err)
	}

	data := pageData{
		Title:   p.Title,
		CSS:     template.CSS(cssMin),
		Summary: p.Summary,
		Table:   p.Table,
	}

	for _, row := range p.Rows {
		figures := make([]figureData, 0, len(row))
		for _, panel := range row {
			svgMin, err := hw.m.String("image/svg+xml", PanelSVG(panel, hw.width, hw.height))
			if err != nil {
				return fmt.Errorf("minify svg %q: %w", panel.Title, err)
			}

			figures = append(figures, figureData{
				Title: panel.Title,
				Lost:  strings.HasSuffix(panel.Title, PreservedLabel(false)),
				SVG:   template.HTML(svgMin),
			})
		}
		data.Rows = append(data.Rows, figures)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	return hw.m.Minify("text/html", w, &buf)
}
