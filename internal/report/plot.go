package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/woozymasta/topoprobe/internal/geo"
)

var (
	// ErrEmptyFigure is returned when there is nothing to render.
	ErrEmptyFigure = errors.New("figure has no panels")
	// ErrUnsupportedFormat is returned for image extensions other than .png and .webp.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Plot colors.
var (
	Red  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	Blue = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

	gridColor  = color.RGBA{R: 0xe4, G: 0xe4, B: 0xe4, A: 0xff}
	frameColor = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
)

const (
	titleHeight = 24
	panelPad    = 16
	gridLines   = 5
	fillAlpha   = 26 // about 10% opacity
)

// Panel is a single plot cell: one geometry outlined and lightly filled.
type Panel struct {
	Title    string
	Geometry orb.Geometry
	Color    color.RGBA
	Markers  []orb.Point // highlighted points, e.g. crossings
	Note     string      // centered text, shown instead of an empty plot
}

// PlotOptions controls raster output.
type PlotOptions struct {
	PanelWidth  int
	PanelHeight int
	Supersample int // geometry is drawn this many times larger and scaled down
	Quality     float32
	Lossless    bool
}

// DefaultPlotOptions returns the options used by the command line tools.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{
		PanelWidth:  520,
		PanelHeight: 400,
		Supersample: 3,
		Quality:     85,
	}
}

// Render draws the panel grid. Rows may have different lengths.
func Render(rows [][]Panel, opts PlotOptions) (*image.RGBA, error) {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil, ErrEmptyFigure
	}

	pw, ph := max(opts.PanelWidth, 2*panelPad+16), max(opts.PanelHeight, titleHeight+panelPad+16)
	s := max(1, opts.Supersample)
	w, h := cols*pw, len(rows)*ph

	big := image.NewRGBA(image.Rect(0, 0, w*s, h*s))
	draw.Draw(big, big.Bounds(), image.White, image.Point{}, draw.Src)

	for ri, row := range rows {
		for ci, p := range row {
			area := plotArea(ci, ri, pw, ph)
			drawPanel(big, image.Rect(area.Min.X*s, area.Min.Y*s, area.Max.X*s, area.Max.Y*s), p, float32(s))
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), draw.Src, nil)

	// text is drawn after scaling, the bitmap font does not survive downsampling
	for ri, row := range rows {
		for ci, p := range row {
			area := plotArea(ci, ri, pw, ph)
			drawText(out, area.Min.X, area.Min.Y-8, fitText(p.Title, area.Dx()), color.Black)

			if p.Note != "" {
				note := fitText(p.Note, area.Dx())
				tw := font.MeasureString(basicfont.Face7x13, note).Ceil()
				drawText(out, area.Min.X+(area.Dx()-tw)/2, area.Min.Y+area.Dy()/2, note, Red)
			}
		}
	}

	return out, nil
}

// SaveImage encodes img as PNG or WebP depending on the path extension.
func SaveImage(path string, img image.Image, opts PlotOptions) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".webp" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	var buf bytes.Buffer
	var err error
	if ext == ".webp" {
		err = webp.Encode(&buf, img, &webp.Options{Lossless: opts.Lossless, Quality: opts.Quality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return err
	}

	return geo.WriteFile(path, buf.Bytes())
}

func plotArea(col, row, pw, ph int) image.Rectangle {
	x, y := col*pw, row*ph
	return image.Rect(x+panelPad, y+titleHeight, x+pw-panelPad, y+ph-panelPad)
}

func drawPanel(dst *image.RGBA, area image.Rectangle, p Panel, s float32) {
	line := max(1, int(s))

	for i := 1; i < gridLines; i++ {
		x := area.Min.X + area.Dx()*i/gridLines
		y := area.Min.Y + area.Dy()*i/gridLines
		fillRect(dst, image.Rect(x, area.Min.Y, x+line, area.Max.Y), gridColor)
		fillRect(dst, image.Rect(area.Min.X, y, area.Max.X, y+line), gridColor)
	}

	fillRect(dst, image.Rect(area.Min.X, area.Min.Y, area.Max.X, area.Min.Y+line), frameColor)
	fillRect(dst, image.Rect(area.Min.X, area.Max.Y-line, area.Max.X, area.Max.Y), frameColor)
	fillRect(dst, image.Rect(area.Min.X, area.Min.Y, area.Min.X+line, area.Max.Y), frameColor)
	fillRect(dst, image.Rect(area.Max.X-line, area.Min.Y, area.Max.X, area.Max.Y), frameColor)

	if p.Geometry == nil {
		return
	}
	polys, err := geo.Polygons(p.Geometry)
	if err != nil {
		log.Debug().Err(err).Str("panel", p.Title).Msg("Panel geometry not drawn")
		return
	}

	proj := newProjection(p.Geometry.Bound(), float64(area.Dx()), float64(area.Dy()))
	rings := geo.Rings(polys)
	z := vector.NewRasterizer(area.Dx(), area.Dy())

	for _, r := range rings {
		for i, pt := range r {
			x, y := proj.apply(pt)
			if i == 0 {
				z.MoveTo(x, y)
			} else {
				z.LineTo(x, y)
			}
		}
		z.ClosePath()
	}
	fill := color.NRGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: fillAlpha}
	z.Draw(dst, area, image.NewUniform(fill), image.Point{})

	z.Reset(area.Dx(), area.Dy())
	hw := 0.75 * s
	for _, r := range rings {
		for i := 0; i+1 < len(r); i++ {
			ax, ay := proj.apply(r[i])
			bx, by := proj.apply(r[i+1])
			segment(z, ax, ay, bx, by, hw)
			square(z, ax, ay, hw)
		}
	}
	z.Draw(dst, area, image.NewUniform(p.Color), image.Point{})

	if len(p.Markers) > 0 {
		z.Reset(area.Dx(), area.Dy())
		for _, m := range p.Markers {
			x, y := proj.apply(m)
			square(z, x, y, 3*s)
		}
		z.Draw(dst, area, image.Black, image.Point{})
	}
}

// segment adds a clockwise quad of half width hw around a-b.
func segment(z *vector.Rasterizer, ax, ay, bx, by, hw float32) {
	dx, dy := bx-ax, by-ay
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw

	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}

// square adds a joint cap with the same winding as segment.
func square(z *vector.Rasterizer, x, y, hw float32) {
	z.MoveTo(x-hw, y-hw)
	z.LineTo(x-hw, y+hw)
	z.LineTo(x+hw, y+hw)
	z.LineTo(x+hw, y-hw)
	z.ClosePath()
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawText(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func fitText(s string, width int) string {
	if font.MeasureString(basicfont.Face7x13, s).Ceil() <= width {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		t := string(runes) + "..."
		if font.MeasureString(basicfont.Face7x13, t).Ceil() <= width {
			return t
		}
	}
	return ""
}

// projection maps geometry coordinates to pixel space, y pointing down,
// keeping the aspect ratio and centering the bound.
type projection struct {
	minX, maxY float64
	k          float64
	offX, offY float64
}

func newProjection(b orb.Bound, w, h float64) projection {
	const margin = 0.05

	dx := max(b.Max[0]-b.Min[0], 1e-12)
	dy := max(b.Max[1]-b.Min[1], 1e-12)
	k := min(w*(1-2*margin)/dx, h*(1-2*margin)/dy)

	return projection{
		minX: b.Min[0],
		maxY: b.Max[1],
		k:    k,
		offX: (w - (b.Max[0]-b.Min[0])*k) / 2,
		offY: (h - (b.Max[1]-b.Min[1])*k) / 2,
	}
}

func (p projection) apply(pt orb.Point) (float32, float32) {
	return float32(p.offX + (pt[0]-p.minX)*p.k), float32(p.offY + (p.maxY-pt[1])*p.k)
}
