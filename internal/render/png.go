// Package render turns dashboard figures and tables into files: PNG
// images for bar, scatter and histogram figures and XLSX workbooks for
// tables.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/wonny/dietdash/internal/contracts"
)

// ErrUnsupported is returned for figures without a static rendering
var ErrUnsupported = errors.New("figure type has no image rendering")

// Default image size
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// namedColors covers the color names used by the chart builders
var namedColors = map[string]color.RGBA{
	"indianred":    {R: 205, G: 92, B: 92, A: 255},
	"darkseagreen": {R: 143, G: 188, B: 143, A: 255},
	"crimson":      {R: 220, G: 20, B: 60, A: 255},
	"darkblue":     {R: 0, G: 0, B: 139, A: 255},
}

var defaultBarColor = color.RGBA{R: 99, G: 110, B: 250, A: 255}

// PNG draws fig and writes it as a PNG image
func PNG(w io.Writer, fig contracts.Figure, width, height vg.Length) error {
	if len(fig.Data) == 0 {
		return fmt.Errorf("%w: empty figure", ErrUnsupported)
	}

	p := plot.New()
	p.Title.Text = strings.ReplaceAll(fig.Layout.Title, "<br>", "\n")
	if fig.Layout.XAxis != nil {
		p.X.Label.Text = fig.Layout.XAxis.Title
	}
	if fig.Layout.YAxis != nil {
		p.Y.Label.Text = fig.Layout.YAxis.Title
	}

	var err error
	switch fig.Data[0].Type {
	case contracts.TraceBar:
		err = addBars(p, fig)
	case contracts.TraceScatter:
		err = addScatter(p, fig)
	case contracts.TraceHistogram:
		err = addHistograms(p, fig)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, fig.Data[0].Type)
	}
	if err != nil {
		return err
	}

	if err := addShapes(p, fig.Layout.Shapes); err != nil {
		return err
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// addBars lays every bar trace over one shared category axis. Grouped
// traces sit side by side; others share a slot.
func addBars(p *plot.Plot, fig contracts.Figure) error {
	var categories []string
	index := make(map[string]int)
	for _, tr := range fig.Data {
		for _, c := range categoriesOf(tr.X) {
			if _, ok := index[c]; !ok {
				index[c] = len(categories)
				categories = append(categories, c)
			}
		}
	}

	// an empty rank window is a valid chart: titled, no bars
	if len(categories) == 0 {
		return nil
	}

	barWidth := vg.Points(12)
	if len(categories) > 40 {
		barWidth = vg.Points(4)
	}
	grouped := fig.Layout.BarMode == "group" && len(fig.Data) > 1

	for ti, tr := range fig.Data {
		cats := categoriesOf(tr.X)
		ys := numbersOf(tr.Y)

		// one chart per color so each bar keeps its own
		byColor := make(map[color.RGBA]plotter.Values)
		var order []color.RGBA
		for i, c := range cats {
			if i >= len(ys) {
				break
			}
			col := barColor(tr, i, ti)
			vals, ok := byColor[col]
			if !ok {
				vals = make(plotter.Values, len(categories))
				order = append(order, col)
			}
			vals[index[c]] = finiteOrZero(ys[i])
			byColor[col] = vals
		}

		for _, col := range order {
			bars, err := plotter.NewBarChart(byColor[col], barWidth)
			if err != nil {
				return fmt.Errorf("bar chart: %w", err)
			}
			bars.Color = col
			bars.LineStyle.Width = vg.Length(0)
			if grouped {
				bars.Offset = barWidth * vg.Length(ti-len(fig.Data)/2)
			}
			p.Add(bars)
			if tr.Name != "" && col == order[0] {
				p.Legend.Add(tr.Name, bars)
			}
		}
	}

	p.NominalX(categories...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight
	return nil
}

func addScatter(p *plot.Plot, fig contracts.Figure) error {
	for ti, tr := range fig.Data {
		xy := finitePairs(numbersOf(tr.X), numbersOf(tr.Y))
		if len(xy) == 0 {
			continue
		}

		if tr.Mode == "lines" {
			line, err := plotter.NewLine(xy)
			if err != nil {
				return fmt.Errorf("line: %w", err)
			}
			line.LineStyle.Width = vg.Points(2)
			line.LineStyle.Color = plotutil.Color(ti)
			p.Add(line)
			if tr.Name != "" {
				p.Legend.Add(tr.Name, line)
			}
			continue
		}

		sc, err := plotter.NewScatter(xy)
		if err != nil {
			return fmt.Errorf("scatter: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Color = plotutil.Color(ti)
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
	}
	p.Add(plotter.NewGrid())
	return nil
}

func addHistograms(p *plot.Plot, fig contracts.Figure) error {
	for ti, tr := range fig.Data {
		var vals plotter.Values
		for _, v := range numbersOf(tr.X) {
			if finite(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}

		bins := tr.NBinsX
		if bins <= 0 {
			bins = 20
		}
		h, err := plotter.NewHist(vals, bins)
		if err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
		h.FillColor = plotutil.Color(ti)
		h.LineStyle.Width = vg.Length(0)
		p.Add(h)
		if tr.Name != "" {
			p.Legend.Add(tr.Name, h)
		}
	}
	return nil
}

func addShapes(p *plot.Plot, shapes []contracts.Shape) error {
	for _, s := range shapes {
		if s.Type != "line" {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{{X: s.X0, Y: s.Y0}, {X: s.X1, Y: s.Y1}})
		if err != nil {
			return fmt.Errorf("shape: %w", err)
		}
		line.LineStyle.Color = ParseColor(s.Line.Color, color.RGBA{A: 255})
		line.LineStyle.Width = vg.Points(s.Line.Width)
		p.Add(line)
	}
	return nil
}

// ParseColor understands #rrggbb and the named colors of the chart
// builders; anything else gives fallback
func ParseColor(s string, fallback color.RGBA) color.RGBA {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c
	}
	if len(s) == 7 && s[0] == '#' {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
		}
	}
	return fallback
}

func barColor(tr contracts.Trace, i, traceIndex int) color.RGBA {
	fallback := defaultBarColor
	if traceIndex > 0 {
		fallback = toRGBA(plotutil.Color(traceIndex))
	}
	if tr.Marker == nil {
		return fallback
	}
	switch c := tr.Marker.Color.(type) {
	case string:
		return ParseColor(c, fallback)
	case []string:
		if i < len(c) {
			return ParseColor(c[i], fallback)
		}
	case []interface{}:
		if i < len(c) {
			if s, ok := c[i].(string); ok {
				return ParseColor(s, fallback)
			}
		}
	}
	return fallback
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func categoriesOf(v interface{}) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return nil
}

func numbersOf(v interface{}) []float64 {
	switch x := v.(type) {
	case contracts.Numbers:
		return x
	case []float64:
		return x
	}
	return nil
}

func finitePairs(xs, ys []float64) plotter.XYs {
	var out plotter.XYs
	for i := range xs {
		if i < len(ys) && finite(xs[i]) && finite(ys[i]) {
			out = append(out, plotter.XY{X: xs[i], Y: ys[i]})
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if finite(v) {
		return v
	}
	return 0
}
