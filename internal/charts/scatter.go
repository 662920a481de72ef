package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
)

// ScatterOptions describes one scatter figure
type ScatterOptions struct {
	X, Y, Size string
	Title      string
	SizeMax    int  // 0 leaves sizes unscaled
	Trendline  bool // add an OLS fit
}

// CustomScatter draws the user-configured scatter. Sizing by Obesity
// skips size scaling: its values are already usable pixel diameters and
// scaling them renders unreadable points.
func CustomScatter(ds *dataset.Dataset, x, y, size string) (contracts.Figure, error) {
	for _, key := range []string{x, y, size} {
		if !contracts.IsAxisKey(key) {
			return contracts.Figure{}, fmt.Errorf("%w: axis %q", contracts.ErrInvalidControl, key)
		}
	}

	opts := ScatterOptions{X: x, Y: y, Size: size, Trendline: true}
	if size != contracts.ColObesity {
		opts.SizeMax = DefaultSizeMax
	}
	return Scatter(ds, opts), nil
}

// Scatter draws one point per country. Non-finite sizes are sent as
// null and do not take part in scaling.
func Scatter(ds *dataset.Dataset, opts ScatterOptions) contracts.Figure {
	xs := column(ds, opts.X)
	ys := column(ds, opts.Y)

	trace := contracts.Trace{
		Type:      contracts.TraceScatter,
		Mode:      "markers",
		X:         xs,
		Y:         ys,
		HoverText: countryNames(ds),
		Marker:    &contracts.Marker{},
	}

	if opts.Size != "" {
		sizes := column(ds, opts.Size)
		trace.Marker.Size = sizes
		if opts.SizeMax > 0 {
			if max, ok := finiteMax(sizes); ok && max > 0 {
				trace.Marker.SizeMode = "area"
				trace.Marker.SizeRef = SizeRef(max, opts.SizeMax)
			}
		}
	}

	fig := contracts.Figure{
		Data: []contracts.Trace{trace},
		Layout: contracts.Layout{
			Title:    opts.Title,
			Template: TemplateSimpleWhite,
			XAxis:    &contracts.Axis{Title: opts.X},
			YAxis:    &contracts.Axis{Title: opts.Y},
		},
	}

	if opts.Trendline {
		if line, ok := Trendline(xs, ys); ok {
			fig.Data = append(fig.Data, line)
		}
	}
	return fig
}

// SizeRef maps the largest size value to a sizeMax pixel diameter with
// area sizing
func SizeRef(maxValue float64, sizeMax int) float64 {
	return 2 * maxValue / float64(sizeMax*sizeMax)
}

// Trendline fits y = alpha + beta*x by ordinary least squares over the
// finite pairs and returns it as a two-point line trace.
// False when fewer than two distinct x values remain.
func Trendline(xs, ys []float64) (contracts.Trace, bool) {
	fx := make([]float64, 0, len(xs))
	fy := make([]float64, 0, len(ys))
	for i := range xs {
		if i >= len(ys) || !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		fx = append(fx, xs[i])
		fy = append(fy, ys[i])
	}
	if len(fx) < 2 {
		return contracts.Trace{}, false
	}

	lo, hi := fx[0], fx[0]
	for _, v := range fx {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return contracts.Trace{}, false
	}

	alpha, beta := stat.LinearRegression(fx, fy, nil, false)

	return contracts.Trace{
		Type: contracts.TraceScatter,
		Mode: "lines",
		Name: "OLS trendline",
		X:    contracts.Numbers{lo, hi},
		Y:    contracts.Numbers{alpha + beta*lo, alpha + beta*hi},
	}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
