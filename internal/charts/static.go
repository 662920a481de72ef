package charts

import (
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
)

// Static figure ids
const (
	FigureDeathsVsConfirmed = "deaths-v-conf"
	FigureObesityVsDeaths   = "ob-v-deaths"
	FigureAnimalProducts    = "animal-products"
	FigureVegetalProducts   = "vegetal-products"
	FigureDeathsByObesity   = "death-obesity"
)

// StaticIDs lists the figures that take no controls, in page order
var StaticIDs = []string{
	FigureDeathsVsConfirmed,
	FigureObesityVsDeaths,
	FigureAnimalProducts,
	FigureVegetalProducts,
	FigureDeathsByObesity,
}

// histogramBins and histogramLineTop are the product histogram settings
const (
	histogramBins    = 50
	histogramLineTop = 12
)

// Static builds the static figure named id
func Static(ds *dataset.Dataset, id string) (contracts.Figure, error) {
	switch id {
	case FigureDeathsVsConfirmed:
		return DeathsVsConfirmed(ds), nil
	case FigureObesityVsDeaths:
		return ObesityVsDeaths(ds), nil
	case FigureAnimalProducts:
		return ProductHistogram(ds, contracts.ColAnimalProducts), nil
	case FigureVegetalProducts:
		return ProductHistogram(ds, contracts.ColVegetalProducts), nil
	case FigureDeathsByObesity:
		return DeathsByObesity(ds), nil
	}
	return contracts.Figure{}, fmt.Errorf("%w: figure %q", contracts.ErrUnknownControl, id)
}

// DeathsVsConfirmed plots deaths against confirmed cases sized by
// active cases
func DeathsVsConfirmed(ds *dataset.Dataset) contracts.Figure {
	return Scatter(ds, ScatterOptions{
		X:         contracts.ColConfirmed,
		Y:         contracts.ColDeaths,
		Size:      contracts.ColActive,
		Title:     "Deaths vs. Confirmed - Size corresponds to Active cases",
		SizeMax:   DefaultSizeMax,
		Trendline: true,
	})
}

// ObesityVsDeaths plots obesity against deaths sized by mortality, with
// the mean obesity drawn across the plot
func ObesityVsDeaths(ds *dataset.Dataset) contracts.Figure {
	fig := Scatter(ds, ScatterOptions{
		X:       contracts.ColDeaths,
		Y:       contracts.ColObesity,
		Size:    contracts.ColMortality,
		Title:   "Obesity rate vs. Deaths - Size corresponds to Mortality",
		SizeMax: DefaultSizeMax,
	})

	maxDeaths, ok := finiteMax(column(ds, contracts.ColDeaths))
	mean := ds.MeanObesity()
	if !ok || !finite(mean) {
		return fig
	}
	fig.Layout.Shapes = []contracts.Shape{{
		Type: "line",
		X0:   0,
		Y0:   mean,
		X1:   maxDeaths,
		Y1:   mean,
		Line: contracts.ShapeLine{Color: ColorHigh, Width: 4},
	}}
	return fig
}

// ProductHistogram splits the distribution of a product column by the
// above-average obesity flag and marks each group's median
func ProductHistogram(ds *dataset.Dataset, product string) contracts.Figure {
	low := valuesOf(ds.LowObesity(), product)
	high := valuesOf(ds.HighObesity(), product)

	hist := func(name string, values contracts.Numbers) contracts.Trace {
		return contracts.Trace{
			Type:   contracts.TraceHistogram,
			Name:   name,
			X:      values,
			NBinsX: histogramBins,
		}
	}

	vline := func(x float64, color string) contracts.Shape {
		return contracts.Shape{
			Type: "line",
			X0:   x,
			Y0:   0,
			X1:   x,
			Y1:   histogramLineTop,
			Line: contracts.ShapeLine{Color: color, Width: 4},
		}
	}

	var shapes []contracts.Shape
	if m := dataset.Median(low); finite(m) {
		shapes = append(shapes, vline(m, ColorLow))
	}
	if m := dataset.Median(high); finite(m) {
		shapes = append(shapes, vline(m, ColorHigh))
	}

	return contracts.Figure{
		Data: []contracts.Trace{hist("0", low), hist("1", high)},
		Layout: contracts.Layout{
			Title:   product,
			BarMode: "relative",
			XAxis:   &contracts.Axis{Title: product},
			YAxis:   &contracts.Axis{Title: "count"},
			Shapes:  shapes,
		},
	}
}

// DeathsByObesity draws deaths per country in two facets, below-average
// obesity on the left and above-average on the right
func DeathsByObesity(ds *dataset.Dataset) contracts.Figure {
	facet := func(recs []contracts.Record, name, xaxis, yaxis string) contracts.Trace {
		x := make([]string, len(recs))
		y := make(contracts.Numbers, len(recs))
		for i := range recs {
			x[i] = recs[i].Country
			y[i] = recs[i].Deaths
		}
		return contracts.Trace{
			Type:  contracts.TraceBar,
			Name:  name,
			X:     x,
			Y:     y,
			XAxis: xaxis,
			YAxis: yaxis,
		}
	}

	return contracts.Figure{
		Data: []contracts.Trace{
			facet(ds.LowObesity(), contracts.ColObesityAboveAvg+"=0", "x", "y"),
			facet(ds.HighObesity(), contracts.ColObesityAboveAvg+"=1", "x2", "y2"),
		},
		Layout: contracts.Layout{
			XAxis:  &contracts.Axis{Domain: []float64{0, 0.49}, CategoryOrder: "total descending"},
			XAxis2: &contracts.Axis{Domain: []float64{0.51, 1}, CategoryOrder: "total descending", Anchor: "y2"},
			YAxis:  &contracts.Axis{Title: contracts.ColDeaths},
			YAxis2: &contracts.Axis{Anchor: "x2"},
		},
	}
}

func valuesOf(recs []contracts.Record, col string) contracts.Numbers {
	out := make(contracts.Numbers, len(recs))
	for i := range recs {
		out[i], _ = recs[i].Value(col)
	}
	return out
}
