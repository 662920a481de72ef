// Package charts builds the dashboard's figures. Every function is a pure
// mapping from control values and the shared dataset to a figure.
package charts

import (
	"math"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
)

// Plot templates and colors used across figures
const (
	TemplateSimpleWhite = contracts.TemplateSimpleWhite

	ColorHighlight = "#ff0000"
	ColorDefault   = "#00cc44"
	ColorAnimal    = "IndianRed"
	ColorVegetal   = "DarkSeaGreen"
	ColorHigh      = "crimson"
	ColorLow       = "darkblue"
)

// DefaultSizeMax is the largest marker diameter of scaled scatter points
const DefaultSizeMax = 30

// Empty returns the placeholder figure
func Empty() contracts.Figure {
	return contracts.Figure{}
}

// barFigure draws one value per record, labelled by country
func barFigure(records []contracts.Record, column, title string) contracts.Figure {
	x := make([]string, len(records))
	y := make(contracts.Numbers, len(records))
	for i := range records {
		x[i] = records[i].Country
		y[i], _ = records[i].Value(column)
	}

	return contracts.Figure{
		Data: []contracts.Trace{{
			Type: contracts.TraceBar,
			Name: column,
			X:    x,
			Y:    y,
		}},
		Layout: contracts.Layout{
			Title: title,
			XAxis: &contracts.Axis{Title: contracts.ColCountry},
			YAxis: &contracts.Axis{Title: column},
		},
	}
}

// column returns the named column of ds; callers validate the name first
func column(ds *dataset.Dataset, name string) contracts.Numbers {
	values, _ := ds.Column(name)
	return contracts.Numbers(values)
}

func countryNames(ds *dataset.Dataset) []string {
	recs := ds.Records()
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = recs[i].Country
	}
	return out
}

func finiteMax(values []float64) (float64, bool) {
	max, found := math.Inf(-1), false
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v > max {
			max = v
		}
		found = true
	}
	return max, found
}
