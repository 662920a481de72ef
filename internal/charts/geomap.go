package charts

import (
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
)

// MapPrompt is the map text shown before any click
const MapPrompt = "Select a country by clicking on map."

// colorScales picks the choropleth palette per metric
var colorScales = map[string]contracts.ColorScale{
	contracts.ColDeaths:          "balance",
	contracts.ColConfirmed:       "balance",
	contracts.ColActive:          "balance",
	contracts.ColObesity:         "Reds",
	contracts.ColUndernourished:  "Reds",
	contracts.ColAnimalProducts:  "Armyrose",
	contracts.ColVegetalProducts: "PRGn",
}

// ColorScale returns the palette name of metric
func ColorScale(metric string) (contracts.ColorScale, bool) {
	scale, ok := colorScales[metric]
	return scale, ok
}

// Choropleth colors the world map by metric. Countries without an ISO
// code are left off the map.
func Choropleth(ds *dataset.Dataset, metric string) (contracts.Figure, error) {
	scale, ok := ColorScale(metric)
	if !ok {
		return contracts.Figure{}, fmt.Errorf("%w: map metric %q", contracts.ErrInvalidControl, metric)
	}

	var (
		locations []string
		names     []string
		z         contracts.Numbers
	)
	for _, rec := range ds.Records() {
		if !rec.HasCode() {
			continue
		}
		v, _ := rec.Value(metric)
		locations = append(locations, rec.ISOAlpha3)
		names = append(names, rec.Country)
		z = append(z, v)
	}

	return contracts.Figure{
		Data: []contracts.Trace{{
			Type:       contracts.TraceChoropleth,
			Name:       metric,
			Locations:  locations,
			Z:          z,
			HoverText:  names,
			ColorScale: scale,
		}},
		Layout: contracts.Layout{
			Title: metric + " worlwide",
			Geo:   &contracts.Geo{Projection: contracts.Projection{Type: "natural earth"}},
		},
	}, nil
}

// clickFeatures are the drill-down charts, in output order
var clickFeatures = []string{
	contracts.ColObesity,
	contracts.ColUndernourished,
	contracts.ColAnimalProducts,
}

// MapClickResult holds the drill-down outputs of a map click
type MapClickResult struct {
	Obesity        contracts.Figure `json:"obesity"`
	Undernourished contracts.Figure `json:"under"`
	AnimalProducts contracts.Figure `json:"AP"`
	Message        string           `json:"ftext"`
}

// Figures returns the three charts in output order
func (r MapClickResult) Figures() []contracts.Figure {
	return []contracts.Figure{r.Obesity, r.Undernourished, r.AnimalProducts}
}

// MapClick draws the drill-down bars for a clicked country. A nil click
// gives three empty figures and the prompt. Bars are matched to the
// clicked country by name, so duplicated values never shift the
// highlight.
func MapClick(ds *dataset.Dataset, click *contracts.ClickData) (MapClickResult, error) {
	if click == nil {
		return MapClickResult{Message: MapPrompt}, nil
	}

	country, err := click.Country()
	if err != nil {
		return MapClickResult{}, err
	}

	figs := make([]contracts.Figure, len(clickFeatures))
	for i, feat := range clickFeatures {
		figs[i] = highlightBar(ds, feat, country)
	}

	return MapClickResult{
		Obesity:        figs[0],
		Undernourished: figs[1],
		AnimalProducts: figs[2],
		Message:        country + " selected - info in red.",
	}, nil
}

func highlightBar(ds *dataset.Dataset, feat, country string) contracts.Figure {
	title := "% of " + feat + " intake (kg)"
	if feat == contracts.ColObesity || feat == contracts.ColUndernourished {
		title = feat + " rate - Percentage of total population"
	}

	sorted, _ := ds.SortedBy(feat)
	colors := make([]string, len(sorted))
	for i := range sorted {
		colors[i] = ColorDefault
		if sorted[i].Country == country {
			colors[i] = ColorHighlight
		}
	}

	fig := barFigure(sorted, feat, title)
	fig.Data[0].Marker = &contracts.Marker{Color: colors}
	fig.Layout.XAxis.CategoryOrder = "total descending"
	return fig
}
