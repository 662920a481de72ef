package layout

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/wonny/dietdash/internal/charts"
	"github.com/wonny/dietdash/internal/contracts"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// Radio is one single-choice control group
type Radio struct {
	ID       contracts.ControlID
	Legend   string
	Options  []contracts.Option
	Selected string
}

// Page is the data of the dashboard page
type Page struct {
	Layout     *Layout
	Countries  []contracts.Option
	MapOptions []contracts.Option
	Radios     []Radio
	StaticIDs  []string
	SliderMax  int
	Marks      []int
	Initial    template.JS
}

// NewPage builds the page data. initial holds the first-render outputs
// keyed by output id.
func NewPage(l *Layout, countries []contracts.Option, initial interface{}) (*Page, error) {
	data, err := json.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("encode initial outputs: %w", err)
	}

	d := l.Defaults
	axes := contracts.OptionsOf(contracts.AxisKeys)

	return &Page{
		Layout:     l,
		Countries:  countries,
		MapOptions: contracts.OptionsOf(contracts.MapMetrics),
		Radios: []Radio{
			{ID: contracts.ControlXAxis, Legend: "x-axis", Options: axes, Selected: d.XAxis},
			{ID: contracts.ControlYAxis, Legend: "y-axis", Options: axes, Selected: d.YAxis},
			{ID: contracts.ControlPointsSize, Legend: "Size of points", Options: axes, Selected: d.PointsSize},
		},
		StaticIDs: charts.StaticIDs,
		SliderMax: len(countries),
		Marks:     SliderMarks(len(countries), d.SliderStep),
		Initial:   template.JS(data),
	}, nil
}

// IsCovidDefault reports whether country starts selected in the table
func (p *Page) IsCovidDefault(country string) bool {
	for _, c := range p.Layout.Defaults.CovidCountries {
		if c == country {
			return true
		}
	}
	return false
}

// Render writes the page
func (p *Page) Render(w io.Writer) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// SliderMarks returns the labelled slider positions: 1, then every
// step up to max
func SliderMarks(max, step int) []int {
	if max < 1 || step < 1 {
		return nil
	}
	marks := []int{1}
	for m := step; m <= max; m += step {
		marks = append(marks, m)
	}
	return marks
}
