package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the chart handlers and the transport layer
var (
	ErrUnknownCountry = errors.New("unknown country")
	ErrInvalidControl = errors.New("invalid control value")
	ErrUnknownControl = errors.New("unknown control")
)

// ControlID names a UI control or output component
// ⭐ SSOT: ids match the element ids of the dashboard page
type ControlID string

// Inputs
const (
	ControlSlider         ControlID = "slider"
	ControlCovidCountries ControlID = "covid-country-dd"
	ControlXAxis          ControlID = "x-axis"
	ControlYAxis          ControlID = "y-axis"
	ControlPointsSize     ControlID = "points-size"
	ControlFoodCountry    ControlID = "food-country-dd"
	ControlFoodCategory   ControlID = "food-cat"
	ControlMap            ControlID = "map"
)

// Outputs
const (
	OutputConfirmed   ControlID = "confirmed"
	OutputDeaths      ControlID = "deaths"
	OutputActive      ControlID = "active"
	OutputMortality   ControlID = "mortality"
	OutputCovidTable  ControlID = "dt-covid"
	OutputCustomGraph ControlID = "custom-graph"
	OutputFoodPie     ControlID = "food-pie"
	OutputVegVAnimal  ControlID = "veg-v-animal"
	OutputMap         ControlID = "map"
	OutputObesity     ControlID = "obesity"
	OutputUnder       ControlID = "under"
	OutputAP          ControlID = "AP"
	OutputMapText     ControlID = "ftext"
)

// String returns the id
func (c ControlID) String() string {
	return string(c)
}

// RankWindow is an inclusive 1-based range of sorted positions
type RankWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate rejects reversed windows. Windows outside [1,n] are valid
// and clip to the dataset bounds.
func (w RankWindow) Validate() error {
	if w.End < w.Start {
		return fmt.Errorf("%w: rank window [%d,%d]", ErrInvalidControl, w.Start, w.End)
	}
	return nil
}

// Bounds converts the window to half-open slice bounds over n sorted
// rows. lo == hi when nothing is selected.
func (w RankWindow) Bounds(n int) (lo, hi int) {
	lo, hi = w.Start-1, w.End
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if hi < 0 {
		hi = 0
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// ClickData is the map click payload: the first point's hover text
// carries the country display name.
type ClickData struct {
	Points []ClickPoint `json:"points"`
}

// ClickPoint is one clicked map location
type ClickPoint struct {
	HoverText string `json:"hovertext"`
	Location  string `json:"location,omitempty"`
}

// Country returns the clicked country name
func (c *ClickData) Country() (string, error) {
	if c == nil || len(c.Points) == 0 || c.Points[0].HoverText == "" {
		return "", fmt.Errorf("%w: click payload without hovertext", ErrInvalidControl)
	}
	return c.Points[0].HoverText, nil
}

// AxisKeys are the values offered for the custom scatter axes and size
var AxisKeys = []string{ColDeaths, ColConfirmed, ColActive, ColObesity}

// MapMetrics are the values offered for the choropleth color
var MapMetrics = []string{
	ColDeaths,
	ColConfirmed,
	ColActive,
	ColObesity,
	ColUndernourished,
	ColAnimalProducts,
	ColVegetalProducts,
}

// RankMetrics are the keys of the four ranked bar charts, in output order
var RankMetrics = []string{ColConfirmed, ColDeaths, ColActive, ColMortality}

// IsAxisKey reports whether key is a valid scatter axis/size key
func IsAxisKey(key string) bool {
	return contains(AxisKeys, key)
}

// IsMapMetric reports whether key is a valid choropleth metric
func IsMapMetric(key string) bool {
	return contains(MapMetrics, key)
}

// OptionsOf builds (label, value) pairs where label == value
func OptionsOf(values []string) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Label: v, Value: v}
	}
	return opts
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
