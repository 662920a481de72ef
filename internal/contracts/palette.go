package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ColorScale is a named continuous palette. Known names encode as the
// explicit [[stop, color], ...] list because plotly.js only knows a few
// palettes by name; unknown names encode as the bare string.
type ColorScale string

// namedScales are the palettes as plotly express resolves them
var namedScales = map[ColorScale][]string{
	// cmocean
	"balance": {
		"rgb(23, 28, 66)", "rgb(41, 58, 143)", "rgb(11, 102, 189)", "rgb(69, 144, 185)",
		"rgb(142, 181, 194)", "rgb(210, 216, 219)", "rgb(230, 210, 204)", "rgb(213, 157, 137)",
		"rgb(196, 104, 70)", "rgb(166, 43, 19)", "rgb(100, 14, 39)", "rgb(60, 9, 17)",
	},
	// colorbrewer sequential
	"Reds": {
		"rgb(255,245,240)", "rgb(254,224,210)", "rgb(252,187,161)", "rgb(252,146,114)",
		"rgb(251,106,74)", "rgb(239,59,44)", "rgb(203,24,29)", "rgb(165,15,21)", "rgb(103,0,13)",
	},
	// carto diverging
	"Armyrose": {
		"rgb(121, 130, 52)", "rgb(163, 173, 98)", "rgb(208, 211, 162)", "rgb(253, 251, 228)",
		"rgb(240, 198, 195)", "rgb(212, 140, 132)", "rgb(164, 90, 82)",
	},
	// colorbrewer diverging
	"PRGn": {
		"rgb(64,0,75)", "rgb(118,42,131)", "rgb(153,112,171)", "rgb(194,165,207)",
		"rgb(231,212,232)", "rgb(247,247,247)", "rgb(217,240,211)", "rgb(166,219,160)",
		"rgb(90,174,97)", "rgb(27,120,55)", "rgb(0,68,27)",
	},
}

// Stops returns the evenly spaced [stop, color] pairs of a known palette
func (c ColorScale) Stops() ([][2]interface{}, bool) {
	colors, ok := namedScales[c]
	if !ok {
		return nil, false
	}
	stops := make([][2]interface{}, len(colors))
	last := float64(len(colors) - 1)
	for i, col := range colors {
		stops[i] = [2]interface{}{float64(i) / last, col}
	}
	return stops, true
}

// MarshalJSON writes the stop list for known palettes
func (c ColorScale) MarshalJSON() ([]byte, error) {
	if stops, ok := c.Stops(); ok {
		return json.Marshal(stops)
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts a palette name or a stop list of a known palette
func (c *ColorScale) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = ColorScale(name)
		return nil
	}
	for known := range namedScales {
		if sameJSON(data, known) {
			*c = known
			return nil
		}
	}
	return fmt.Errorf("unknown colorscale %s", data)
}

// Template is a named figure template. plotly.js ignores template names,
// so known templates encode as their layout object.
type Template string

// TemplateSimpleWhite is plotly's white template: no grid, outside
// ticks, axis lines drawn
const TemplateSimpleWhite Template = "simple_white"

var simpleWhiteAxis = map[string]interface{}{
	"automargin": true,
	"showgrid":   false,
	"showline":   true,
	"linecolor":  "rgb(36,36,36)",
	"ticks":      "outside",
	"tickcolor":  "rgb(36,36,36)",
	"zeroline":   false,
}

var namedTemplates = map[Template]map[string]interface{}{
	TemplateSimpleWhite: {
		"layout": map[string]interface{}{
			"paper_bgcolor": "white",
			"plot_bgcolor":  "white",
			"xaxis":         simpleWhiteAxis,
			"yaxis":         simpleWhiteAxis,
			"colorway": []string{
				"#1F77B4", "#FF7F0E", "#2CA02C", "#D62728", "#9467BD",
				"#8C564B", "#E377C2", "#7F7F7F", "#BCBD22", "#17BECF",
			},
		},
	},
}

// MarshalJSON writes the template object for known templates
func (t Template) MarshalJSON() ([]byte, error) {
	if obj, ok := namedTemplates[t]; ok {
		return json.Marshal(obj)
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts a template name or a known template object
func (t *Template) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = Template(name)
		return nil
	}
	for known := range namedTemplates {
		if sameJSON(data, known) {
			*t = known
			return nil
		}
	}
	return fmt.Errorf("unknown template %s", data)
}

// sameJSON reports whether data encodes the same value as v
func sameJSON(data []byte, v json.Marshaler) bool {
	want, err := v.MarshalJSON()
	if err != nil {
		return false
	}
	return bytes.Equal(canonical(data), canonical(want))
}

// canonical re-encodes data with sorted keys and normalized numbers
func canonical(data []byte) []byte {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return out
}
