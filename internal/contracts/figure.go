package contracts

// Figure is a chart description in the shape the browser plotting
// library consumes: a list of traces plus a layout.
// The zero Figure is the empty placeholder chart.
type Figure struct {
	Data   []Trace `json:"data,omitempty"`
	Layout Layout  `json:"layout"`
}

// IsEmpty reports whether f is the empty placeholder
func (f *Figure) IsEmpty() bool {
	return len(f.Data) == 0 && f.Layout.Title == ""
}

// Trace types
const (
	TraceBar        = "bar"
	TraceScatter    = "scatter"
	TracePie        = "pie"
	TraceChoropleth = "choropleth"
	TraceHistogram  = "histogram"
)

// Trace is one data series of a figure.
// X and Y hold either []string (categories) or Numbers.
type Trace struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Mode string `json:"mode,omitempty"`

	X interface{} `json:"x,omitempty"`
	Y interface{} `json:"y,omitempty"`

	// Pie
	Labels       []string `json:"labels,omitempty"`
	Values       Numbers  `json:"values,omitempty"`
	TextInfo     string   `json:"textinfo,omitempty"`
	TextPosition string   `json:"textposition,omitempty"`

	// Choropleth
	Locations  []string `json:"locations,omitempty"`
	Z          Numbers  `json:"z,omitempty"`
	ColorScale ColorScale `json:"colorscale,omitempty"`

	// Histogram
	NBinsX int `json:"nbinsx,omitempty"`

	HoverText []string `json:"hovertext,omitempty"`
	Marker    *Marker  `json:"marker,omitempty"`

	// Facet subplot anchors ("x2", "y2")
	XAxis string `json:"xaxis,omitempty"`
	YAxis string `json:"yaxis,omitempty"`
}

// Marker styles bars and points
type Marker struct {
	// Color is a single color string or one color per point ([]string)
	Color    interface{} `json:"color,omitempty"`
	Size     Numbers     `json:"size,omitempty"`
	SizeMode string      `json:"sizemode,omitempty"`
	SizeRef  float64     `json:"sizeref,omitempty"`
	SizeMin  float64     `json:"sizemin,omitempty"`
}

// Layout holds figure-wide settings
type Layout struct {
	Title    string  `json:"title,omitempty"`
	Template Template `json:"template,omitempty"`
	BarMode  string  `json:"barmode,omitempty"`
	XAxis    *Axis   `json:"xaxis,omitempty"`
	XAxis2   *Axis   `json:"xaxis2,omitempty"`
	YAxis    *Axis   `json:"yaxis,omitempty"`
	YAxis2   *Axis   `json:"yaxis2,omitempty"`
	Shapes   []Shape `json:"shapes,omitempty"`
	Geo      *Geo    `json:"geo,omitempty"`
}

// Axis configures one axis
type Axis struct {
	Title         string    `json:"title,omitempty"`
	CategoryOrder string    `json:"categoryorder,omitempty"`
	Domain        []float64 `json:"domain,omitempty"`
	Anchor        string    `json:"anchor,omitempty"`
}

// Shape is a line drawn over the plot area
type Shape struct {
	Type string    `json:"type"`
	X0   float64   `json:"x0"`
	Y0   float64   `json:"y0"`
	X1   float64   `json:"x1"`
	Y1   float64   `json:"y1"`
	Line ShapeLine `json:"line"`
}

// ShapeLine styles a Shape
type ShapeLine struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Geo configures the map of a choropleth
type Geo struct {
	Projection Projection `json:"projection"`
}

// Projection names a map projection
type Projection struct {
	Type string `json:"type"`
}

// Table is the covid table output: columns, rows and page size
type Table struct {
	Columns  []TableColumn `json:"columns"`
	Data     []CovidRow    `json:"data"`
	PageSize int           `json:"page_size"`
}

// TableColumn names one table column
type TableColumn struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}
