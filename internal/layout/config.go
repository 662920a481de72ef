// Package layout holds the page text and the initial control values of
// the dashboard, read from YAML.
package layout

// Layout is the root of the layout YAML
type Layout struct {
	Meta     Meta      `yaml:"meta" json:"meta"`
	Sections []Section `yaml:"sections" json:"sections"`
	Defaults Defaults  `yaml:"defaults" json:"defaults"`
}

// Meta holds page-wide text
type Meta struct {
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
}

// Section is one text block of the page
type Section struct {
	ID      string `yaml:"id" json:"id"`
	Heading string `yaml:"heading" json:"heading"`
	Text    string `yaml:"text" json:"text"`
}

// Defaults are the control values of the first render
type Defaults struct {
	Slider         []int    `yaml:"slider" json:"slider"`
	SliderStep     int      `yaml:"slider_step" json:"slider_step"`
	CovidCountries []string `yaml:"covid_countries" json:"covid_countries"`
	FoodCountry    string   `yaml:"food_country" json:"food_country"`
	XAxis          string   `yaml:"x_axis" json:"x_axis"`
	YAxis          string   `yaml:"y_axis" json:"y_axis"`
	PointsSize     string   `yaml:"points_size" json:"points_size"`
	MapMetric      string   `yaml:"map_metric" json:"map_metric"`
}

// Section returns the section with id, or a zero Section
func (l *Layout) Section(id string) Section {
	for _, s := range l.Sections {
		if s.ID == id {
			return s
		}
	}
	return Section{}
}
