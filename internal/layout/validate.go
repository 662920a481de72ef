package layout

import (
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
)

// ValidationError names the offending layout field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the layout's required fields and control values
func Validate(l *Layout) error {
	if l.Meta.Title == "" {
		return ValidationError{"meta.title", "required"}
	}

	seen := make(map[string]bool)
	for i, s := range l.Sections {
		if s.ID == "" {
			return ValidationError{fmt.Sprintf("sections[%d].id", i), "required"}
		}
		if seen[s.ID] {
			return ValidationError{fmt.Sprintf("sections[%d].id", i), "duplicate id " + s.ID}
		}
		seen[s.ID] = true
	}

	d := l.Defaults
	if len(d.Slider) != 2 {
		return ValidationError{"defaults.slider", "must be [start, end]"}
	}
	if d.Slider[0] < 1 || d.Slider[1] < d.Slider[0] {
		return ValidationError{"defaults.slider", "must satisfy 1 <= start <= end"}
	}
	if d.SliderStep <= 0 {
		return ValidationError{"defaults.slider_step", "must be > 0"}
	}
	if d.FoodCountry == "" {
		return ValidationError{"defaults.food_country", "required"}
	}

	axes := map[string]string{
		"defaults.x_axis":      d.XAxis,
		"defaults.y_axis":      d.YAxis,
		"defaults.points_size": d.PointsSize,
	}
	for field, key := range axes {
		if !contracts.IsAxisKey(key) {
			return ValidationError{field, fmt.Sprintf("%q is not one of %v", key, contracts.AxisKeys)}
		}
	}
	if !contracts.IsMapMetric(d.MapMetric) {
		return ValidationError{"defaults.map_metric", fmt.Sprintf("%q is not one of %v", d.MapMetric, contracts.MapMetrics)}
	}

	return nil
}
