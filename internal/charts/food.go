package charts

import (
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
)

// FoodPie draws the 21 food group shares of one country. The first
// record with that name is used; all-zero intakes still give 21 slices.
func FoodPie(ds *dataset.Dataset, country string) (contracts.Figure, error) {
	rec, ok := ds.Find(country)
	if !ok {
		return contracts.Figure{}, fmt.Errorf("%w: %q", contracts.ErrUnknownCountry, country)
	}

	labels := make([]string, contracts.NumFoodGroups)
	values := make(contracts.Numbers, contracts.NumFoodGroups)
	copy(labels, contracts.FoodGroups)
	copy(values, rec.Food[:])

	return contracts.Figure{
		Data: []contracts.Trace{{
			Type:         contracts.TracePie,
			Labels:       labels,
			Values:       values,
			TextInfo:     "percent+label",
			TextPosition: "inside",
		}},
		Layout: contracts.Layout{
			Title: "Food intake (in kg) " + country,
		},
	}, nil
}

// AnimalVegetal compares the animal and vegetal product shares of one
// country as grouped bars
func AnimalVegetal(ds *dataset.Dataset, country string) (contracts.Figure, error) {
	rec, ok := ds.Find(country)
	if !ok {
		return contracts.Figure{}, fmt.Errorf("%w: %q", contracts.ErrUnknownCountry, country)
	}

	bar := func(name string, value float64, color string) contracts.Trace {
		return contracts.Trace{
			Type:   contracts.TraceBar,
			Name:   name,
			X:      []string{rec.Country},
			Y:      contracts.Numbers{value},
			Marker: &contracts.Marker{Color: color},
		}
	}

	return contracts.Figure{
		Data: []contracts.Trace{
			bar(contracts.ColAnimalProducts, rec.AnimalProducts, ColorAnimal),
			bar(contracts.ColVegetalProducts, rec.VegetalProducts, ColorVegetal),
		},
		Layout: contracts.Layout{
			Title:   "% of Animal and Vegetal products intake (kg) <br> - " + country,
			BarMode: "group",
			XAxis:   &contracts.Axis{Title: contracts.ColCountry},
			YAxis:   &contracts.Axis{Title: "value"},
		},
	}, nil
}
