package callbacks

import (
	"context"

	"github.com/wonny/dietdash/internal/charts"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/pkg/redis"
)

// dashboardCallbacks mirrors the page's control wiring
func dashboardCallbacks() []Callback {
	return []Callback{
		{
			Name:    "covid-ranks",
			Inputs:  []contracts.ControlID{contracts.ControlSlider},
			Outputs: []contracts.ControlID{contracts.OutputConfirmed, contracts.OutputDeaths, contracts.OutputActive, contracts.OutputMortality},
			TTL:     redis.TTLLong,
			Handler: updateRanks,
		},
		{
			Name:    "covid-table",
			Inputs:  []contracts.ControlID{contracts.ControlCovidCountries},
			Outputs: []contracts.ControlID{contracts.OutputCovidTable},
			TTL:     redis.TTLLong,
			Handler: updateTable,
		},
		{
			Name:    "custom-scatter",
			Inputs:  []contracts.ControlID{contracts.ControlXAxis, contracts.ControlYAxis, contracts.ControlPointsSize},
			Outputs: []contracts.ControlID{contracts.OutputCustomGraph},
			TTL:     redis.TTLLong,
			Handler: updateScatter,
		},
		{
			Name:    "food-country",
			Inputs:  []contracts.ControlID{contracts.ControlFoodCountry},
			Outputs: []contracts.ControlID{contracts.OutputFoodPie, contracts.OutputVegVAnimal},
			TTL:     redis.TTLLong,
			Handler: updateFood,
		},
		{
			Name:    "choropleth",
			Inputs:  []contracts.ControlID{contracts.ControlFoodCategory},
			Outputs: []contracts.ControlID{contracts.OutputMap},
			TTL:     redis.TTLLong,
			Handler: updateMap,
		},
		{
			Name:    "map-click",
			Inputs:  []contracts.ControlID{contracts.ControlMap},
			Outputs: []contracts.ControlID{contracts.OutputObesity, contracts.OutputUnder, contracts.OutputAP, contracts.OutputMapText},
			TTL:     redis.TTLShort,
			Handler: updateMapClick,
		},
	}
}

func updateRanks(_ context.Context, ds *dataset.Dataset, in Values) (Outputs, error) {
	window, err := in.Window(contracts.ControlSlider)
	if err != nil {
		return nil, err
	}
	figs, err := charts.RankedBars(ds, window)
	if err != nil {
		return nil, err
	}
	return Outputs{
		contracts.OutputConfirmed: figs[0],
		contracts.OutputDeaths:    figs[1],
		contracts.OutputActive:    figs[2],
		contracts.OutputMortality: figs[3],
	}, nil
}

func updateTable(_ context.Context, ds *dataset.Dataset, in Values) (Outputs, error) {
	selected, err := in.Strings(contracts.ControlCovidCountries)
	if err != nil {
		return nil, err
	}
	return Outputs{contracts.OutputCovidTable: charts.CovidTable(ds, selected)}, nil
}

func updateScatter(_ context.Context, ds *dataset.Dataset, in Values) (Outputs, error) {
	keys := make([]string, 3)
	for i, id := range []contracts.ControlID{contracts.ControlXAxis, contracts.ControlYAxis, contracts.ControlPointsSize} {
		v, err := in.String(id)
		if err != nil {
			return nil, err
		}
		keys[i] = v
	}

	fig, err := charts.CustomScatter(ds, keys[0], keys[1], keys[2])
	if err != nil {
		return nil, err
	}
	return Outputs{contracts.OutputCustomGraph: fig}, nil
}

func updateFood(_ context.Context, ds *dataset.Dataset, in Values) (Outputs, error) {
	country, err := in.String(contracts.ControlFoodCountry)
	if err != nil {
		return nil, err
	}

	pie, err := charts.FoodPie(ds, country)
	if err != nil {
		return nil, err
	}
	bars, err := charts.AnimalVegetal(ds, country)
	if err != nil {
		return nil, err
	}
	return Outputs{
		contracts.OutputFoodPie:    pie,
		contracts.OutputVegVAnimal: bars,
	}, nil
}

func updateMap(_ context.Context, ds *dataset.Dataset, in Values) (Outputs, error) {
	metric, err := in.String(contracts.ControlFoodCategory)
	if err != nil {
		return nil, err
	}
	fig, err := charts.Choropleth(ds, metric)
	if err != nil {
		return nil, err
	}
	return Outputs{contracts.OutputMap: fig}, nil
}

func updateMapClick(_ context.Context, ds *dataset.Dataset, in Values) (Outputs, error) {
	click, err := in.Click(contracts.ControlMap)
	if err != nil {
		return nil, err
	}
	res, err := charts.MapClick(ds, click)
	if err != nil {
		return nil, err
	}
	return Outputs{
		contracts.OutputObesity: res.Obesity,
		contracts.OutputUnder:   res.Undernourished,
		contracts.OutputAP:      res.AnimalProducts,
		contracts.OutputMapText: res.Message,
	}, nil
}
