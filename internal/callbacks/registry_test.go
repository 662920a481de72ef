package callbacks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/redis"
)

func testDataset() *dataset.Dataset {
	return dataset.FromRecords([]contracts.Record{
		{Country: "Brazil", ISOAlpha3: "BRA", Confirmed: 4, Deaths: 0.1, Active: 0.3, Obesity: 22, AnimalProducts: 30, VegetalProducts: 70},
		{Country: "Japan", ISOAlpha3: "JPN", Confirmed: 0.2, Deaths: 0.004, Active: 0.02, Obesity: 4, AnimalProducts: 25, VegetalProducts: 75},
		{Country: "Chile", ISOAlpha3: "CHL", Confirmed: 3, Deaths: 0.08, Active: 0.1, Obesity: 28, AnimalProducts: 35, VegetalProducts: 65},
	})
}

func testDefaults() map[contracts.ControlID]json.RawMessage {
	return map[contracts.ControlID]json.RawMessage{
		contracts.ControlSlider:         json.RawMessage(`[1,10]`),
		contracts.ControlCovidCountries: json.RawMessage(`["Brazil"]`),
		contracts.ControlXAxis:          json.RawMessage(`"Confirmed"`),
		contracts.ControlYAxis:          json.RawMessage(`"Deaths"`),
		contracts.ControlPointsSize:     json.RawMessage(`"Active"`),
		contracts.ControlFoodCountry:    json.RawMessage(`"Brazil"`),
		contracts.ControlFoodCategory:   json.RawMessage(`"Obesity"`),
		contracts.ControlMap:            json.RawMessage(`null`),
	}
}

func newRegistry() *Registry {
	return New(testDataset(), Options{Defaults: testDefaults()})
}

func update(pairs ...string) Update {
	u := Update{Inputs: make(map[contracts.ControlID]json.RawMessage)}
	for i := 0; i+1 < len(pairs); i += 2 {
		u.Inputs[contracts.ControlID(pairs[i])] = json.RawMessage(pairs[i+1])
	}
	return u
}

func TestRegistry_Wiring(t *testing.T) {
	r := newRegistry()

	wiring := make(map[string][]contracts.ControlID)
	for _, cb := range r.Callbacks() {
		for _, in := range cb.Inputs {
			wiring[string(in)] = append(wiring[string(in)], cb.Outputs...)
		}
	}

	assert.Equal(t, []contracts.ControlID{"confirmed", "deaths", "active", "mortality"}, wiring["slider"])
	assert.Equal(t, []contracts.ControlID{"dt-covid"}, wiring["covid-country-dd"])
	assert.Equal(t, []contracts.ControlID{"custom-graph"}, wiring["points-size"])
	assert.Equal(t, []contracts.ControlID{"food-pie", "veg-v-animal"}, wiring["food-country-dd"])
	assert.Equal(t, []contracts.ControlID{"map"}, wiring["food-cat"])
	assert.Equal(t, []contracts.ControlID{"obesity", "under", "AP", "ftext"}, wiring["map"])
}

func TestDispatch_Slider(t *testing.T) {
	res, err := newRegistry().Dispatch(context.Background(), update("slider", `[1, 2]`))
	require.NoError(t, err)
	require.Len(t, res, 4)

	var fig contracts.Figure
	require.NoError(t, json.Unmarshal(res[contracts.OutputConfirmed], &fig))
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []interface{}{"Brazil", "Chile"}, fig.Data[0].X)
}

func TestDispatch_ScatterUsesDefaultsForOtherInputs(t *testing.T) {
	res, err := newRegistry().Dispatch(context.Background(), update("points-size", `"Obesity"`))
	require.NoError(t, err)

	var fig contracts.Figure
	require.NoError(t, json.Unmarshal(res[contracts.OutputCustomGraph], &fig))
	assert.Equal(t, "Confirmed", fig.Layout.XAxis.Title)
	assert.Equal(t, "Deaths", fig.Layout.YAxis.Title)
	assert.Zero(t, fig.Data[0].Marker.SizeRef)
}

func TestDispatch_MapClick(t *testing.T) {
	r := newRegistry()

	res, err := r.Dispatch(context.Background(), update("map", `null`))
	require.NoError(t, err)
	assert.JSONEq(t, `"Select a country by clicking on map."`, string(res[contracts.OutputMapText]))

	res, err = r.Dispatch(context.Background(), update("map", `{"points":[{"hovertext":"Japan","location":"JPN"}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `"Japan selected - info in red."`, string(res[contracts.OutputMapText]))
	assert.Contains(t, string(res[contracts.OutputObesity]), "#ff0000")
}

func TestDispatch_Table(t *testing.T) {
	res, err := newRegistry().Dispatch(context.Background(), update("covid-country-dd", `["Japan","Chile"]`))
	require.NoError(t, err)

	var table contracts.Table
	require.NoError(t, json.Unmarshal(res[contracts.OutputCovidTable], &table))
	assert.Equal(t, 2, table.PageSize)
	assert.Equal(t, "Japan", table.Data[0].Country)
}

func TestDispatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		update  Update
		wantErr error
	}{
		{"empty update", Update{}, contracts.ErrInvalidControl},
		{"unknown control", update("volume", `3`), contracts.ErrUnknownControl},
		{"reversed window", update("slider", `[9,2]`), contracts.ErrInvalidControl},
		{"window shape", update("slider", `[1]`), contracts.ErrInvalidControl},
		{"bad axis", update("x-axis", `"Mortality"`), contracts.ErrInvalidControl},
		{"axis type", update("x-axis", `42`), contracts.ErrInvalidControl},
		{"bad metric", update("food-cat", `"Recovered"`), contracts.ErrInvalidControl},
		{"unknown country", update("food-country-dd", `"Atlantis"`), contracts.ErrUnknownCountry},
		{"click without hovertext", update("map", `{"points":[]}`), contracts.ErrInvalidControl},
	}

	r := newRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Dispatch(context.Background(), tt.update)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInitial(t *testing.T) {
	res, err := newRegistry().Initial(context.Background())
	require.NoError(t, err)

	for _, id := range []contracts.ControlID{
		"confirmed", "deaths", "active", "mortality", "dt-covid", "custom-graph",
		"food-pie", "veg-v-animal", "map", "obesity", "under", "AP", "ftext",
	} {
		assert.Contains(t, res, id)
	}
}

func TestDispatch_DisabledCacheComputes(t *testing.T) {
	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)

	r := New(testDataset(), Options{
		Cache:    redis.NewCache(client, "test"),
		Defaults: testDefaults(),
	})

	res, err := r.Dispatch(context.Background(), update("food-country-dd", `"Japan"`))
	require.NoError(t, err)
	assert.Contains(t, string(res[contracts.OutputFoodPie]), "Food intake (in kg) Japan")
}

func TestCacheKey_IgnoresWhitespace(t *testing.T) {
	cb := Callback{Outputs: []contracts.ControlID{"confirmed"}}

	a, err := cacheKey(cb, Values{"slider": json.RawMessage(`[1, 10]`)})
	require.NoError(t, err)
	b, err := cacheKey(cb, Values{"slider": json.RawMessage(`[1,10]`)})
	require.NoError(t, err)
	c, err := cacheKey(cb, Values{"slider": json.RawMessage(`[1,11]`)})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestValues_Strings(t *testing.T) {
	v := Values{
		"list": json.RawMessage(`["a","b"]`),
		"one":  json.RawMessage(`"a"`),
		"none": json.RawMessage(`null`),
		"bad":  json.RawMessage(`{}`),
	}

	got, err := v.Strings("list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = v.Strings("one")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	got, err = v.Strings("none")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = v.Strings("bad")
	assert.ErrorIs(t, err, contracts.ErrInvalidControl)

	_, err = v.Strings("missing")
	assert.ErrorIs(t, err, contracts.ErrInvalidControl)
}
