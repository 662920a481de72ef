package dataset

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/contracts"
)

const fixturePath = "testdata/food_supply.csv"

func loadFixture(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Load(context.Background(), fixturePath, Options{})
	require.NoError(t, err)
	return ds
}

// rawFixture returns the fixture as header-indexed string rows
func rawFixture(t *testing.T) []map[string]string {
	t.Helper()
	f, err := os.Open(fixturePath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, h := range header {
			m[h] = row[i]
		}
		out = append(out, m)
	}
	return out
}

type synthRow struct {
	country   string
	obesity   string
	under     string
	confirmed string
	deaths    string
}

// synthCSV builds a minimal valid CSV; every food cell is 1
func synthCSV(rows []synthRow) string {
	header := append([]string{contracts.ColCountry}, contracts.NumericColumns()...)
	header = append(header, contracts.ColUnit)

	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(header)
	for _, r := range rows {
		rec := []string{r.country}
		for _, col := range contracts.NumericColumns() {
			switch col {
			case contracts.ColObesity:
				rec = append(rec, r.obesity)
			case contracts.ColUndernourished:
				rec = append(rec, r.under)
			case contracts.ColConfirmed:
				rec = append(rec, r.confirmed)
			case contracts.ColDeaths:
				rec = append(rec, r.deaths)
			default:
				rec = append(rec, "1")
			}
		}
		rec = append(rec, "%")
		_ = w.Write(rec)
	}
	w.Flush()
	return b.String()
}

func TestLoad_Fixture(t *testing.T) {
	ds := loadFixture(t)

	assert.Equal(t, 12, ds.Len())
	assert.NotContains(t, ds.Frame().Names(), contracts.ColUnit)
	assert.Contains(t, ds.Frame().Names(), contracts.ColMortality)
	assert.Contains(t, ds.Frame().Names(), contracts.ColObesityAboveAvg)

	brazil, ok := ds.Find("Brazil")
	require.True(t, ok)
	assert.Equal(t, 2.0, brazil.Undernourished)
	assert.Equal(t, BlankCode, brazil.ISOAlpha3, "no resolver configured")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), "testdata/does-not-exist.csv", Options{})
	assert.Error(t, err)
}

func TestRead_UndernourishedIsNumeric(t *testing.T) {
	ds := loadFixture(t)
	raw := rawFixture(t)

	for i, rec := range ds.Records() {
		assert.False(t, math.IsNaN(rec.Undernourished), rec.Country)
		if raw[i][contracts.ColUndernourished] == "<2.5" {
			assert.Equal(t, 2.0, rec.Undernourished, rec.Country)
		}
	}
}

func TestRead_FoodColumnsDoubled(t *testing.T) {
	ds := loadFixture(t)
	raw := rawFixture(t)

	for i, rec := range ds.Records() {
		for _, col := range contracts.FoodColumns() {
			before, err := strconv.ParseFloat(raw[i][col], 64)
			require.NoError(t, err)

			after, ok := rec.Value(col)
			require.True(t, ok)
			assert.InDelta(t, 2*before, after, 1e-9, "%s / %s", rec.Country, col)
		}
	}
}

func TestRead_FoodSharesNearHundred(t *testing.T) {
	ds := loadFixture(t)

	for _, rec := range ds.Records() {
		sum := 0.0
		for _, v := range rec.Food {
			sum += v
		}
		assert.InDelta(t, 100, sum, 0.1, rec.Country)
		assert.InDelta(t, 100, rec.AnimalProducts+rec.VegetalProducts, 0.01, rec.Country)
	}
}

func TestRead_MeanFill(t *testing.T) {
	ds := loadFixture(t)
	raw := rawFixture(t)

	var obesity, confirmed []float64
	for _, row := range raw {
		if v, err := strconv.ParseFloat(row[contracts.ColObesity], 64); err == nil {
			obesity = append(obesity, v)
		}
		if v, err := strconv.ParseFloat(row[contracts.ColConfirmed], 64); err == nil {
			confirmed = append(confirmed, v)
		}
	}

	taiwan, ok := ds.Find("Taiwan*")
	require.True(t, ok)
	assert.InDelta(t, Mean(obesity), taiwan.Obesity, 1e-9)

	north, ok := ds.Find("Korea, North")
	require.True(t, ok)
	assert.InDelta(t, Mean(confirmed), north.Confirmed, 1e-9)
}

func TestRead_Mortality(t *testing.T) {
	ds := loadFixture(t)

	for _, rec := range ds.Records() {
		if rec.Confirmed > 0 {
			assert.InDelta(t, rec.Deaths/rec.Confirmed, float64(rec.Mortality), 1e-12, rec.Country)
			continue
		}
		assert.True(t, math.IsNaN(float64(rec.Mortality)), rec.Country)
	}

	kiribati, ok := ds.Find("Kiribati")
	require.True(t, ok)
	assert.False(t, kiribati.Mortality.IsFinite())
}

func TestRead_ObesityAboveAvg(t *testing.T) {
	in := synthCSV([]synthRow{
		{country: "A", obesity: "10", under: "5", confirmed: "1", deaths: "0.1"},
		{country: "B", obesity: "20", under: "<2.5", confirmed: "1", deaths: "0.1"},
		{country: "C", obesity: "30", under: "5", confirmed: "1", deaths: "0.1"},
	})

	ds, err := Read(context.Background(), strings.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, 20.0, ds.MeanObesity())

	want := map[string]int{"A": 0, "B": 0, "C": 1}
	for _, rec := range ds.Records() {
		assert.Equal(t, want[rec.Country], rec.ObesityAboveAvg, rec.Country)
	}

	assert.Len(t, ds.HighObesity(), 1)
	assert.Len(t, ds.LowObesity(), 2)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name: "undernourished garbage",
			input: synthCSV([]synthRow{
				{country: "A", obesity: "10", under: "lots", confirmed: "1", deaths: "0"},
			}),
			wantErr: ErrMalformedValue,
		},
		{
			name: "empty column",
			input: synthCSV([]synthRow{
				{country: "A", obesity: "", under: "5", confirmed: "1", deaths: "0"},
				{country: "B", obesity: "", under: "5", confirmed: "1", deaths: "0"},
			}),
			wantErr: ErrEmptyColumn,
		},
		{
			name:    "missing column",
			input:   "Country,Obesity\nA,10\n",
			wantErr: ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(tt.input), Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, name string) string {
	if code, ok := m[name]; ok {
		return code
	}
	return BlankCode
}

func TestRead_ResolvesCodes(t *testing.T) {
	ds, err := Load(context.Background(), fixturePath, Options{
		Resolver: mapResolver{"Brazil": "BRA", "Japan": "JPN"},
	})
	require.NoError(t, err)

	brazil, _ := ds.Find("Brazil")
	assert.Equal(t, "BRA", brazil.ISOAlpha3)
	assert.True(t, brazil.HasCode())

	assert.Len(t, ds.Unresolved(), ds.Len()-2)
}

func TestMortality(t *testing.T) {
	assert.Equal(t, 0.5, Mortality(1, 2))
	assert.True(t, math.IsNaN(Mortality(0, 0)))
	assert.True(t, math.IsNaN(Mortality(1, 0)))
}

func TestRead_Quality(t *testing.T) {
	ds := loadFixture(t)
	q := ds.Quality()

	assert.Equal(t, 12, q.Rows)
	assert.Equal(t, 10, q.ValidRows, "Taiwan and North Korea were mean-filled")
	assert.Equal(t, 1, q.Filled[contracts.ColObesity])
	assert.Equal(t, 1, q.Filled[contracts.ColConfirmed])
	assert.Zero(t, q.Filled[contracts.ColUndernourished], "the <2.5 sentinel is a value")

	assert.InDelta(t, 56.0/60, q.Coverage[contracts.CoverageCovid], 1e-12)
	assert.InDelta(t, 1.0, q.Coverage[contracts.CoverageDiet], 1e-12)
	assert.InDelta(t, 23.0/24, q.Coverage[contracts.CoverageHealth], 1e-12)
	assert.Zero(t, q.Coverage[contracts.CoverageGeo], "no resolver configured")

	want := 0.35*56/60 + 0.35 + 0.20*23/24
	assert.InDelta(t, want, q.QualityScore, 1e-9)
	assert.True(t, q.Passed)
}

func TestRead_QualityWithCodes(t *testing.T) {
	ds, err := Load(context.Background(), fixturePath, Options{
		Resolver: mapResolver{"Brazil": "BRA", "Japan": "JPN", "Germany": "DEU"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 3.0/12, ds.Quality().Coverage[contracts.CoverageGeo], 1e-12)
}

func TestQuality_IsCopy(t *testing.T) {
	ds := loadFixture(t)

	q := ds.Quality()
	q.Coverage[contracts.CoverageCovid] = 0
	q.Filled[contracts.ColObesity] = 99

	again := ds.Quality()
	assert.NotZero(t, again.Coverage[contracts.CoverageCovid])
	assert.Equal(t, 1, again.Filled[contracts.ColObesity])
}
