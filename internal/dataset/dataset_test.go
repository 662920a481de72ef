package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/contracts"
)

func TestFromRecords_Derivations(t *testing.T) {
	ds := FromRecords([]contracts.Record{
		{Country: "A", Obesity: 10, Confirmed: 2, Deaths: 1},
		{Country: "B", Obesity: 20, Confirmed: 0, Deaths: 0},
		{Country: "C", Obesity: 30, Confirmed: 4, Deaths: 1, ISOAlpha3: "CCC"},
	})

	recs := ds.Records()
	require.Len(t, recs, 3)

	assert.Equal(t, 0.5, float64(recs[0].Mortality))
	assert.True(t, math.IsNaN(float64(recs[1].Mortality)))
	assert.Equal(t, []int{0, 0, 1}, []int{recs[0].ObesityAboveAvg, recs[1].ObesityAboveAvg, recs[2].ObesityAboveAvg})
	assert.Equal(t, BlankCode, recs[0].ISOAlpha3)
	assert.Equal(t, "CCC", recs[2].ISOAlpha3)
}

func TestDataset_RecordsIsCopy(t *testing.T) {
	ds := FromRecords([]contracts.Record{{Country: "A", Obesity: 1}})

	recs := ds.Records()
	recs[0].Country = "mutated"

	again := ds.Records()
	assert.Equal(t, "A", again[0].Country)
}

func TestDataset_SortedBy(t *testing.T) {
	ds := FromRecords([]contracts.Record{
		{Country: "A", Confirmed: 1, Deaths: 0.1},
		{Country: "B", Confirmed: 0, Deaths: 0},
		{Country: "C", Confirmed: 3, Deaths: 0.1},
		{Country: "D", Confirmed: 1, Deaths: 0.5},
	})

	byConfirmed, ok := ds.SortedBy(contracts.ColConfirmed)
	require.True(t, ok)
	assert.Equal(t, []string{"C", "A", "D", "B"}, countries(byConfirmed), "ties keep file order")

	byMortality, ok := ds.SortedBy(contracts.ColMortality)
	require.True(t, ok)
	assert.Equal(t, []string{"D", "A", "C", "B"}, countries(byMortality), "NaN sorts last")

	_, ok = ds.SortedBy("Nope")
	assert.False(t, ok)
}

func TestDataset_CovidAndOptions(t *testing.T) {
	ds := FromRecords([]contracts.Record{
		{Country: "Brazil", Confirmed: 4, Deaths: 0.1, Active: 0.3},
		{Country: "Japan", Confirmed: 0.2, Deaths: 0.004, Active: 0.02},
	})

	covid := ds.Covid()
	require.Len(t, covid, 2)
	assert.Equal(t, "Brazil", covid[0].Country)
	assert.Equal(t, 0.3, covid[0].Active)

	assert.Equal(t, []contracts.Option{
		{Label: "Brazil", Value: "Brazil"},
		{Label: "Japan", Value: "Japan"},
	}, ds.Options())
}

func TestDataset_Find(t *testing.T) {
	ds := FromRecords([]contracts.Record{
		{Country: "Twin", Obesity: 1},
		{Country: "Twin", Obesity: 2},
	})

	rec, ok := ds.Find("Twin")
	require.True(t, ok)
	assert.Equal(t, 1.0, rec.Obesity, "first match wins")

	_, ok = ds.Find("Nowhere")
	assert.False(t, ok)
}

func TestMeanMedian(t *testing.T) {
	nan := math.NaN()

	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3, nan}))
	assert.True(t, math.IsNaN(Mean([]float64{nan})))

	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2, nan}))
	assert.True(t, math.IsNaN(Median(nil)))
}

func countries(recs []contracts.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Country
	}
	return out
}

func TestFromRecords_Quality(t *testing.T) {
	ds := FromRecords([]contracts.Record{
		{Country: "A", ISOAlpha3: "AAA"},
		{Country: "B"},
	})

	q := ds.Quality()
	assert.Equal(t, 2, q.ValidRows)
	assert.Equal(t, 0.5, q.Coverage[contracts.CoverageGeo])
	assert.InDelta(t, 0.95, q.QualityScore, 1e-12)
}

func TestDataset_Fingerprint(t *testing.T) {
	recs := []contracts.Record{
		{Country: "A", Confirmed: 1, Deaths: 0.1, Obesity: 10},
		{Country: "B", Confirmed: 0, Deaths: 0, Obesity: 20},
	}

	a := FromRecords(recs).Fingerprint()
	assert.Len(t, a, 64)
	assert.Equal(t, a, FromRecords(recs).Fingerprint(), "same rows, same fingerprint")

	changed := append([]contracts.Record(nil), recs...)
	changed[1].Confirmed = 2
	assert.NotEqual(t, a, FromRecords(changed).Fingerprint())

	assert.NotEqual(t, a, FromRecords(recs[:1]).Fingerprint())
}
