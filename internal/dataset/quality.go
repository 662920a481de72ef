package dataset

import (
	"github.com/wonny/dietdash/internal/contracts"
)

// qualityWeights weight the coverage groups (sum = 1.0)
var qualityWeights = map[string]float64{
	contracts.CoverageCovid:  0.35,
	contracts.CoverageDiet:   0.35,
	contracts.CoverageHealth: 0.20,
	contracts.CoverageGeo:    0.10,
}

// coverageGroups maps each group to its source columns
func coverageGroups() map[string][]string {
	return map[string][]string{
		contracts.CoverageCovid: {
			contracts.ColConfirmed,
			contracts.ColDeaths,
			contracts.ColRecovered,
			contracts.ColActive,
			contracts.ColPopulation,
		},
		contracts.CoverageDiet:   contracts.FoodColumns(),
		contracts.CoverageHealth: {contracts.ColObesity, contracts.ColUndernourished},
	}
}

// missingCells records the cells that were empty before the mean fill
type missingCells struct {
	perColumn map[string]int
	perRow    []bool
}

func newMissingCells(rows int) *missingCells {
	return &missingCells{
		perColumn: make(map[string]int),
		perRow:    make([]bool, rows),
	}
}

func (m *missingCells) mark(col string, row int) {
	m.perColumn[col]++
	m.perRow[row] = true
}

// computeQuality scores the source file from its missing cells and the
// number of countries that got an ISO code
func computeQuality(rows int, missing *missingCells, resolved int) contracts.DataQuality {
	q := contracts.DataQuality{
		Rows:     rows,
		Coverage: make(map[string]float64),
		Filled:   make(map[string]int),
	}
	if rows == 0 {
		return q
	}

	for col, n := range missing.perColumn {
		q.Filled[col] = n
	}
	for _, filled := range missing.perRow {
		if !filled {
			q.ValidRows++
		}
	}

	for group, cols := range coverageGroups() {
		total := rows * len(cols)
		absent := 0
		for _, col := range cols {
			absent += missing.perColumn[col]
		}
		q.Coverage[group] = float64(total-absent) / float64(total)
	}
	q.Coverage[contracts.CoverageGeo] = float64(resolved) / float64(rows)

	for group, weight := range qualityWeights {
		q.QualityScore += q.Coverage[group] * weight
	}
	q.Passed = q.IsValid()
	return q
}
