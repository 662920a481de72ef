package charts

import (
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
)

// rankTitles are the ranked bar titles, keyed by sort column
var rankTitles = map[string]string{
	contracts.ColConfirmed: "Confirmed Cases - Percentage of total population",
	contracts.ColDeaths:    "Number of Deaths - Percentage of total population",
	contracts.ColActive:    "Active Cases - Percentage of total population",
	contracts.ColMortality: "Mortality",
}

// RankedBar sorts every record descending by column and draws the
// records inside window. Windows past the dataset clip; an empty
// selection gives a titled bar figure without bars.
func RankedBar(ds *dataset.Dataset, column string, window contracts.RankWindow) (contracts.Figure, error) {
	title, ok := rankTitles[column]
	if !ok {
		return contracts.Figure{}, fmt.Errorf("%w: rank column %q", contracts.ErrInvalidControl, column)
	}
	if err := window.Validate(); err != nil {
		return contracts.Figure{}, err
	}

	sorted, _ := ds.SortedBy(column)
	lo, hi := window.Bounds(len(sorted))

	return barFigure(sorted[lo:hi], column, title), nil
}

// RankedBars draws the four ranked charts, in contracts.RankMetrics order
func RankedBars(ds *dataset.Dataset, window contracts.RankWindow) ([]contracts.Figure, error) {
	figs := make([]contracts.Figure, 0, len(contracts.RankMetrics))
	for _, col := range contracts.RankMetrics {
		fig, err := RankedBar(ds, col, window)
		if err != nil {
			return nil, err
		}
		figs = append(figs, fig)
	}
	return figs, nil
}

// covidColumns are the table columns in display order
var covidColumns = []string{
	contracts.ColCountry,
	contracts.ColConfirmed,
	contracts.ColDeaths,
	contracts.ColActive,
	contracts.ColMortality,
}

// CovidTable projects the covid columns of the selected countries.
// Rows keep dataset order and the page holds every row.
func CovidTable(ds *dataset.Dataset, selected []string) contracts.Table {
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		want[name] = true
	}

	rows := make([]contracts.CovidRow, 0, len(selected))
	for _, row := range ds.Covid() {
		if want[row.Country] {
			rows = append(rows, row)
		}
	}

	return contracts.Table{
		Columns:  TableColumns(),
		Data:     rows,
		PageSize: len(rows),
	}
}

// TableColumns returns the covid table headers. Percentage columns are
// suffixed with their unit.
func TableColumns() []contracts.TableColumn {
	cols := make([]contracts.TableColumn, len(covidColumns))
	for i, id := range covidColumns {
		name := id
		if id != contracts.ColCountry && id != contracts.ColMortality {
			name = id + "(% of population)"
		}
		cols[i] = contracts.TableColumn{Name: name, ID: id}
	}
	return cols
}
