package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/pkg/logger"
)

// Load errors
var (
	ErrMissingColumn  = errors.New("missing column")
	ErrMalformedValue = errors.New("malformed value")
	ErrEmptyColumn    = errors.New("column has no values")
	ErrNoRows         = errors.New("dataset has no rows")
)

// undernourishedSentinel is the FAO marker for "less than 2.5%"
const (
	undernourishedSentinel = "<2.5"
	undernourishedFloor    = "2.0"
)

// CodeResolver maps a country name to an ISO alpha-3 code.
// Implementations return a blank placeholder for unknown names.
type CodeResolver interface {
	Resolve(ctx context.Context, name string) string
}

// Options configures Load and Read
type Options struct {
	Resolver CodeResolver   // nil leaves every code blank
	Logger   *logger.Logger // nil discards
}

// Load reads and cleans the CSV at path.
// A missing or malformed file is an error; callers treat it as fatal.
func Load(ctx context.Context, path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// Read cleans a CSV stream into a Dataset.
//
// Steps run in this order:
//  1. drop the unit column
//  2. coerce the Undernourished sentinel, parse numeric columns
//  3. double the food columns
//  4. fill missing cells with the column mean
//  5. derive Mortality
//  6. derive ObesityAboveAvg
func Read(ctx context.Context, r io.Reader, opts Options) (*Dataset, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("dataset")

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}

	missing := newMissingCells(df.Nrow())
	df, err := clean(df, missing)
	if err != nil {
		return nil, err
	}

	records, err := materialize(df)
	if err != nil {
		return nil, err
	}

	if opts.Resolver != nil {
		for i := range records {
			records[i].ISOAlpha3 = opts.Resolver.Resolve(ctx, records[i].Country)
		}
	} else {
		for i := range records {
			records[i].ISOAlpha3 = BlankCode
		}
	}

	ds := newDataset(df, records)
	ds.quality = computeQuality(len(records), missing, len(records)-len(ds.Unresolved()))

	log.WithFields(map[string]interface{}{
		"rows":          len(records),
		"mean_obesity":  ds.MeanObesity(),
		"unresolved":    len(ds.Unresolved()),
		"quality_score": ds.quality.QualityScore,
	}).Info("Dataset loaded")

	if !ds.quality.Passed {
		log.WithField("quality_score", ds.quality.QualityScore).Warn("Dataset quality below threshold")
	}

	return ds, nil
}

// clean applies the cleaning steps to the raw string frame, recording
// the cells that were empty in missing
func clean(df dataframe.DataFrame, missing *missingCells) (dataframe.DataFrame, error) {
	if df.Nrow() == 0 {
		return df, ErrNoRows
	}

	names := df.Names()

	// 1. the unit column only documents the other columns
	if hasColumn(names, contracts.ColUnit) {
		df = df.Drop(contracts.ColUnit)
		if df.Err != nil {
			return df, fmt.Errorf("drop unit column: %w", df.Err)
		}
	}

	required := append([]string{contracts.ColCountry}, contracts.NumericColumns()...)
	for _, col := range required {
		if !hasColumn(names, col) {
			return df, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	// 2. sentinel, then strict float parsing of every numeric column
	for _, col := range contracts.NumericColumns() {
		raw := df.Col(col).Records()
		if col == contracts.ColUndernourished {
			for i, v := range raw {
				if strings.TrimSpace(v) == undernourishedSentinel {
					raw[i] = undernourishedFloor
				}
			}
		}

		values, err := parseFloats(col, raw)
		if err != nil {
			return df, err
		}
		for i, v := range values {
			if math.IsNaN(v) {
				missing.mark(col, i)
			}
		}
		df = df.Mutate(series.New(values, series.Float, col))
	}

	// 3. source stores food shares halved
	for _, col := range contracts.FoodColumns() {
		values := df.Col(col).Float()
		for i := range values {
			values[i] *= 2
		}
		df = df.Mutate(series.New(values, series.Float, col))
	}

	// 4. mean fill
	for _, col := range contracts.NumericColumns() {
		values := df.Col(col).Float()
		mean, ok := finiteMean(values)
		if !ok {
			return df, fmt.Errorf("%w: %q", ErrEmptyColumn, col)
		}
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = mean
			}
		}
		df = df.Mutate(series.New(values, series.Float, col))
	}

	// 5. mortality, NaN where nothing was confirmed
	confirmed := df.Col(contracts.ColConfirmed).Float()
	deaths := df.Col(contracts.ColDeaths).Float()
	mortality := make([]float64, len(confirmed))
	for i := range confirmed {
		mortality[i] = Mortality(deaths[i], confirmed[i])
	}
	df = df.Mutate(series.New(mortality, series.Float, contracts.ColMortality))

	// 6. obesity flag against the dataset-wide mean
	obesity := df.Col(contracts.ColObesity).Float()
	meanObesity, _ := finiteMean(obesity)
	flags := make([]int, len(obesity))
	for i, v := range obesity {
		if v > meanObesity {
			flags[i] = 1
		}
	}
	df = df.Mutate(series.New(flags, series.Int, contracts.ColObesityAboveAvg))

	if df.Err != nil {
		return df, fmt.Errorf("clean dataset: %w", df.Err)
	}
	return df, nil
}

// Mortality returns deaths/confirmed, or NaN when confirmed is zero
func Mortality(deaths, confirmed float64) float64 {
	if confirmed == 0 {
		return math.NaN()
	}
	m := deaths / confirmed
	if math.IsInf(m, 0) {
		return math.NaN()
	}
	return m
}

// parseFloats parses a column strictly: blank and NA cells become NaN,
// anything else non-numeric is a data error.
func parseFloats(col string, raw []string) ([]float64, error) {
	values := make([]float64, len(raw))
	for i, v := range raw {
		v = strings.TrimSpace(v)
		if isMissing(v) {
			values[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %q", ErrMalformedValue, col, i+1, v)
		}
		values[i] = f
	}
	return values, nil
}

func isMissing(v string) bool {
	switch v {
	case "", "NA", "NaN", "nan", "<nil>":
		return true
	}
	return false
}

// materialize converts the cleaned frame to records
func materialize(df dataframe.DataFrame) ([]contracts.Record, error) {
	n := df.Nrow()
	countries := df.Col(contracts.ColCountry).Records()

	col := func(name string) []float64 { return df.Col(name).Float() }

	confirmed := col(contracts.ColConfirmed)
	deaths := col(contracts.ColDeaths)
	recovered := col(contracts.ColRecovered)
	active := col(contracts.ColActive)
	population := col(contracts.ColPopulation)
	mortality := col(contracts.ColMortality)
	animal := col(contracts.ColAnimalProducts)
	vegetal := col(contracts.ColVegetalProducts)
	obesity := col(contracts.ColObesity)
	under := col(contracts.ColUndernourished)
	flags := col(contracts.ColObesityAboveAvg)

	food := make([][]float64, contracts.NumFoodGroups)
	for g, name := range contracts.FoodGroups {
		food[g] = col(name)
	}

	records := make([]contracts.Record, n)
	for i := 0; i < n; i++ {
		rec := contracts.Record{
			Country:         strings.TrimSpace(countries[i]),
			Confirmed:       confirmed[i],
			Deaths:          deaths[i],
			Recovered:       recovered[i],
			Active:          active[i],
			Population:      population[i],
			Mortality:       contracts.Number(mortality[i]),
			AnimalProducts:  animal[i],
			VegetalProducts: vegetal[i],
			Obesity:         obesity[i],
			Undernourished:  under[i],
			ObesityAboveAvg: int(flags[i]),
		}
		for g := range food {
			rec.Food[g] = food[g][i]
		}
		if rec.Country == "" {
			return nil, fmt.Errorf("%w: row %d has no country", ErrMalformedValue, i+1)
		}
		records[i] = rec
	}
	return records, nil
}

func hasColumn(names []string, col string) bool {
	for _, n := range names {
		if n == col {
			return true
		}
	}
	return false
}
