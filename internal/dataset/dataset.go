package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/dietdash/internal/contracts"
)

// BlankCode is the placeholder ISO code of countries that could not be
// resolved. Such records are left out of the map only.
const BlankCode = " "

// Dataset is the cleaned, immutable dataset shared by every handler.
// ⭐ SSOT: loaded once at startup; nothing writes to it afterwards
type Dataset struct {
	frame   dataframe.DataFrame
	records []contracts.Record

	covid       []contracts.CovidRow
	highObesity []contracts.Record
	lowObesity  []contracts.Record
	options     []contracts.Option
	meanObesity float64
	quality     contracts.DataQuality
}

// newDataset precomputes the static views
func newDataset(frame dataframe.DataFrame, records []contracts.Record) *Dataset {
	ds := &Dataset{
		frame:   frame,
		records: records,
		covid:   make([]contracts.CovidRow, len(records)),
		options: make([]contracts.Option, len(records)),
	}

	obesity := make([]float64, len(records))
	for i, r := range records {
		obesity[i] = r.Obesity
	}
	ds.meanObesity, _ = finiteMean(obesity)

	for i, r := range records {
		ds.covid[i] = contracts.CovidRow{
			Country:   r.Country,
			Confirmed: r.Confirmed,
			Deaths:    r.Deaths,
			Active:    r.Active,
			Mortality: r.Mortality,
		}
		ds.options[i] = contracts.Option{Label: r.Country, Value: r.Country}

		if r.Obesity > ds.meanObesity {
			ds.highObesity = append(ds.highObesity, r)
		} else {
			ds.lowObesity = append(ds.lowObesity, r)
		}
	}

	return ds
}

// FromRecords builds a Dataset from already-clean records, deriving
// Mortality and ObesityAboveAvg. Stored snapshots are restored through it.
func FromRecords(records []contracts.Record) *Dataset {
	recs := make([]contracts.Record, len(records))
	copy(recs, records)

	obesity := make([]float64, len(recs))
	for i := range recs {
		obesity[i] = recs[i].Obesity
	}
	mean, _ := finiteMean(obesity)

	for i := range recs {
		recs[i].Mortality = contracts.Number(Mortality(recs[i].Deaths, recs[i].Confirmed))
		recs[i].ObesityAboveAvg = 0
		if recs[i].Obesity > mean {
			recs[i].ObesityAboveAvg = 1
		}
		if recs[i].ISOAlpha3 == "" {
			recs[i].ISOAlpha3 = BlankCode
		}
	}
	ds := newDataset(dataframe.DataFrame{}, recs)
	ds.quality = computeQuality(len(recs), newMissingCells(len(recs)), len(recs)-len(ds.Unresolved()))
	return ds
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of all records in file order
func (d *Dataset) Records() []contracts.Record {
	out := make([]contracts.Record, len(d.records))
	copy(out, d.records)
	return out
}

// Covid returns the covid-only projection in file order
func (d *Dataset) Covid() []contracts.CovidRow {
	out := make([]contracts.CovidRow, len(d.covid))
	copy(out, d.covid)
	return out
}

// HighObesity returns records whose obesity exceeds the mean
func (d *Dataset) HighObesity() []contracts.Record {
	return append([]contracts.Record(nil), d.highObesity...)
}

// LowObesity returns records whose obesity is at or below the mean
func (d *Dataset) LowObesity() []contracts.Record {
	return append([]contracts.Record(nil), d.lowObesity...)
}

// Options returns the country dropdown options
func (d *Dataset) Options() []contracts.Option {
	return append([]contracts.Option(nil), d.options...)
}

// MeanObesity is the dataset-wide mean obesity rate
func (d *Dataset) MeanObesity() float64 {
	return d.meanObesity
}

// Quality returns the completeness report of the source file
func (d *Dataset) Quality() contracts.DataQuality {
	q := d.quality
	q.Coverage = copyMap(d.quality.Coverage)
	q.Filled = make(map[string]int, len(d.quality.Filled))
	for k, v := range d.quality.Filled {
		q.Filled[k] = v
	}
	return q
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Find returns the first record named country
func (d *Dataset) Find(country string) (contracts.Record, bool) {
	for _, r := range d.records {
		if r.Country == country {
			return r, true
		}
	}
	return contracts.Record{}, false
}

// Unresolved lists countries left with the blank ISO code
func (d *Dataset) Unresolved() []string {
	var out []string
	for _, r := range d.records {
		if !r.HasCode() {
			out = append(out, r.Country)
		}
	}
	return out
}

// Fingerprint identifies the dataset contents (SHA256 over every record
// in order). Two loads of the same file give the same fingerprint.
func (d *Dataset) Fingerprint() string {
	h := sha256.New()
	for i := range d.records {
		fmt.Fprintf(h, "%v\n", d.records[i])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Frame returns a copy of the cleaned dataframe. Empty for datasets
// built with FromRecords.
func (d *Dataset) Frame() dataframe.DataFrame {
	return d.frame.Copy()
}

// Column returns the values of a numeric column in file order
func (d *Dataset) Column(name string) ([]float64, bool) {
	values := make([]float64, len(d.records))
	for i := range d.records {
		v, ok := d.records[i].Value(name)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// SortedBy returns the records ordered by column, descending.
// NaN values go last; equal values keep file order.
func (d *Dataset) SortedBy(column string) ([]contracts.Record, bool) {
	if _, ok := (&contracts.Record{}).Value(column); !ok {
		return nil, false
	}

	out := d.Records()
	sort.SliceStable(out, func(i, j int) bool {
		vi, _ := out[i].Value(column)
		vj, _ := out[j].Value(column)
		if math.IsNaN(vj) {
			return !math.IsNaN(vi)
		}
		if math.IsNaN(vi) {
			return false
		}
		return vi > vj
	})
	return out, true
}

// finiteMean averages the finite values; false when there are none
func finiteMean(values []float64) (float64, bool) {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN(), false
	}
	return stat.Mean(present, nil), true
}

// Mean is the average of the finite values, NaN for none
func Mean(values []float64) float64 {
	m, _ := finiteMean(values)
	return m
}

// Median of the finite values, averaging the two middle values for an
// even count. NaN for none.
func Median(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			present = append(present, v)
		}
	}
	n := len(present)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(present)
	if n%2 == 1 {
		return present[n/2]
	}
	return (present[n/2-1] + present[n/2]) / 2
}
