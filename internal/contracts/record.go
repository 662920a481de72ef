package contracts

import "math"

// Column names of the Food_Supply_Quantity_kg_Data.csv source.
// ⭐ SSOT: every package refers to columns through these constants
const (
	ColCountry         = "Country"
	ColUnit            = "Unit (all except Population)"
	ColAnimalProducts  = "Animal Products"
	ColVegetalProducts = "Vegetal Products"
	ColObesity         = "Obesity"
	ColUndernourished  = "Undernourished"
	ColConfirmed       = "Confirmed"
	ColDeaths          = "Deaths"
	ColRecovered       = "Recovered"
	ColActive          = "Active"
	ColPopulation      = "Population"

	// Derived
	ColMortality       = "Mortality"
	ColObesityAboveAvg = "ObesityAboveAvg"
	ColISOAlpha        = "iso_alpha"
)

// FoodGroups lists the 21 food groups in display order.
// Record.Food is indexed in the same order.
var FoodGroups = []string{
	"Alcoholic Beverages",
	"Animal fats",
	"Aquatic Products, Other",
	"Cereals - Excluding Beer",
	"Eggs",
	"Fish, Seafood",
	"Fruits - Excluding Wine",
	"Meat",
	"Milk - Excluding Butter",
	"Miscellaneous",
	"Offals",
	"Oilcrops",
	"Pulses",
	"Spices",
	"Starchy Roots",
	"Stimulants",
	"Sugar & Sweeteners",
	"Sugar Crops",
	"Treenuts",
	"Vegetable Oils",
	"Vegetables",
}

// NumFoodGroups is len(FoodGroups)
const NumFoodGroups = 21

// FoodColumns are the columns stored as halved percentages in the source:
// the 21 groups plus the two aggregates.
func FoodColumns() []string {
	cols := make([]string, 0, NumFoodGroups+2)
	cols = append(cols, FoodGroups...)
	return append(cols, ColAnimalProducts, ColVegetalProducts)
}

// NumericColumns are all source columns parsed as floats.
func NumericColumns() []string {
	return append(FoodColumns(),
		ColObesity,
		ColUndernourished,
		ColConfirmed,
		ColDeaths,
		ColRecovered,
		ColActive,
		ColPopulation,
	)
}

// Record is one country's combined COVID and dietary data row
type Record struct {
	Country   string `json:"country"`
	ISOAlpha3 string `json:"iso_alpha"` // " " when unresolved

	// COVID metrics, % of population
	Confirmed float64 `json:"confirmed"`
	Deaths    float64 `json:"deaths"`
	Recovered float64 `json:"recovered"`
	Active    float64 `json:"active"`

	Population float64 `json:"population"`

	// Mortality is Deaths/Confirmed, NaN when Confirmed == 0
	Mortality Number `json:"mortality"`

	// Food intake, % of total, indexed like FoodGroups
	Food            [NumFoodGroups]float64 `json:"food"`
	AnimalProducts  float64                `json:"animal_products"`
	VegetalProducts float64                `json:"vegetal_products"`

	Obesity         float64 `json:"obesity"`
	Undernourished  float64 `json:"undernourished"`
	ObesityAboveAvg int     `json:"obesity_above_avg"` // 0 or 1
}

// HasCode reports whether the record got a usable ISO code
func (r *Record) HasCode() bool {
	return len(r.ISOAlpha3) == 3
}

// Value returns the value of a numeric column by name.
// The second result is false for unknown columns.
func (r *Record) Value(column string) (float64, bool) {
	switch column {
	case ColConfirmed:
		return r.Confirmed, true
	case ColDeaths:
		return r.Deaths, true
	case ColRecovered:
		return r.Recovered, true
	case ColActive:
		return r.Active, true
	case ColPopulation:
		return r.Population, true
	case ColMortality:
		return float64(r.Mortality), true
	case ColAnimalProducts:
		return r.AnimalProducts, true
	case ColVegetalProducts:
		return r.VegetalProducts, true
	case ColObesity:
		return r.Obesity, true
	case ColUndernourished:
		return r.Undernourished, true
	case ColObesityAboveAvg:
		return float64(r.ObesityAboveAvg), true
	}

	if i := FoodGroupIndex(column); i >= 0 {
		return r.Food[i], true
	}
	return math.NaN(), false
}

// FoodGroupIndex returns the position of name in FoodGroups, or -1
func FoodGroupIndex(name string) int {
	for i, g := range FoodGroups {
		if g == name {
			return i
		}
	}
	return -1
}

// CovidRow is the covid-only projection of a Record
type CovidRow struct {
	Country   string  `json:"Country"`
	Confirmed float64 `json:"Confirmed"`
	Deaths    float64 `json:"Deaths"`
	Active    float64 `json:"Active"`
	Mortality Number  `json:"Mortality"`
}

// Option is a (display, key) pair for dropdowns and radio groups
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
