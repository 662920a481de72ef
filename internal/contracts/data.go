package contracts

// Coverage groups of the data quality report
const (
	CoverageCovid  = "covid"
	CoverageDiet   = "diet"
	CoverageHealth = "health"
	CoverageGeo    = "geo"
)

// MinQualityScore is the score below which a dataset is flagged
const MinQualityScore = 0.7

// DataQuality summarizes how complete the source file was before cleaning
// ⭐ SSOT: computed once by the dataset loader
type DataQuality struct {
	Rows         int                `json:"rows"`
	ValidRows    int                `json:"valid_rows"`    // rows with no mean-filled cell
	Coverage     map[string]float64 `json:"coverage"`      // share of present cells per group
	Filled       map[string]int     `json:"filled"`        // mean-filled cells per column
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`
}

// IsValid checks if the dataset meets minimum requirements
func (d *DataQuality) IsValid() bool {
	return d.QualityScore >= MinQualityScore && d.ValidRows > 0
}

// CoverageRate returns the average coverage rate across all groups
func (d *DataQuality) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
