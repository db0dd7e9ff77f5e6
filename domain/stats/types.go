package stats

// CorrelationMethod selects the cross-sectional correlation statistic.
type CorrelationMethod string

const (
	Pearson  CorrelationMethod = "pearson"
	Spearman CorrelationMethod = "spearman"
)

// Valid reports whether the method is one of the supported values.
func (m CorrelationMethod) Valid() bool {
	return m == Pearson || m == Spearman
}

// Linkage selects the agglomerative clustering linkage rule.
type Linkage string

const (
	LinkageSingle   Linkage = "single"
	LinkageComplete Linkage = "complete"
	LinkageAverage  Linkage = "average"
)

// Valid reports whether the linkage is one of the supported values.
func (l Linkage) Valid() bool {
	return l == LinkageSingle || l == LinkageComplete || l == LinkageAverage
}

// Rating is a categorical quality label derived from summary statistics.
// Degenerate inputs produce RatingInsufficient, never an error.
type Rating string

const (
	RatingExcellent    Rating = "excellent"
	RatingGood         Rating = "good"
	RatingModerate     Rating = "moderate"
	RatingFair         Rating = "fair"
	RatingPoor         Rating = "poor"
	RatingInsufficient Rating = "insufficient data"
)

// CorrelationStrength labels the magnitude of a correlation coefficient.
func CorrelationStrength(corr float64) string {
	abs := corr
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 0.9:
		return "very strong"
	case abs >= 0.7:
		return "strong"
	case abs >= 0.5:
		return "moderate"
	case abs >= 0.3:
		return "weak"
	default:
		return "very weak"
	}
}
