package ic

import (
	"math"
	"time"

	"factorlab/domain/core"
	dstats "factorlab/domain/stats"
	"factorlab/internal/statutil"
)

// Summary aggregates an information-coefficient series into stability
// statistics. Every ratio is a well-defined sentinel (0) under degenerate
// inputs, never NaN or Inf.
type Summary struct {
	Mean             float64
	Std              float64 // sample standard deviation, divisor n-1
	IR               float64 // Mean / Std
	TStat            float64 // Mean / (Std / sqrt(n))
	PValue           float64 // two-sided, t-distribution with n-1 df
	PositiveFraction float64
	AbsMean          float64
	Skew             float64
	Kurtosis         float64 // excess kurtosis
	Count            int
	Rating           dstats.Rating
}

// CalculateICStats derives the summary from the cached series and caches it.
// CalculateIC must have run first.
func (a *Analyzer) CalculateICStats() (Summary, error) {
	if !a.calculated {
		return Summary{}, core.NewNotComputedError("ic summary", "CalculateIC")
	}
	s := summarize(a.series)
	a.summary = &s
	return s, nil
}

func summarize(series Series) Summary {
	n := len(series)
	if n == 0 {
		return Summary{PValue: 1.0, Rating: dstats.RatingInsufficient}
	}

	values := series.Values()
	mean, std := statutil.MeanStd(values)

	var ir, tStat float64
	if std > 0 {
		ir = mean / std
		tStat = mean / (std / math.Sqrt(float64(n)))
	}

	positive := 0
	absSum := 0.0
	for _, v := range values {
		if v > 0 {
			positive++
		}
		absSum += math.Abs(v)
	}

	skew, kurt := statutil.SkewKurtosis(values)

	return Summary{
		Mean:             mean,
		Std:              std,
		IR:               ir,
		TStat:            tStat,
		PValue:           statutil.TwoSidedPValue(tStat, float64(n-1)),
		PositiveFraction: float64(positive) / float64(n),
		AbsMean:          absSum / float64(n),
		Skew:             skew,
		Kurtosis:         kurt,
		Count:            n,
		Rating:           rate(ir, mean),
	}
}

// rate maps IC stability onto a categorical label. Thresholds are checked
// in order; the first match wins.
func rate(ir, mean float64) dstats.Rating {
	absMean := math.Abs(mean)
	switch {
	case ir >= 1.0 && absMean >= 0.05:
		return dstats.RatingExcellent
	case ir >= 0.7 && absMean >= 0.03:
		return dstats.RatingGood
	case ir >= 0.5 && absMean >= 0.02:
		return dstats.RatingModerate
	case ir >= 0.3 && absMean >= 0.01:
		return dstats.RatingFair
	default:
		return dstats.RatingPoor
	}
}

// RollingPoint is one trailing-window summary observation.
type RollingPoint struct {
	Date time.Time
	Mean float64
	Std  float64
	IR   float64
}

// RollingStats computes trailing-window mean, std and IR over the cached
// series. The first window-1 dates carry no point.
func (a *Analyzer) RollingStats(window int) ([]RollingPoint, error) {
	if !a.calculated {
		return nil, core.NewNotComputedError("rolling ic stats", "CalculateIC")
	}
	if window < 2 {
		return nil, core.NewValidationError("window", "must be >= 2")
	}
	if len(a.series) < window {
		return []RollingPoint{}, nil
	}

	values := a.series.Values()
	out := make([]RollingPoint, 0, len(a.series)-window+1)
	for end := window; end <= len(values); end++ {
		mean, std := statutil.MeanStd(values[end-window : end])
		var ir float64
		if std > 0 {
			ir = mean / std
		}
		out = append(out, RollingPoint{
			Date: a.series[end-1].Date,
			Mean: mean,
			Std:  std,
			IR:   ir,
		})
	}
	return out, nil
}
