// Package statutil holds the statistical primitives shared by the three
// analyzers: rank transforms, correlation on paired vectors and time-series
// summary statistics.
package statutil

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	dstats "factorlab/domain/stats"
)

// Ranks converts values to 1-based ranks, averaging ties.
func Ranks(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return []float64{}
	}

	type pair struct {
		value float64
		index int
	}

	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)

	// Assign ranks, averaging tie groups
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		groupSize := j - i
		avgRank := float64(i+1) + float64(groupSize-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j
	}

	return ranks
}

// Pearson computes the Pearson correlation of two equal-length vectors.
// Degenerate inputs (short vectors, zero variance) yield 0 rather than NaN.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return clampCorrelation(r)
}

// SpearmanRho computes the Spearman rank correlation: the Pearson
// correlation of the within-vector average ranks.
func SpearmanRho(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	return Pearson(Ranks(x), Ranks(y))
}

// Correlate dispatches on the method enum.
func Correlate(method dstats.CorrelationMethod, x, y []float64) float64 {
	if method == dstats.Spearman {
		return SpearmanRho(x, y)
	}
	return Pearson(x, y)
}

// HasVariance reports whether the vector holds at least two distinct
// non-missing values, i.e. whether a correlation against it is defined.
func HasVariance(x []float64) bool {
	seen := math.NaN()
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(seen) {
			seen = v
			continue
		}
		if v != seen {
			return true
		}
	}
	return false
}

// MeanStd returns the mean and sample standard deviation (divisor n-1).
// The std is 0 when fewer than two observations are present.
func MeanStd(data []float64) (mean, std float64) {
	if len(data) == 0 {
		return 0, 0
	}
	mean, _ = mstats.Mean(mstats.Float64Data(data))
	if len(data) < 2 {
		return mean, 0
	}
	std, err := mstats.StandardDeviationSample(mstats.Float64Data(data))
	if err != nil || math.IsNaN(std) {
		return mean, 0
	}
	return mean, std
}

// TwoSidedPValue is the two-tailed p-value of a t-statistic with the given
// degrees of freedom, falling back to the normal approximation when the
// t-distribution is not defined.
func TwoSidedPValue(t float64, df float64) float64 {
	if df < 1 || math.IsNaN(t) {
		return 1.0
	}
	abs := math.Abs(t)
	var cdf float64
	if df > 200 {
		cdf = distuv.UnitNormal.CDF(abs)
	} else {
		st := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		cdf = st.CDF(abs)
	}
	p := 2 * (1 - cdf)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// SkewKurtosis returns sample skewness and excess kurtosis, 0 for
// series too short to define them.
func SkewKurtosis(data []float64) (skew, kurt float64) {
	if len(data) >= 3 {
		skew = stat.Skew(data, nil)
		if math.IsNaN(skew) || math.IsInf(skew, 0) {
			skew = 0
		}
	}
	if len(data) >= 4 {
		kurt = stat.ExKurtosis(data, nil)
		if math.IsNaN(kurt) || math.IsInf(kurt, 0) {
			kurt = 0
		}
	}
	return skew, kurt
}

func clampCorrelation(r float64) float64 {
	if r > 1.0 {
		return 1.0
	}
	if r < -1.0 {
		return -1.0
	}
	return r
}
