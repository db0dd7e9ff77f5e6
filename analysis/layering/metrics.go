package layering

import (
	"math"

	"factorlab/domain/core"
	dstats "factorlab/domain/stats"
	"factorlab/internal/statutil"
)

// DefaultPeriodsPerYear is the trading-day annualization factor.
const DefaultPeriodsPerYear = 252

// Metrics summarizes a return series. Degenerate series (empty, zero
// volatility, flat NAV) yield 0 sentinels, never NaN or Inf.
type Metrics struct {
	CumulativeReturn     float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	Sharpe               float64 // annualized return / annualized volatility
	MaxDrawdown          float64 // most negative peak-to-trough NAV decline
	WinRate              float64
	ProfitLossRatio      float64 // mean gain / mean |loss|
	CalmarRatio          float64 // annualized return / |max drawdown|
	Periods              int
	Rating               dstats.Rating
}

// CalculateBacktestMetrics computes performance metrics for the given
// return series. Passing a nil series uses the cached long-short returns.
// The result is cached for the report calls.
func (b *Backtester) CalculateBacktestMetrics(returns []float64, periodsPerYear int) (Metrics, error) {
	if periodsPerYear < 1 {
		return Metrics{}, core.NewValidationError("periods_per_year", "must be >= 1")
	}
	if returns == nil {
		if b.longShort == nil {
			return Metrics{}, core.NewNotComputedError("backtest metrics", "CalculateLongShortReturns")
		}
		returns = b.longShort.Values
	}
	m := ComputeMetrics(returns, periodsPerYear)
	b.metrics = &m
	return m, nil
}

// ComputeMetrics derives Metrics from any raw return series.
func ComputeMetrics(returns []float64, periodsPerYear int) Metrics {
	n := len(returns)
	if n == 0 {
		return Metrics{Rating: dstats.RatingInsufficient}
	}

	cumulative := 1.0
	nav := 1.0
	peak := 1.0
	maxDrawdown := 0.0
	wins := 0
	gainSum, lossSum := 0.0, 0.0
	gainN, lossN := 0, 0
	for _, r := range returns {
		cumulative *= 1 + r
		nav *= 1 + r
		if nav > peak {
			peak = nav
		}
		if dd := nav/peak - 1; dd < maxDrawdown {
			maxDrawdown = dd
		}
		if r > 0 {
			wins++
			gainSum += r
			gainN++
		} else if r < 0 {
			lossSum += -r
			lossN++
		}
	}
	cumulative -= 1

	annualized := -1.0
	if 1+cumulative > 0 {
		annualized = math.Pow(1+cumulative, float64(periodsPerYear)/float64(n)) - 1
	}

	_, std := statutil.MeanStd(returns)
	volatility := std * math.Sqrt(float64(periodsPerYear))

	sharpe := 0.0
	if volatility > 0 {
		sharpe = annualized / volatility
	}

	plRatio := 0.0
	if gainN > 0 && lossN > 0 && lossSum > 0 {
		plRatio = (gainSum / float64(gainN)) / (lossSum / float64(lossN))
	}

	calmar := 0.0
	if maxDrawdown != 0 {
		calmar = annualized / math.Abs(maxDrawdown)
	}

	return Metrics{
		CumulativeReturn:     cumulative,
		AnnualizedReturn:     annualized,
		AnnualizedVolatility: volatility,
		Sharpe:               sharpe,
		MaxDrawdown:          maxDrawdown,
		WinRate:              float64(wins) / float64(n),
		ProfitLossRatio:      plRatio,
		CalmarRatio:          calmar,
		Periods:              n,
		Rating:               rateStrategy(sharpe, annualized),
	}
}

// rateStrategy maps performance onto a categorical label. Thresholds are
// checked in order; the first match wins.
func rateStrategy(sharpe, annualized float64) dstats.Rating {
	switch {
	case sharpe >= 2.0 && annualized > 0.10:
		return dstats.RatingExcellent
	case sharpe >= 1.5 && annualized > 0.05:
		return dstats.RatingGood
	case sharpe >= 1.0 && annualized > 0:
		return dstats.RatingModerate
	case sharpe >= 0.5:
		return dstats.RatingFair
	default:
		return dstats.RatingPoor
	}
}

// LayerStat summarizes one bucket of the layer series.
type LayerStat struct {
	Layer       int
	MeanReturn  float64
	StdReturn   float64
	Sharpe      float64 // per-period mean/std, not annualized
	WinRate     float64
	TotalReturn float64
	MaxDrawdown float64
}

// LayerStatistics summarizes every bucket of the cached layer series.
func (b *Backtester) LayerStatistics() ([]LayerStat, error) {
	if b.layers == nil {
		return nil, core.NewNotComputedError("layer statistics", "CalculateLayerReturns")
	}

	stats := make([]LayerStat, b.layers.NLayers)
	for l := 0; l < b.layers.NLayers; l++ {
		col := make([]float64, len(b.layers.Returns))
		for t, row := range b.layers.Returns {
			col[t] = row[l]
		}
		stats[l] = summarizeLayer(l, col)
	}
	return stats, nil
}

func summarizeLayer(layer int, returns []float64) LayerStat {
	s := LayerStat{Layer: layer}
	if len(returns) == 0 {
		return s
	}

	mean, std := statutil.MeanStd(returns)
	s.MeanReturn = mean
	s.StdReturn = std
	if std > 0 {
		s.Sharpe = mean / std
	}

	nav := 1.0
	peak := 1.0
	wins := 0
	for _, r := range returns {
		nav *= 1 + r
		if nav > peak {
			peak = nav
		}
		if dd := nav/peak - 1; dd < s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
		if r > 0 {
			wins++
		}
	}
	s.TotalReturn = nav - 1
	s.WinRate = float64(wins) / float64(len(returns))
	return s
}
