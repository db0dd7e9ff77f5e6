package layering

import (
	"errors"
	"math"
	"testing"

	"factorlab/domain/core"
	"factorlab/domain/panel"
	dstats "factorlab/domain/stats"
	"factorlab/internal/testkit"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCalculateLayerReturns_Validation(t *testing.T) {
	u := testkit.NewUniverse(10, 6)
	prices := testkit.RandomWalkPrices(u, 1)
	factor := testkit.NoiseFactor(prices, 2)
	b, err := NewBacktester(prices, factor)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("n_layers below two", func(t *testing.T) {
		if _, err := b.CalculateLayerReturns(1, 1, MethodQuantile, panel.ReturnSimple); !errors.Is(err, core.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		if _, err := b.CalculateLayerReturns(3, 1, Method("weird"), panel.ReturnSimple); !errors.Is(err, core.ErrUnknownMethod) {
			t.Errorf("want unknown-method error, got %v", err)
		}
	})

	t.Run("zero horizon", func(t *testing.T) {
		if _, err := b.CalculateLayerReturns(3, 0, MethodQuantile, panel.ReturnSimple); !errors.Is(err, core.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
	})
}

func TestCalculateLayerReturns_BucketsByFactorOrder(t *testing.T) {
	// Instruments compound at distinct fixed rates and the factor equals the
	// growth rate, so the top bucket always holds the fastest growers.
	u := testkit.NewUniverse(5, 6)
	growth := []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06}
	prices := testkit.FixedGrowthPrices(u, growth)

	cells := make([][]float64, len(u.Dates))
	for i := range cells {
		cells[i] = append([]float64(nil), growth...)
	}
	factor, err := panel.New(u.Dates, u.Instruments, cells)
	if err != nil {
		t.Fatal(err)
	}

	b, err := NewBacktester(prices, factor)
	if err != nil {
		t.Fatal(err)
	}
	series, err := b.CalculateLayerReturns(3, 1, MethodQuantile, panel.ReturnSimple)
	if err != nil {
		t.Fatal(err)
	}

	if len(series.Dates) != 4 {
		t.Fatalf("expected 4 dates (dates minus horizon), got %d", len(series.Dates))
	}
	for _, row := range series.Returns {
		if len(row) != 3 {
			t.Fatalf("expected 3 buckets per date, got %d", len(row))
		}
		// Bucket means: (1%+2%)/2, (3%+4%)/2, (5%+6%)/2.
		if !approx(row[0], 0.015, 1e-12) || !approx(row[1], 0.035, 1e-12) || !approx(row[2], 0.055, 1e-12) {
			t.Errorf("unexpected bucket means %v", row)
		}
	}

	ls, err := b.CalculateLongShortReturns(3, 1, -1, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range ls.Values {
		if !approx(v, 0.04, 1e-12) {
			t.Errorf("long-short spread: want 0.04, got %f", v)
		}
	}
}

func TestCalculateLayerReturns_SkipsDegenerateDates(t *testing.T) {
	u := testkit.NewUniverse(4, 6)
	prices := testkit.RandomWalkPrices(u, 9)

	// All instruments share one factor value; no date can form 5 buckets
	// out of a single distinct value.
	cells := make([][]float64, len(u.Dates))
	for i := range cells {
		cells[i] = []float64{7, 7, 7, 7, 7, 7}
	}
	factor, err := panel.New(u.Dates, u.Instruments, cells)
	if err != nil {
		t.Fatal(err)
	}

	b, err := NewBacktester(prices, factor)
	if err != nil {
		t.Fatal(err)
	}
	series, err := b.CalculateLayerReturns(5, 1, MethodQuantile, panel.ReturnSimple)
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Dates) != 0 {
		t.Errorf("expected every date skipped, got %d", len(series.Dates))
	}
}

func TestCalculateLongShortReturns_LayerIndexing(t *testing.T) {
	u := testkit.NewUniverse(20, 8)
	prices := testkit.RandomWalkPrices(u, 13)
	factor := testkit.NoiseFactor(prices, 17)
	b, err := NewBacktester(prices, factor)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("negative index counts from top", func(t *testing.T) {
		neg, err := b.CalculateLongShortReturns(4, 1, -1, 0)
		if err != nil {
			t.Fatal(err)
		}
		pos, err := b.CalculateLongShortReturns(4, 1, 3, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(neg.Values) != len(pos.Values) {
			t.Fatalf("series length mismatch: %d vs %d", len(neg.Values), len(pos.Values))
		}
		for i := range neg.Values {
			if neg.Values[i] != pos.Values[i] {
				t.Errorf("layer -1 must equal layer 3 for 4 buckets at index %d", i)
			}
		}
	})

	t.Run("out of range layer", func(t *testing.T) {
		if _, err := b.CalculateLongShortReturns(4, 1, 4, 0); !errors.Is(err, core.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
		if _, err := b.CalculateLongShortReturns(4, 1, -5, 0); !errors.Is(err, core.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
	})
}

func TestResultAccessors_RequireCalculation(t *testing.T) {
	u := testkit.NewUniverse(10, 6)
	prices := testkit.RandomWalkPrices(u, 1)
	factor := testkit.NoiseFactor(prices, 2)
	b, err := NewBacktester(prices, factor)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := b.LayerReturns(); !errors.Is(err, core.ErrNotComputed) {
		t.Errorf("want not-computed error, got %v", err)
	}
	if _, err := b.LongShortReturns(); !errors.Is(err, core.ErrNotComputed) {
		t.Errorf("want not-computed error, got %v", err)
	}
	if _, err := b.CalculateBacktestMetrics(nil, DefaultPeriodsPerYear); !errors.Is(err, core.ErrNotComputed) {
		t.Errorf("want not-computed error, got %v", err)
	}
	if _, err := b.LayerStatistics(); !errors.Is(err, core.ErrNotComputed) {
		t.Errorf("want not-computed error, got %v", err)
	}
}

func TestComputeMetrics(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		m := ComputeMetrics(nil, DefaultPeriodsPerYear)
		if m.Rating != dstats.RatingInsufficient {
			t.Errorf("want %q, got %q", dstats.RatingInsufficient, m.Rating)
		}
		if m.CumulativeReturn != 0 || m.Sharpe != 0 || m.MaxDrawdown != 0 {
			t.Error("empty series must yield zero sentinels")
		}
	})

	t.Run("all zero returns", func(t *testing.T) {
		m := ComputeMetrics([]float64{0, 0, 0, 0}, DefaultPeriodsPerYear)
		if m.CumulativeReturn != 0 || m.AnnualizedReturn != 0 {
			t.Errorf("flat series: want zero returns, got %f/%f", m.CumulativeReturn, m.AnnualizedReturn)
		}
		if m.AnnualizedVolatility != 0 || m.Sharpe != 0 {
			t.Errorf("flat series: want zero vol and sharpe, got %f/%f", m.AnnualizedVolatility, m.Sharpe)
		}
		if m.WinRate != 0 || m.MaxDrawdown != 0 {
			t.Errorf("flat series: want zero win rate and drawdown, got %f/%f", m.WinRate, m.MaxDrawdown)
		}
	})

	t.Run("known series", func(t *testing.T) {
		m := ComputeMetrics([]float64{0.10, -0.05}, 252)
		cum := 1.10*0.95 - 1
		if !approx(m.CumulativeReturn, cum, 1e-12) {
			t.Errorf("cumulative: want %f, got %f", cum, m.CumulativeReturn)
		}
		ann := math.Pow(1+cum, 126) - 1
		if !approx(m.AnnualizedReturn, ann, 1e-9) {
			t.Errorf("annualized: want %f, got %f", ann, m.AnnualizedReturn)
		}
		if !approx(m.MaxDrawdown, -0.05, 1e-12) {
			t.Errorf("drawdown: want -0.05, got %f", m.MaxDrawdown)
		}
		if m.WinRate != 0.5 {
			t.Errorf("win rate: want 0.5, got %f", m.WinRate)
		}
		if !approx(m.ProfitLossRatio, 2.0, 1e-12) {
			t.Errorf("profit-loss ratio: want 2.0, got %f", m.ProfitLossRatio)
		}
		if m.Periods != 2 {
			t.Errorf("periods: want 2, got %d", m.Periods)
		}
	})

	t.Run("total loss", func(t *testing.T) {
		m := ComputeMetrics([]float64{-0.5, -1.0}, 252)
		if m.AnnualizedReturn != -1.0 {
			t.Errorf("total loss: want -1.0 sentinel, got %f", m.AnnualizedReturn)
		}
		if math.IsNaN(m.Sharpe) || math.IsInf(m.Sharpe, 0) {
			t.Errorf("sharpe must stay finite, got %f", m.Sharpe)
		}
	})
}

func TestRateStrategy(t *testing.T) {
	cases := []struct {
		name       string
		sharpe     float64
		annualized float64
		want       dstats.Rating
	}{
		{"excellent", 2.5, 0.20, dstats.RatingExcellent},
		{"good", 1.6, 0.08, dstats.RatingGood},
		{"moderate", 1.2, 0.03, dstats.RatingModerate},
		{"fair", 0.6, -0.01, dstats.RatingFair},
		{"poor", 0.2, 0.30, dstats.RatingPoor},
		{"high sharpe at return boundary", 2.5, 0.05, dstats.RatingModerate},
		{"high sharpe above return boundary", 2.5, 0.055, dstats.RatingGood},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rateStrategy(tc.sharpe, tc.annualized); got != tc.want {
				t.Errorf("rateStrategy(%v, %v): want %q, got %q", tc.sharpe, tc.annualized, tc.want, got)
			}
		})
	}
}

func TestLayerStatistics(t *testing.T) {
	// Power-of-two multipliers keep every price and forward return exactly
	// representable, so the per-layer series are constant bit-for-bit and
	// the sample std is exactly zero, not merely small.
	u := testkit.NewUniverse(5, 6)
	multipliers := []float64{2, 4, 8, 16, 32, 64}

	cells := make([][]float64, len(u.Dates))
	level := []float64{100, 100, 100, 100, 100, 100}
	for i := range cells {
		cells[i] = append([]float64(nil), level...)
		for j := range level {
			level[j] *= multipliers[j]
		}
	}
	prices, err := panel.New(u.Dates, u.Instruments, cells)
	if err != nil {
		t.Fatal(err)
	}

	factorCells := make([][]float64, len(u.Dates))
	for i := range factorCells {
		factorCells[i] = append([]float64(nil), multipliers...)
	}
	factor, err := panel.New(u.Dates, u.Instruments, factorCells)
	if err != nil {
		t.Fatal(err)
	}

	b, err := NewBacktester(prices, factor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.CalculateLayerReturns(2, 1, MethodEqual, panel.ReturnSimple); err != nil {
		t.Fatal(err)
	}

	stats, err := b.LayerStatistics()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("want 2 layer stats, got %d", len(stats))
	}
	// Forward return per instrument is multiplier-1; bucket means are
	// (1+3+7)/3 and (15+31+63)/3.
	if !approx(stats[0].MeanReturn, 11.0/3.0, 1e-12) {
		t.Errorf("bottom layer mean: want %f, got %f", 11.0/3.0, stats[0].MeanReturn)
	}
	if !approx(stats[1].MeanReturn, 109.0/3.0, 1e-12) {
		t.Errorf("top layer mean: want %f, got %f", 109.0/3.0, stats[1].MeanReturn)
	}
	if stats[0].WinRate != 1.0 || stats[1].WinRate != 1.0 {
		t.Error("constant positive returns must have win rate 1.0")
	}
	if stats[0].StdReturn != 0 || stats[0].Sharpe != 0 {
		t.Error("constant series must yield zero std and per-period sharpe")
	}
	if stats[1].StdReturn != 0 || stats[1].Sharpe != 0 {
		t.Error("constant series must yield zero std and per-period sharpe")
	}
}
