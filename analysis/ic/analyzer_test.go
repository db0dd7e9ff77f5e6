package ic

import (
	"errors"
	"math"
	"testing"
	"time"

	"factorlab/domain/core"
	"factorlab/domain/panel"
	dstats "factorlab/domain/stats"
	"factorlab/internal/testkit"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewAnalyzer_RequiresAlignment(t *testing.T) {
	u := testkit.NewUniverse(10, 4)
	prices := testkit.RandomWalkPrices(u, 1)

	other := testkit.NewUniverse(10, 5)
	factor := testkit.NoiseFactor(testkit.RandomWalkPrices(other, 2), 3)

	if _, err := NewAnalyzer(prices, factor); err == nil {
		t.Fatal("expected alignment error for mismatched instrument sets")
	}
}

func TestCalculateIC_ParameterValidation(t *testing.T) {
	u := testkit.NewUniverse(10, 4)
	prices := testkit.RandomWalkPrices(u, 1)
	factor := testkit.NoiseFactor(prices, 2)
	a, err := NewAnalyzer(prices, factor)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		horizon int
		kind    panel.ReturnKind
		method  dstats.CorrelationMethod
	}{
		{"zero horizon", 0, panel.ReturnSimple, dstats.Spearman},
		{"bad kind", 1, panel.ReturnKind("weird"), dstats.Spearman},
		{"bad method", 1, panel.ReturnSimple, dstats.CorrelationMethod("weird")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.CalculateIC(tc.horizon, tc.kind, tc.method)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}

	t.Run("unknown method sentinel", func(t *testing.T) {
		_, err := a.CalculateIC(1, panel.ReturnSimple, dstats.CorrelationMethod("weird"))
		if !errors.Is(err, core.ErrUnknownMethod) {
			t.Errorf("want unknown-method error, got %v", err)
		}
	})
}

func TestCalculateIC_PerfectMonotoneFactor(t *testing.T) {
	// Instruments compound at distinct fixed rates, so the cross-sectional
	// forward-return order never changes. A factor equal to the growth rate
	// rank must score a Spearman IC of exactly 1.0 on every date.
	u := testkit.NewUniverse(6, 4)
	growth := []float64{0.01, 0.02, 0.03, 0.04}
	prices := testkit.FixedGrowthPrices(u, growth)

	cells := make([][]float64, len(u.Dates))
	for i := range cells {
		cells[i] = []float64{1, 2, 3, 4}
	}
	factor, err := panel.New(u.Dates, u.Instruments, cells)
	if err != nil {
		t.Fatal(err)
	}

	a, err := NewAnalyzer(prices, factor)
	if err != nil {
		t.Fatal(err)
	}
	series, err := a.CalculateIC(1, panel.ReturnSimple, dstats.Spearman)
	if err != nil {
		t.Fatal(err)
	}

	if len(series) != 5 {
		t.Fatalf("expected 5 points (dates minus horizon), got %d", len(series))
	}
	for _, p := range series {
		if !approx(p.Value, 1.0, 1e-12) {
			t.Errorf("%s: want IC 1.0, got %f", p.Date.Format("2006-01-02"), p.Value)
		}
		if p.Count != 4 {
			t.Errorf("%s: want count 4, got %d", p.Date.Format("2006-01-02"), p.Count)
		}
	}

	summary, err := a.CalculateICStats()
	if err != nil {
		t.Fatal(err)
	}
	if !approx(summary.Mean, 1.0, 1e-12) {
		t.Errorf("want mean 1.0, got %f", summary.Mean)
	}
	if summary.Std != 0 || summary.IR != 0 || summary.TStat != 0 {
		t.Errorf("constant series must yield zero std/IR/t-stat, got %f/%f/%f",
			summary.Std, summary.IR, summary.TStat)
	}
	if summary.PositiveFraction != 1.0 {
		t.Errorf("want positive fraction 1.0, got %f", summary.PositiveFraction)
	}
}

func TestCalculateIC_BoundsAndLength(t *testing.T) {
	u := testkit.NewUniverse(40, 8)
	prices := testkit.RandomWalkPrices(u, 7)
	factor := testkit.NoiseFactor(prices, 11)

	a, err := NewAnalyzer(prices, factor)
	if err != nil {
		t.Fatal(err)
	}
	series, err := a.CalculateIC(2, panel.ReturnLog, dstats.Pearson)
	if err != nil {
		t.Fatal(err)
	}

	if len(series) > 38 {
		t.Errorf("series length %d exceeds dates minus horizon", len(series))
	}
	last := time.Time{}
	for _, p := range series {
		if p.Value < -1 || p.Value > 1 {
			t.Errorf("IC %f outside [-1, 1]", p.Value)
		}
		if !p.Date.After(last) {
			t.Errorf("series dates not strictly ascending at %s", p.Date)
		}
		last = p.Date
	}
}

func TestCalculateIC_SkipsThinDates(t *testing.T) {
	u := testkit.NewUniverse(4, 4)
	prices := testkit.RandomWalkPrices(u, 5)

	// Only two instruments carry factor values on every date, below the
	// three-observation floor.
	cells := make([][]float64, 4)
	for i := range cells {
		cells[i] = []float64{float64(i), float64(i) * 2, panel.Missing(), panel.Missing()}
	}
	factor, err := panel.New(prices.Dates(), prices.Instruments(), cells)
	if err != nil {
		t.Fatal(err)
	}

	a, err := NewAnalyzer(prices, factor)
	if err != nil {
		t.Fatal(err)
	}
	series, err := a.CalculateIC(1, panel.ReturnSimple, dstats.Spearman)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series for thin cross-sections, got %d points", len(series))
	}

	summary, err := a.CalculateICStats()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Rating != dstats.RatingInsufficient {
		t.Errorf("want %q rating, got %q", dstats.RatingInsufficient, summary.Rating)
	}
	if summary.PValue != 1.0 {
		t.Errorf("want p-value 1.0 sentinel, got %f", summary.PValue)
	}
}

func TestICSeries_RequiresCalculation(t *testing.T) {
	u := testkit.NewUniverse(10, 4)
	prices := testkit.RandomWalkPrices(u, 1)
	factor := testkit.NoiseFactor(prices, 2)
	a, err := NewAnalyzer(prices, factor)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.ICSeries(); !errors.Is(err, core.ErrNotComputed) {
		t.Errorf("want not-computed error, got %v", err)
	}
	if _, err := a.CalculateICStats(); !errors.Is(err, core.ErrNotComputed) {
		t.Errorf("want not-computed error, got %v", err)
	}
	if _, err := a.RollingStats(5); !errors.Is(err, core.ErrNotComputed) {
		t.Errorf("want not-computed error, got %v", err)
	}
}

func TestRate(t *testing.T) {
	cases := []struct {
		name string
		ir   float64
		mean float64
		want dstats.Rating
	}{
		{"excellent", 1.2, 0.06, dstats.RatingExcellent},
		{"excellent boundary", 1.0, 0.05, dstats.RatingExcellent},
		{"good", 0.8, 0.04, dstats.RatingGood},
		{"moderate", 0.6, 0.025, dstats.RatingModerate},
		{"fair", 0.35, 0.015, dstats.RatingFair},
		{"poor low ir", 0.1, 0.08, dstats.RatingPoor},
		{"poor low mean", 1.5, 0.005, dstats.RatingPoor},
		{"negative mean good ir", 0.8, -0.04, dstats.RatingGood},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rate(tc.ir, tc.mean); got != tc.want {
				t.Errorf("rate(%v, %v): want %q, got %q", tc.ir, tc.mean, tc.want, got)
			}
		})
	}
}

func TestRollingStats(t *testing.T) {
	u := testkit.NewUniverse(30, 6)
	prices := testkit.RandomWalkPrices(u, 3)
	factor := testkit.NoiseFactor(prices, 9)
	a, err := NewAnalyzer(prices, factor)
	if err != nil {
		t.Fatal(err)
	}
	series, err := a.CalculateIC(1, panel.ReturnSimple, dstats.Spearman)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("window validation", func(t *testing.T) {
		if _, err := a.RollingStats(1); !errors.Is(err, core.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
	})

	t.Run("point count", func(t *testing.T) {
		pts, err := a.RollingStats(10)
		if err != nil {
			t.Fatal(err)
		}
		if want := len(series) - 10 + 1; len(pts) != want {
			t.Errorf("want %d rolling points, got %d", want, len(pts))
		}
	})

	t.Run("window longer than series", func(t *testing.T) {
		pts, err := a.RollingStats(len(series) + 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(pts) != 0 {
			t.Errorf("want empty result, got %d points", len(pts))
		}
	})
}
