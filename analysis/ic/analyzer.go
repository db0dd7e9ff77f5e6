// Package ic implements the predictive-power analyzer: per-date
// cross-sectional correlation between factor scores and forward returns,
// aggregated into stability statistics over time.
package ic

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"factorlab/domain/core"
	"factorlab/domain/panel"
	dstats "factorlab/domain/stats"
	"factorlab/internal/statutil"
)

// minObservations is the minimum number of jointly valid instruments a date
// needs before its cross-sectional correlation enters the series.
const minObservations = 3

// Point is one dated information-coefficient observation.
type Point struct {
	Date  time.Time
	Value float64
	Count int // instruments used in the cross-section
}

// Series is a date-ordered information-coefficient series. Dates that did
// not meet the observation threshold are absent, never zero-filled.
type Series []Point

// Values extracts the correlation values in date order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Analyzer evaluates one factor panel against one price panel. It never
// mutates the panels it borrows; it only accumulates its own result cache,
// populated by CalculateIC and read by the report methods.
type Analyzer struct {
	price  *panel.Panel
	factor *panel.Panel

	workers int

	calculated bool
	series     Series
	summary    *Summary

	// parameters of the last CalculateIC call, echoed into reports
	horizon int
	kind    panel.ReturnKind
	method  dstats.CorrelationMethod
}

// NewAnalyzer validates the shared-index precondition and wraps the two
// panels. The panels are borrowed read-only.
func NewAnalyzer(price, factor *panel.Panel) (*Analyzer, error) {
	if err := panel.CheckAligned(price, factor); err != nil {
		return nil, err
	}
	return &Analyzer{
		price:   price,
		factor:  factor,
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// WithWorkers overrides the per-date worker pool size. Setting 1 forces
// fully sequential evaluation.
func (a *Analyzer) WithWorkers(n int) *Analyzer {
	if n >= 1 {
		a.workers = n
	}
	return a
}

// CalculateIC computes the information-coefficient series for the given
// forward-return horizon, return kind and correlation method, and caches it
// on the analyzer. Dates with fewer than three jointly valid instruments, or
// with a degenerate (zero-variance) cross-section, are excluded.
func (a *Analyzer) CalculateIC(horizon int, kind panel.ReturnKind, method dstats.CorrelationMethod) (Series, error) {
	if horizon < 1 {
		return nil, core.NewValidationError("horizon", "must be >= 1")
	}
	if !kind.Valid() {
		return nil, core.NewValidationError("return_kind", string(kind))
	}
	if !method.Valid() {
		return nil, core.NewUnknownMethodError("correlation method", string(method))
	}

	forward, err := a.price.ForwardReturns(horizon, kind)
	if err != nil {
		return nil, err
	}

	// Per-date cross-sections are independent, so they are evaluated on a
	// bounded worker pool. Each date writes only its own slot; the series is
	// assembled after all workers complete.
	type slot struct {
		ok    bool
		value float64
		count int
	}
	slots := make([]slot, len(forward))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for t := range forward {
		t := t
		g.Go(func() error {
			factorRow := a.factor.Row(t)
			xs, ys := jointlyValid(factorRow, forward[t])
			if len(xs) < minObservations {
				return nil
			}
			if !statutil.HasVariance(xs) || !statutil.HasVariance(ys) {
				return nil
			}
			slots[t] = slot{
				ok:    true,
				value: statutil.Correlate(method, xs, ys),
				count: len(xs),
			}
			return nil
		})
	}
	// Workers never fail; the group exists for its concurrency limit.
	_ = g.Wait()

	series := make(Series, 0, len(slots))
	for t, s := range slots {
		if !s.ok {
			continue
		}
		series = append(series, Point{Date: a.price.Date(t), Value: s.value, Count: s.count})
	}

	a.series = series
	a.summary = nil
	a.calculated = true
	a.horizon = horizon
	a.kind = kind
	a.method = method

	return series, nil
}

// ICSeries returns the cached series from the last CalculateIC call.
func (a *Analyzer) ICSeries() (Series, error) {
	if !a.calculated {
		return nil, core.NewNotComputedError("ic series", "CalculateIC")
	}
	return a.series, nil
}

// jointlyValid restricts two parallel vectors to the positions where both
// hold real observations.
func jointlyValid(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if panel.IsMissing(x[i]) || panel.IsMissing(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
