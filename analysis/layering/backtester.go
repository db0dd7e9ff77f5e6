// Package layering implements the quantile backtester: instruments are
// ranked into factor buckets date by date, and bucket and long-short return
// series are measured against standard performance metrics.
package layering

import (
	"fmt"
	"sort"
	"time"

	"factorlab/domain/core"
	"factorlab/domain/panel"
)

// Method selects how ranked instruments are split into buckets.
type Method string

const (
	// MethodQuantile assigns bucket floor(rank * n_layers / n), the
	// rank-percentile cut.
	MethodQuantile Method = "quantile"
	// MethodEqual assigns equal-count contiguous rank ranges, with the
	// remainder going to the top bucket.
	MethodEqual Method = "equal"
)

// Valid reports whether the method is one of the supported values.
func (m Method) Valid() bool { return m == MethodQuantile || m == MethodEqual }

// LayerSeries is the per-date equal-weighted mean forward return per bucket.
// Bucket 0 is the lowest factor quantile, NLayers-1 the highest. Dates that
// could not form every bucket are absent.
type LayerSeries struct {
	Dates   []time.Time
	Returns [][]float64 // dates x NLayers
	NLayers int
}

// ReturnSeries is a dated scalar return series.
type ReturnSeries struct {
	Dates  []time.Time
	Values []float64
}

// Backtester ranks one factor panel against one price panel. Panels are
// borrowed read-only; the backtester caches only its own derived series,
// populated by the calculate calls and read by the report calls.
type Backtester struct {
	price  *panel.Panel
	factor *panel.Panel

	layers    *LayerSeries
	longShort *ReturnSeries
	metrics   *Metrics

	// parameters of the last layer computation
	nLayers int
	horizon int
	method  Method
	kind    panel.ReturnKind
}

// NewBacktester validates the shared-index precondition and wraps the two
// panels.
func NewBacktester(price, factor *panel.Panel) (*Backtester, error) {
	if err := panel.CheckAligned(price, factor); err != nil {
		return nil, err
	}
	return &Backtester{price: price, factor: factor}, nil
}

// CalculateLayerReturns buckets instruments by factor value independently at
// every date and records the equal-weighted mean forward return per bucket.
// A date is skipped entirely, without error, when fewer jointly valid
// instruments or distinct factor values exist than buckets requested.
// Bucket boundaries never use information from any other date.
func (b *Backtester) CalculateLayerReturns(nLayers, horizon int, method Method, kind panel.ReturnKind) (*LayerSeries, error) {
	if nLayers < 2 {
		return nil, core.NewValidationError("n_layers", "must be >= 2")
	}
	if !method.Valid() {
		return nil, core.NewUnknownMethodError("bucketing method", string(method))
	}

	forward, err := b.price.ForwardReturns(horizon, kind)
	if err != nil {
		return nil, err
	}

	series := &LayerSeries{NLayers: nLayers}
	for t := range forward {
		factorRow := b.factor.Row(t)

		// Jointly valid instruments for this date.
		idx := make([]int, 0, len(factorRow))
		for i := range factorRow {
			if panel.IsMissing(factorRow[i]) || panel.IsMissing(forward[t][i]) {
				continue
			}
			idx = append(idx, i)
		}
		if len(idx) < nLayers || distinctValues(factorRow, idx) < nLayers {
			continue
		}

		// Rank low -> high; ties keep stable column order.
		sort.SliceStable(idx, func(x, y int) bool {
			return factorRow[idx[x]] < factorRow[idx[y]]
		})

		sums := make([]float64, nLayers)
		counts := make([]int, nLayers)
		for rank, col := range idx {
			layer := bucketFor(method, rank, len(idx), nLayers)
			sums[layer] += forward[t][col]
			counts[layer]++
		}

		means := make([]float64, nLayers)
		for l := range means {
			// Every bucket is non-empty: both methods cover all layers once
			// len(idx) >= nLayers.
			means[l] = sums[l] / float64(counts[l])
		}

		series.Dates = append(series.Dates, b.price.Date(t))
		series.Returns = append(series.Returns, means)
	}

	b.layers = series
	b.longShort = nil
	b.metrics = nil
	b.nLayers = nLayers
	b.horizon = horizon
	b.method = method
	b.kind = kind

	return series, nil
}

// LayerReturns returns the cached layer series.
func (b *Backtester) LayerReturns() (*LayerSeries, error) {
	if b.layers == nil {
		return nil, core.NewNotComputedError("layer returns", "CalculateLayerReturns")
	}
	return b.layers, nil
}

// CalculateLongShortReturns derives the per-date spread between two buckets.
// Negative layer indices count from the top: -1 is the highest bucket. The
// defaults (longLayer=-1, shortLayer=0) give highest minus lowest. A cached
// layer series with matching n_layers and horizon is reused; otherwise the
// layers are recomputed with quantile bucketing and simple returns.
func (b *Backtester) CalculateLongShortReturns(nLayers, horizon, longLayer, shortLayer int) (*ReturnSeries, error) {
	if nLayers < 2 {
		return nil, core.NewValidationError("n_layers", "must be >= 2")
	}
	if b.layers == nil || b.nLayers != nLayers || b.horizon != horizon {
		if _, err := b.CalculateLayerReturns(nLayers, horizon, MethodQuantile, panel.ReturnSimple); err != nil {
			return nil, err
		}
	}

	long, err := resolveLayer(longLayer, nLayers)
	if err != nil {
		return nil, err
	}
	short, err := resolveLayer(shortLayer, nLayers)
	if err != nil {
		return nil, err
	}

	series := &ReturnSeries{
		Dates:  append([]time.Time(nil), b.layers.Dates...),
		Values: make([]float64, len(b.layers.Returns)),
	}
	for i, row := range b.layers.Returns {
		series.Values[i] = row[long] - row[short]
	}

	b.longShort = series
	b.metrics = nil
	return series, nil
}

// LongShortReturns returns the cached long-short series.
func (b *Backtester) LongShortReturns() (*ReturnSeries, error) {
	if b.longShort == nil {
		return nil, core.NewNotComputedError("long-short returns", "CalculateLongShortReturns")
	}
	return b.longShort, nil
}

func resolveLayer(layer, nLayers int) (int, error) {
	resolved := layer
	if resolved < 0 {
		resolved = nLayers + resolved
	}
	if resolved < 0 || resolved >= nLayers {
		return 0, core.NewValidationError("layer", fmt.Sprintf("index %d out of range for %d layers", layer, nLayers))
	}
	return resolved, nil
}

func bucketFor(method Method, rank, n, nLayers int) int {
	if method == MethodEqual {
		per := n / nLayers
		layer := rank / per
		if layer >= nLayers {
			layer = nLayers - 1 // remainder joins the top bucket
		}
		return layer
	}
	layer := rank * nLayers / n
	if layer >= nLayers {
		layer = nLayers - 1
	}
	return layer
}

func distinctValues(row []float64, idx []int) int {
	seen := make(map[float64]struct{}, len(idx))
	for _, i := range idx {
		seen[row[i]] = struct{}{}
	}
	return len(seen)
}
