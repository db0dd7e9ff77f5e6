// Package redundancy implements the factor-redundancy analyzer: pooled
// pairwise correlation over a named collection of factor panels, hierarchical
// grouping and deduplication suggestions.
package redundancy

import (
	"fmt"
	"math"
	"sort"

	"factorlab/domain/core"
	"factorlab/domain/panel"
	dstats "factorlab/domain/stats"
	"factorlab/internal/statutil"
)

// NamedPanel pairs a factor name with its panel. Collection order is
// preserved everywhere: in the correlation matrix, reports and groupings.
type NamedPanel struct {
	Name  string
	Panel *panel.Panel
}

// Matrix is a symmetric named correlation matrix with a unit diagonal.
type Matrix struct {
	names []string
	index map[string]int
	vals  [][]float64
}

// Names returns the factor names in matrix order.
func (m *Matrix) Names() []string { return append([]string(nil), m.names...) }

// Size returns the number of factors.
func (m *Matrix) Size() int { return len(m.names) }

// At returns the correlation at (i, j).
func (m *Matrix) At(i, j int) float64 { return m.vals[i][j] }

// ByName returns the correlation between two named factors.
func (m *Matrix) ByName(a, b string) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, core.NewValidationError("factor", fmt.Sprintf("unknown factor %q", a))
	}
	j, ok := m.index[b]
	if !ok {
		return 0, core.NewValidationError("factor", fmt.Sprintf("unknown factor %q", b))
	}
	return m.vals[i][j], nil
}

// Pair is one high-correlation factor pair (i < j in collection order).
type Pair struct {
	A           string
	B           string
	Correlation float64
	Strength    string
}

// Analyzer evaluates pairwise redundancy across a named factor collection.
// Panels are borrowed read-only; the analyzer caches only derived results.
type Analyzer struct {
	factors []NamedPanel
	matrix  *Matrix
}

// NewAnalyzer validates that every factor panel shares an identical date
// index and instrument column set, and that names are unique and non-empty.
// A single-factor collection is accepted; it yields a 1x1 unit matrix, no
// pairs and no suggestions.
func NewAnalyzer(factors []NamedPanel) (*Analyzer, error) {
	if len(factors) == 0 {
		return nil, core.NewValidationError("factors", "at least one factor is required")
	}
	seen := make(map[string]struct{}, len(factors))
	first := factors[0].Panel
	for _, f := range factors {
		if f.Name == "" {
			return nil, core.NewValidationError("factors", "factor name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, core.NewValidationError("factors", fmt.Sprintf("duplicate factor name %q", f.Name))
		}
		seen[f.Name] = struct{}{}
		if err := panel.CheckAligned(first, f.Panel); err != nil {
			return nil, fmt.Errorf("factor %q: %w", f.Name, err)
		}
	}
	return &Analyzer{factors: factors}, nil
}

// Names returns the factor names in collection order.
func (a *Analyzer) Names() []string {
	out := make([]string, len(a.factors))
	for i, f := range a.factors {
		out[i] = f.Name
	}
	return out
}

// CalculateCorrelation computes the pooled pairwise correlation matrix and
// caches it. Pooling flattens each panel into one value per (date,
// instrument) observation; each pair correlates over the intersection of
// jointly non-missing entries. window > 0 restricts pooling to that many
// most-recent dates; window == 0 pools the full sample. The diagonal is
// forced to exactly 1.0.
func (a *Analyzer) CalculateCorrelation(method dstats.CorrelationMethod, window int) (*Matrix, error) {
	if !method.Valid() {
		return nil, core.NewUnknownMethodError("correlation method", string(method))
	}
	if window < 0 {
		return nil, core.NewValidationError("window", "must be >= 0")
	}

	flat := a.flatten(window)

	k := len(a.factors)
	m := &Matrix{
		names: a.Names(),
		index: make(map[string]int, k),
		vals:  make([][]float64, k),
	}
	for i, name := range m.names {
		m.index[name] = i
		m.vals[i] = make([]float64, k)
		m.vals[i][i] = 1.0
	}

	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			xs, ys := jointlyValid(flat[i], flat[j])
			corr := statutil.Correlate(method, xs, ys)
			m.vals[i][j] = corr
			m.vals[j][i] = corr
		}
	}

	a.matrix = m
	return m, nil
}

// Matrix returns the cached correlation matrix from the last
// CalculateCorrelation call.
func (a *Analyzer) Matrix() (*Matrix, error) {
	if a.matrix == nil {
		return nil, core.NewNotComputedError("correlation matrix", "CalculateCorrelation")
	}
	return a.matrix, nil
}

// FindHighCorrelationPairs returns every unique unordered pair with
// |correlation| >= threshold, sorted descending by |correlation|. A cached
// matrix is reused; otherwise a pooled Spearman matrix is computed first.
func (a *Analyzer) FindHighCorrelationPairs(threshold float64) ([]Pair, error) {
	m, err := a.ensureMatrix()
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0)
	for i := 0; i < m.Size(); i++ {
		for j := i + 1; j < m.Size(); j++ {
			corr := m.At(i, j)
			if math.Abs(corr) >= threshold {
				pairs = append(pairs, Pair{
					A:           m.names[i],
					B:           m.names[j],
					Correlation: corr,
					Strength:    dstats.CorrelationStrength(corr),
				})
			}
		}
	}
	sortPairsByAbsCorrelation(pairs)
	return pairs, nil
}

func (a *Analyzer) ensureMatrix() (*Matrix, error) {
	if a.matrix != nil {
		return a.matrix, nil
	}
	return a.CalculateCorrelation(dstats.Spearman, 0)
}

// flatten pools each factor panel into one vector over the trailing window
// of dates (all dates when window is 0), in (date, instrument) order.
// Missing cells stay NaN so per-pair intersection is taken later.
func (a *Analyzer) flatten(window int) [][]float64 {
	p := a.factors[0].Panel
	start := 0
	if window > 0 && window < p.NumDates() {
		start = p.NumDates() - window
	}
	rows := p.NumDates() - start
	size := rows * p.NumInstruments()

	out := make([][]float64, len(a.factors))
	for f, named := range a.factors {
		vec := make([]float64, 0, size)
		for t := start; t < named.Panel.NumDates(); t++ {
			vec = append(vec, named.Panel.Row(t)...)
		}
		out[f] = vec
	}
	return out
}

func jointlyValid(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

func sortPairsByAbsCorrelation(pairs []Pair) {
	// Stable so equal-magnitude pairs keep matrix order.
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Correlation) > math.Abs(pairs[j].Correlation)
	})
}
