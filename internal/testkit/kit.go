// Package testkit generates deterministic synthetic panels for tests and
// demos. All generators are seeded; the same seed always produces the same
// panel.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"factorlab/domain/panel"
)

// Universe describes a synthetic instrument/date grid.
type Universe struct {
	Dates       []time.Time
	Instruments []string
}

// NewUniverse builds a daily date index starting at a fixed epoch and
// numbered instrument identifiers.
func NewUniverse(nDates, nInstruments int) Universe {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, nDates)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	instruments := make([]string, nInstruments)
	for i := range instruments {
		instruments[i] = fmt.Sprintf("INST%03d", i)
	}
	return Universe{Dates: dates, Instruments: instruments}
}

// RandomWalkPrices generates a geometric random-walk price panel.
func RandomWalkPrices(u Universe, seed int64) *panel.Panel {
	rng := rand.New(rand.NewSource(seed))
	cells := make([][]float64, len(u.Dates))
	level := make([]float64, len(u.Instruments))
	for i := range level {
		level[i] = 50 + rng.Float64()*100
	}
	for t := range u.Dates {
		row := make([]float64, len(u.Instruments))
		for i := range level {
			level[i] *= 1 + rng.NormFloat64()*0.02
			if level[i] < 1 {
				level[i] = 1
			}
			row[i] = level[i]
		}
		cells[t] = row
	}
	p, err := panel.New(u.Dates, u.Instruments, cells)
	if err != nil {
		panic(err) // generator invariants guarantee valid input
	}
	return p
}

// MomentumFactor derives a trailing-return factor from a price panel. The
// first lookback dates have no coverage and stay missing.
func MomentumFactor(prices *panel.Panel, lookback int) *panel.Panel {
	dates := prices.Dates()
	instruments := prices.Instruments()
	cells := make([][]float64, len(dates))
	for t := range dates {
		row := make([]float64, len(instruments))
		for i := range instruments {
			if t < lookback {
				row[i] = panel.Missing()
				continue
			}
			p0 := prices.At(t-lookback, i)
			p1 := prices.At(t, i)
			if panel.IsMissing(p0) || panel.IsMissing(p1) || p0 <= 0 {
				row[i] = panel.Missing()
				continue
			}
			row[i] = p1/p0 - 1
		}
		cells[t] = row
	}
	p, err := panel.New(dates, instruments, cells)
	if err != nil {
		panic(err)
	}
	return p
}

// NoiseFactor generates a pure-noise factor panel over the same grid as the
// given panel.
func NoiseFactor(like *panel.Panel, seed int64) *panel.Panel {
	rng := rand.New(rand.NewSource(seed))
	dates := like.Dates()
	instruments := like.Instruments()
	cells := make([][]float64, len(dates))
	for t := range dates {
		row := make([]float64, len(instruments))
		for i := range row {
			row[i] = rng.NormFloat64()
		}
		cells[t] = row
	}
	p, err := panel.New(dates, instruments, cells)
	if err != nil {
		panic(err)
	}
	return p
}

// PredictiveFactor generates a factor that equals the next-period
// cross-sectional return rank plus Gaussian noise, so its predictive power
// can be dialed with the noise level.
func PredictiveFactor(prices *panel.Panel, noise float64, seed int64) *panel.Panel {
	rng := rand.New(rand.NewSource(seed))
	dates := prices.Dates()
	instruments := prices.Instruments()
	cells := make([][]float64, len(dates))
	for t := range dates {
		row := make([]float64, len(instruments))
		for i := range instruments {
			if t+1 >= len(dates) {
				row[i] = rng.NormFloat64()
				continue
			}
			p0 := prices.At(t, i)
			p1 := prices.At(t+1, i)
			if panel.IsMissing(p0) || panel.IsMissing(p1) || p0 <= 0 {
				row[i] = panel.Missing()
				continue
			}
			row[i] = (p1/p0 - 1) + rng.NormFloat64()*noise
		}
		cells[t] = row
	}
	p, err := panel.New(dates, instruments, cells)
	if err != nil {
		panic(err)
	}
	return p
}

// ScaledCopy returns a panel with every cell multiplied by the given factor,
// preserving missing cells. Useful for constructing perfectly correlated
// factor pairs.
func ScaledCopy(src *panel.Panel, scale float64) *panel.Panel {
	dates := src.Dates()
	instruments := src.Instruments()
	cells := make([][]float64, len(dates))
	for t := range dates {
		row := make([]float64, len(instruments))
		for i := range row {
			v := src.At(t, i)
			if panel.IsMissing(v) {
				row[i] = panel.Missing()
				continue
			}
			row[i] = v * scale
		}
		cells[t] = row
	}
	p, err := panel.New(dates, instruments, cells)
	if err != nil {
		panic(err)
	}
	return p
}

// FixedGrowthPrices generates prices where instrument i compounds at
// growth[i] per date from a common base. Cross-sectional return order is
// constant, which makes analytical expectations exact in tests.
func FixedGrowthPrices(u Universe, growth []float64) *panel.Panel {
	if len(growth) != len(u.Instruments) {
		panic("growth rates must match instrument count")
	}
	cells := make([][]float64, len(u.Dates))
	for t := range u.Dates {
		row := make([]float64, len(u.Instruments))
		for i, g := range growth {
			row[i] = 100 * math.Pow(1+g, float64(t))
		}
		cells[t] = row
	}
	p, err := panel.New(u.Dates, u.Instruments, cells)
	if err != nil {
		panic(err)
	}
	return p
}
