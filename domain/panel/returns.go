package panel

import (
	"math"

	"factorlab/domain/core"
)

// ReturnKind selects how a forward return is derived from two prices.
type ReturnKind string

const (
	// ReturnSimple is price[t+k]/price[t] - 1.
	ReturnSimple ReturnKind = "simple"
	// ReturnLog is ln(price[t+k]/price[t]).
	ReturnLog ReturnKind = "log"
)

// Valid reports whether the return kind is one of the supported values.
func (k ReturnKind) Valid() bool {
	return k == ReturnSimple || k == ReturnLog
}

// ForwardReturns derives the horizon-step forward return matrix from a price
// panel. The result has NumDates()-horizon rows; row t holds the return from
// date t to date t+horizon per instrument. A cell is Missing wherever either
// price is missing or non-positive. The returns are derived on the fly and
// never persisted back into the panel.
func (p *Panel) ForwardReturns(horizon int, kind ReturnKind) ([][]float64, error) {
	if horizon < 1 {
		return nil, core.NewValidationError("horizon", "must be >= 1")
	}
	if !kind.Valid() {
		return nil, core.NewValidationError("return_kind", string(kind))
	}
	rows := len(p.dates) - horizon
	if rows < 0 {
		rows = 0
	}
	out := make([][]float64, rows)
	for t := 0; t < rows; t++ {
		row := make([]float64, len(p.instruments))
		for i := range p.instruments {
			p0 := p.cells[t][i]
			p1 := p.cells[t+horizon][i]
			if IsMissing(p0) || IsMissing(p1) || p0 <= 0 || p1 <= 0 {
				row[i] = Missing()
				continue
			}
			switch kind {
			case ReturnLog:
				row[i] = math.Log(p1 / p0)
			default:
				row[i] = p1/p0 - 1
			}
		}
		out[t] = row
	}
	return out, nil
}
