package panel

import (
	"fmt"
	"math"
	"time"

	"factorlab/domain/core"
)

// Missing is the cell value for instrument/date combinations with no data.
// It is NaN, never zero: a zero cell is a real observation.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a cell holds no observation.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Panel is a two-dimensional numeric table indexed by ascending trading date
// (rows) and instrument identifier (columns). It is the shared data shape all
// analyzers consume. A Panel is immutable after construction; analyzers
// borrow it read-only.
type Panel struct {
	dates       []time.Time
	instruments []string
	colIndex    map[string]int
	cells       [][]float64 // dates x instruments
}

// New builds a panel from a date index, instrument columns and a
// dates-by-instruments cell matrix. Dates must be strictly ascending,
// instrument identifiers unique and the matrix shape must match the indices.
func New(dates []time.Time, instruments []string, cells [][]float64) (*Panel, error) {
	if len(dates) == 0 {
		return nil, core.ErrEmptyPanel
	}
	if len(instruments) == 0 {
		return nil, core.NewValidationError("instruments", "at least one instrument column is required")
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, core.NewValidationError("dates", fmt.Sprintf("date index must be strictly ascending, violated at row %d", i))
		}
	}
	colIndex := make(map[string]int, len(instruments))
	for i, inst := range instruments {
		if inst == "" {
			return nil, core.NewValidationError("instruments", fmt.Sprintf("empty instrument identifier at column %d", i))
		}
		if _, dup := colIndex[inst]; dup {
			return nil, core.NewValidationError("instruments", fmt.Sprintf("duplicate instrument identifier %q", inst))
		}
		colIndex[inst] = i
	}
	if len(cells) != len(dates) {
		return nil, core.NewValidationError("cells", fmt.Sprintf("expected %d rows, got %d", len(dates), len(cells)))
	}
	copied := make([][]float64, len(cells))
	for r, row := range cells {
		if len(row) != len(instruments) {
			return nil, core.NewValidationError("cells", fmt.Sprintf("row %d has %d columns, expected %d", r, len(row), len(instruments)))
		}
		copied[r] = append([]float64(nil), row...)
	}
	return &Panel{
		dates:       append([]time.Time(nil), dates...),
		instruments: append([]string(nil), instruments...),
		colIndex:    colIndex,
		cells:       copied,
	}, nil
}

// NumDates returns the number of rows in the date index.
func (p *Panel) NumDates() int { return len(p.dates) }

// NumInstruments returns the number of instrument columns.
func (p *Panel) NumInstruments() int { return len(p.instruments) }

// Date returns the date at the given row index.
func (p *Panel) Date(row int) time.Time { return p.dates[row] }

// Dates returns a copy of the date index.
func (p *Panel) Dates() []time.Time {
	return append([]time.Time(nil), p.dates...)
}

// Instruments returns a copy of the instrument columns, in column order.
func (p *Panel) Instruments() []string {
	return append([]string(nil), p.instruments...)
}

// At returns the cell at (row, col). The value is Missing when the
// instrument has no observation on that date.
func (p *Panel) At(row, col int) float64 { return p.cells[row][col] }

// Row returns the cross-sectional vector for one date. The slice is shared
// with the panel and must not be modified by the caller.
func (p *Panel) Row(row int) []float64 { return p.cells[row] }

// ColumnIndex returns the column position of an instrument, if present.
func (p *Panel) ColumnIndex(instrument string) (int, bool) {
	i, ok := p.colIndex[instrument]
	return i, ok
}

// SameDates reports whether two panels share an identical date index
// (same length, same ordering, same timestamps).
func (p *Panel) SameDates(other *Panel) bool {
	if other == nil || len(p.dates) != len(other.dates) {
		return false
	}
	for i := range p.dates {
		if !p.dates[i].Equal(other.dates[i]) {
			return false
		}
	}
	return true
}

// SameInstruments reports whether two panels share the identical instrument
// column set in the same order.
func (p *Panel) SameInstruments(other *Panel) bool {
	if other == nil || len(p.instruments) != len(other.instruments) {
		return false
	}
	for i := range p.instruments {
		if p.instruments[i] != other.instruments[i] {
			return false
		}
	}
	return true
}

// CheckAligned validates the shared-index precondition for a pair of panels
// used together. Alignment is the caller's responsibility; this only detects
// violations, it never repairs them.
func CheckAligned(a, b *Panel) error {
	if a == nil || b == nil {
		return core.NewAlignmentError("nil panel")
	}
	if !a.SameDates(b) {
		return core.NewAlignmentError("date indices differ")
	}
	if !a.SameInstruments(b) {
		return core.NewAlignmentError("instrument columns differ")
	}
	return nil
}
