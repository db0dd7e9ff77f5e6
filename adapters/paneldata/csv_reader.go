// Package paneldata loads caller-assembled panels from delimited text. It
// is a boundary adapter: the computational core only ever sees the Panel
// type, never files.
package paneldata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"factorlab/domain/panel"
)

const dateLayout = "2006-01-02"

// LoadPanelCSV reads a wide-format panel file: a header row of "date"
// followed by instrument identifiers, then one row per trading date in
// ascending order. Empty cells denote missing observations.
func LoadPanelCSV(path string) (*panel.Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read panel file %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("panel file %s has no data rows", path)
	}

	header := rows[0]
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("panel file %s must start with a 'date' column followed by instruments", path)
	}
	instruments := make([]string, len(header)-1)
	for i, h := range header[1:] {
		instruments[i] = strings.TrimSpace(h)
	}

	dates := make([]time.Time, 0, len(rows)-1)
	cells := make([][]float64, 0, len(rows)-1)
	for lineNo, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("panel file %s row %d has %d columns, expected %d", path, lineNo+2, len(row), len(header))
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("panel file %s row %d: bad date %q: %w", path, lineNo+2, row[0], err)
		}
		values := make([]float64, len(instruments))
		for i, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				values[i] = panel.Missing()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("panel file %s row %d column %s: bad value %q: %w", path, lineNo+2, instruments[i], cell, err)
			}
			values[i] = v
		}
		dates = append(dates, date)
		cells = append(cells, values)
	}

	return panel.New(dates, instruments, cells)
}

// SavePanelCSV writes a panel in the wide format LoadPanelCSV reads.
func SavePanelCSV(path string, p *panel.Panel) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create panel file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"date"}, p.Instruments()...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for t := 0; t < p.NumDates(); t++ {
		row := make([]string, 1, p.NumInstruments()+1)
		row[0] = p.Date(t).Format(dateLayout)
		for i := 0; i < p.NumInstruments(); i++ {
			v := p.At(t, i)
			if panel.IsMissing(v) {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
