// Package report implements the export side of the report contract: flat
// records rendered as UTF-8 delimited text or spreadsheet rows.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"factorlab/ports"
)

// SaveRecordsCSV writes uniform records to a CSV file with a header row
// naming every field. Field order of the first record defines the header.
func SaveRecordsCSV(path string, records []ports.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to save")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(records[0].Keys()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Values()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// LoadRecordsCSV reads a report file back into header + string rows. It is
// the inverse of SaveRecordsCSV and exists for round-trip verification and
// for downstream tooling that consumes exported reports.
func LoadRecordsCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read report file: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("report file is empty")
	}
	return all[0], all[1:], nil
}

// CSVSink writes each named report as <dir>/<name>.csv.
type CSVSink struct {
	dir string
}

// NewCSVSink creates a sink rooted at the given directory, creating it if
// needed.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &CSVSink{dir: dir}, nil
}

// WriteReport implements ports.ReportSink.
func (s *CSVSink) WriteReport(_ context.Context, name string, records []ports.Record) error {
	return SaveRecordsCSV(filepath.Join(s.dir, name+".csv"), records)
}
