package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"factorlab/ports"
)

// ExcelSink collects named reports as sheets of a single workbook and
// writes the file on Close.
type ExcelSink struct {
	path string
	file *excelize.File
	used bool
}

// NewExcelSink creates a workbook sink targeting the given .xlsx path.
func NewExcelSink(path string) *ExcelSink {
	return &ExcelSink{path: path, file: excelize.NewFile()}
}

// WriteReport implements ports.ReportSink. Each report becomes one sheet
// with a header row.
func (s *ExcelSink) WriteReport(_ context.Context, name string, records []ports.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to save")
	}

	sheet := name
	if len(sheet) > 31 {
		sheet = sheet[:31] // sheet name limit
	}
	if !s.used {
		// Reuse the default sheet for the first report.
		if err := s.file.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
		s.used = true
	} else if _, err := s.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := s.writeRow(sheet, 1, headerCells(records[0])); err != nil {
		return err
	}
	for i, rec := range records {
		cells := make([]interface{}, len(rec))
		for j, f := range rec {
			cells[j] = f.Value
		}
		if err := s.writeRow(sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the workbook to disk.
func (s *ExcelSink) Close() error {
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return s.file.Close()
}

func (s *ExcelSink) writeRow(sheet string, row int, cells []interface{}) error {
	for col, v := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := s.file.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func headerCells(rec ports.Record) []interface{} {
	out := make([]interface{}, len(rec))
	for i, k := range rec.Keys() {
		out[i] = k
	}
	return out
}
