package report

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"factorlab/ports"
)

func sampleRecords() []ports.Record {
	return []ports.Record{
		{
			{Key: "factor", Value: "mom_20"},
			{Key: "ic_mean", Value: 0.0421337},
			{Key: "ic_count", Value: 230},
			{Key: "date", Value: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
			{Key: "rating", Value: "fair"},
		},
		{
			{Key: "factor", Value: "noise"},
			{Key: "ic_mean", Value: -0.003},
			{Key: "ic_count", Value: 230},
			{Key: "date", Value: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)},
			{Key: "rating", Value: "poor"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	records := sampleRecords()
	if err := SaveRecordsCSV(path, records); err != nil {
		t.Fatal(err)
	}

	header, rows, err := LoadRecordsCSV(path)
	if err != nil {
		t.Fatal(err)
	}

	wantHeader := []string{"factor", "ic_mean", "ic_count", "date", "rating"}
	if len(header) != len(wantHeader) {
		t.Fatalf("header length: want %d, got %d", len(wantHeader), len(header))
	}
	for i := range wantHeader {
		if header[i] != wantHeader[i] {
			t.Errorf("header[%d]: want %q, got %q", i, wantHeader[i], header[i])
		}
	}

	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "mom_20" || rows[1][0] != "noise" {
		t.Errorf("factor column mismatch: %v", rows)
	}
	if rows[0][3] != "2024-03-15" {
		t.Errorf("date column: want 2024-03-15, got %q", rows[0][3])
	}

	// Floats round-trip exactly through the shortest representation.
	got, err := strconv.ParseFloat(rows[0][1], 64)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.0421337 {
		t.Errorf("float round-trip: want 0.0421337, got %v", got)
	}
}

func TestSaveRecordsCSV_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := SaveRecordsCSV(path, nil); err == nil {
		t.Error("expected error for empty record set")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created for an empty record set")
	}
}

func TestCSVSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink, err := NewCSVSink(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := sink.WriteReport(context.Background(), "ic_summary", sampleRecords()); err != nil {
		t.Fatal(err)
	}

	header, rows, err := LoadRecordsCSV(filepath.Join(dir, "ic_summary.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(header) != 5 || len(rows) != 2 {
		t.Errorf("unexpected report shape: %d columns, %d rows", len(header), len(rows))
	}
}
