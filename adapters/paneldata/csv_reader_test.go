package paneldata

import (
	"os"
	"path/filepath"
	"testing"

	"factorlab/domain/panel"
	"factorlab/internal/testkit"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	u := testkit.NewUniverse(12, 5)
	prices := testkit.RandomWalkPrices(u, 31)
	factor := testkit.MomentumFactor(prices, 3) // first rows carry missing cells

	path := filepath.Join(t.TempDir(), "factor.csv")
	if err := SavePanelCSV(path, factor); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPanelCSV(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.NumDates() != factor.NumDates() || got.NumInstruments() != factor.NumInstruments() {
		t.Fatalf("shape mismatch: %dx%d vs %dx%d",
			got.NumDates(), got.NumInstruments(), factor.NumDates(), factor.NumInstruments())
	}
	for t0 := 0; t0 < factor.NumDates(); t0++ {
		if !got.Date(t0).Equal(factor.Date(t0)) {
			t.Errorf("date %d mismatch: %s vs %s", t0, got.Date(t0), factor.Date(t0))
		}
		for i := 0; i < factor.NumInstruments(); i++ {
			want := factor.At(t0, i)
			have := got.At(t0, i)
			if panel.IsMissing(want) {
				if !panel.IsMissing(have) {
					t.Errorf("(%d,%d): want missing, got %v", t0, i, have)
				}
				continue
			}
			if have != want {
				t.Errorf("(%d,%d): want %v, got %v", t0, i, have, want)
			}
		}
	}
}

func TestLoadPanelCSV_Malformed(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadPanelCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("bad date", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		content := "date,A,B\nnot-a-date,1,2\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPanelCSV(path); err == nil {
			t.Error("expected error for unparseable date")
		}
	})

	t.Run("descending dates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "desc.csv")
		content := "date,A,B\n2024-01-02,1,2\n2024-01-01,3,4\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPanelCSV(path); err == nil {
			t.Error("expected error for out-of-order dates")
		}
	})
}
