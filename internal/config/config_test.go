package config

import (
	"errors"
	"testing"

	"factorlab/domain/core"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FACTORLAB_REPORT_DIR", "")
	t.Setenv("FACTORLAB_PERIODS_PER_YEAR", "")
	t.Setenv("FACTORLAB_WORKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reports.Dir != "reports" {
		t.Errorf("want default report dir %q, got %q", "reports", cfg.Reports.Dir)
	}
	if cfg.Analysis.PeriodsPerYear != 252 {
		t.Errorf("want 252 periods per year, got %d", cfg.Analysis.PeriodsPerYear)
	}
	if cfg.Analysis.Workers < 1 {
		t.Errorf("want at least one worker, got %d", cfg.Analysis.Workers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FACTORLAB_REPORT_DIR", "/tmp/out")
	t.Setenv("FACTORLAB_PERIODS_PER_YEAR", "52")
	t.Setenv("FACTORLAB_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reports.Dir != "/tmp/out" {
		t.Errorf("report dir override ignored, got %q", cfg.Reports.Dir)
	}
	if cfg.Analysis.PeriodsPerYear != 52 {
		t.Errorf("want 52, got %d", cfg.Analysis.PeriodsPerYear)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("want 4 workers, got %d", cfg.Analysis.Workers)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad periods", func(t *testing.T) {
		t.Setenv("FACTORLAB_PERIODS_PER_YEAR", "zero")
		if _, err := Load(); !errors.Is(err, core.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
	})

	t.Run("negative workers", func(t *testing.T) {
		t.Setenv("FACTORLAB_WORKERS", "-2")
		if _, err := Load(); !errors.Is(err, core.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
	})
}
