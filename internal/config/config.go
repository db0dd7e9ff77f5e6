package config

import (
	"os"
	"runtime"
	"strconv"

	"factorlab/domain/core"
)

// Config represents the complete application configuration
type Config struct {
	Reports  ReportConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
}

// ReportConfig holds report export settings
type ReportConfig struct {
	Dir string // directory report files are written to
}

// DatabaseConfig holds the optional report-repository connection settings
type DatabaseConfig struct {
	URL string // empty disables the postgres report sink
}

// AnalysisConfig holds analysis defaults
type AnalysisConfig struct {
	PeriodsPerYear int // annualization factor, 252 trading days by default
	Workers        int // per-date worker pool size
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Reports: ReportConfig{
			Dir: envOrDefault("FACTORLAB_REPORT_DIR", "reports"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Analysis: AnalysisConfig{
			PeriodsPerYear: 252,
			Workers:        runtime.GOMAXPROCS(0),
		},
	}

	if v := os.Getenv("FACTORLAB_PERIODS_PER_YEAR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, core.NewValidationError("FACTORLAB_PERIODS_PER_YEAR", "must be a positive integer")
		}
		cfg.Analysis.PeriodsPerYear = n
	}

	if v := os.Getenv("FACTORLAB_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, core.NewValidationError("FACTORLAB_WORKERS", "must be a positive integer")
		}
		cfg.Analysis.Workers = n
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
