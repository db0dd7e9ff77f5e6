package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"factorlab/adapters/paneldata"
	"factorlab/adapters/postgres"
	"factorlab/adapters/report"
	"factorlab/analysis/redundancy"
	"factorlab/app"
	"factorlab/domain/panel"
	dstats "factorlab/domain/stats"
	"factorlab/internal"
	"factorlab/internal/config"
	"factorlab/internal/testkit"
	"factorlab/ports"
)

func main() {
	// Missing .env is fine; configuration falls back to defaults.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "factorlab",
		Short: "Factor evaluation toolkit: IC analysis, redundancy screening and quantile backtests",
	}

	rootCmd.AddCommand(
		newScreenCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newScreenCmd() *cobra.Command {
	var (
		pricePath  string
		factorArgs []string
		horizon    int
		layers     int
		method     string
		returnKind string
		threshold  float64
		outDir     string
		xlsxPath   string
		useDB      bool
	)

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Screen candidate factors against a price panel",
		Long: `Screen candidate factors against a price panel.

Panels are wide-format CSV: a "date" header column followed by one column
per instrument, one row per ascending trading date, empty cells missing.

Example: factorlab screen --prices prices.csv --factor mom=momentum.csv --factor rev=reversal.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := internal.NewDefaultLogger()

			price, err := paneldata.LoadPanelCSV(pricePath)
			if err != nil {
				return err
			}
			factors, err := loadFactors(factorArgs)
			if err != nil {
				return err
			}

			screenCfg := app.DefaultScreeningConfig()
			screenCfg.Horizon = horizon
			screenCfg.Layers = layers
			screenCfg.Method = dstats.CorrelationMethod(method)
			screenCfg.ReturnKind = panel.ReturnKind(returnKind)
			screenCfg.PairThreshold = threshold
			screenCfg.PeriodsPerYear = cfg.Analysis.PeriodsPerYear
			screenCfg.Workers = cfg.Analysis.Workers

			if outDir == "" {
				outDir = cfg.Reports.Dir
			}
			sink, cleanup, err := buildSink(cmd.Context(), cfg, outDir, xlsxPath, useDB)
			if err != nil {
				return err
			}
			defer cleanup()

			service := app.NewScreeningService(sink, logger)
			result, err := service.Screen(cmd.Context(), price, factors, screenCfg)
			if err != nil {
				return err
			}

			printSummary(result)
			fmt.Printf("\nreports written to %s (run %s)\n", outDir, result.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&pricePath, "prices", "", "price panel CSV (required)")
	cmd.Flags().StringArrayVar(&factorArgs, "factor", nil, "factor panel as name=path.csv (repeatable, required)")
	cmd.Flags().IntVar(&horizon, "horizon", 1, "forward return horizon in trading dates")
	cmd.Flags().IntVar(&layers, "layers", 5, "number of quantile buckets")
	cmd.Flags().StringVar(&method, "method", "spearman", "correlation method: pearson or spearman")
	cmd.Flags().StringVar(&returnKind, "return-kind", "simple", "forward return kind: simple or log")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.7, "high-correlation threshold")
	cmd.Flags().StringVar(&outDir, "out", "", "report output directory (default from FACTORLAB_REPORT_DIR)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also export reports into one workbook at this path")
	cmd.Flags().BoolVar(&useDB, "db", false, "also persist reports to DATABASE_URL")
	_ = cmd.MarkFlagRequired("prices")
	_ = cmd.MarkFlagRequired("factor")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		nDates       int
		nInstruments int
		outDir       string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a full screening on deterministic synthetic panels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := internal.NewDefaultLogger()

			universe := testkit.NewUniverse(nDates, nInstruments)
			prices := testkit.RandomWalkPrices(universe, 42)
			factors := []redundancy.NamedPanel{
				{Name: "momentum_20", Panel: testkit.MomentumFactor(prices, 20)},
				{Name: "momentum_20_scaled", Panel: testkit.ScaledCopy(testkit.MomentumFactor(prices, 20), 3)},
				{Name: "noise", Panel: testkit.NoiseFactor(prices, 7)},
				{Name: "oracle", Panel: testkit.PredictiveFactor(prices, 0.01, 11)},
			}

			if outDir == "" {
				outDir = cfg.Reports.Dir
			}
			sink, err := report.NewCSVSink(outDir)
			if err != nil {
				return err
			}

			service := app.NewScreeningService(sink, logger)
			screenCfg := app.DefaultScreeningConfig()
			screenCfg.PeriodsPerYear = cfg.Analysis.PeriodsPerYear
			screenCfg.Workers = cfg.Analysis.Workers

			result, err := service.Screen(cmd.Context(), prices, factors, screenCfg)
			if err != nil {
				return err
			}

			printSummary(result)
			fmt.Printf("\nreports written to %s (run %s)\n", outDir, result.RunID)
			return nil
		},
	}

	cmd.Flags().IntVar(&nDates, "dates", 250, "number of synthetic trading dates")
	cmd.Flags().IntVar(&nInstruments, "instruments", 60, "number of synthetic instruments")
	cmd.Flags().StringVar(&outDir, "out", "", "report output directory")

	return cmd
}

func loadFactors(args []string) ([]redundancy.NamedPanel, error) {
	factors := make([]redundancy.NamedPanel, 0, len(args))
	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("bad --factor %q, expected name=path.csv", arg)
		}
		p, err := paneldata.LoadPanelCSV(path)
		if err != nil {
			return nil, fmt.Errorf("factor %s: %w", name, err)
		}
		factors = append(factors, redundancy.NamedPanel{Name: name, Panel: p})
	}
	return factors, nil
}

// buildSink assembles the export fan-out: always CSV, optionally a workbook
// and a postgres repository.
func buildSink(ctx context.Context, cfg *config.Config, outDir, xlsxPath string, useDB bool) (ports.ReportSink, func(), error) {
	csvSink, err := report.NewCSVSink(outDir)
	if err != nil {
		return nil, nil, err
	}
	sinks := []ports.ReportSink{csvSink}
	cleanup := func() {}

	if xlsxPath != "" {
		excelSink := report.NewExcelSink(xlsxPath)
		sinks = append(sinks, excelSink)
		cleanup = func() {
			if err := excelSink.Close(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}

	if useDB {
		if cfg.Database.URL == "" {
			return nil, nil, fmt.Errorf("--db requires DATABASE_URL")
		}
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to report database: %w", err)
		}
		repo := postgres.NewReportRepository(db, uuid.New())
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, repo)
		prev := cleanup
		cleanup = func() {
			prev()
			_ = db.Close()
		}
	}

	if len(sinks) == 1 {
		return csvSink, cleanup, nil
	}
	return multiSink(sinks), cleanup, nil
}

type multiSink []ports.ReportSink

func (m multiSink) WriteReport(ctx context.Context, name string, records []ports.Record) error {
	for _, s := range m {
		if err := s.WriteReport(ctx, name, records); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(result *app.ScreeningResult) {
	line := strings.Repeat("=", 96)
	fmt.Println(line)
	fmt.Printf("%-24s %10s %10s %10s %10s %10s  %s\n",
		"factor", "ic mean", "ir", "t-stat", "sharpe", "max dd", "rating")
	fmt.Println(strings.Repeat("-", 96))
	for _, f := range result.Factors {
		fmt.Printf("%-24s %10.4f %10.4f %10.4f %10.4f %9.2f%%  %s\n",
			f.Name, f.Summary.Mean, f.Summary.IR, f.Summary.TStat,
			f.Metrics.Sharpe, f.Metrics.MaxDrawdown*100, f.Summary.Rating)
	}
	if len(result.Pairs) > 0 {
		fmt.Println(strings.Repeat("-", 96))
		for _, p := range result.Pairs {
			fmt.Printf("redundant pair: %s / %s (%.4f, %s)\n", p.A, p.B, p.Correlation, p.Strength)
		}
		for _, s := range result.Suggestions {
			fmt.Printf("suggestion: keep %s, remove %s\n", s.Keep, strings.Join(s.Remove, ", "))
		}
	}
	fmt.Println(line)
}
