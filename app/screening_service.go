// Package app wires the three analyzers into a single screening workflow:
// one price panel, a named set of candidate factors, one report sink.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"factorlab/analysis/ic"
	"factorlab/analysis/layering"
	"factorlab/analysis/redundancy"
	"factorlab/domain/panel"
	dstats "factorlab/domain/stats"
	"factorlab/internal"
	"factorlab/ports"
)

// ScreeningConfig holds the parameters one screening run applies to every
// candidate factor.
type ScreeningConfig struct {
	Horizon        int
	ReturnKind     panel.ReturnKind
	Method         dstats.CorrelationMethod
	Layers         int
	PairThreshold  float64
	PeriodsPerYear int
	Workers        int
}

// DefaultScreeningConfig returns the standard daily-screening parameters.
func DefaultScreeningConfig() ScreeningConfig {
	return ScreeningConfig{
		Horizon:        1,
		ReturnKind:     panel.ReturnSimple,
		Method:         dstats.Spearman,
		Layers:         5,
		PairThreshold:  0.7,
		PeriodsPerYear: layering.DefaultPeriodsPerYear,
	}
}

// FactorResult collects the per-factor outcomes of one screening run.
type FactorResult struct {
	Name    string
	Summary ic.Summary
	Metrics layering.Metrics
}

// ScreeningResult is the outcome of one screening run.
type ScreeningResult struct {
	RunID       uuid.UUID
	Factors     []FactorResult
	Pairs       []redundancy.Pair
	Suggestions []redundancy.Suggestion
}

// ScreeningService runs the full evaluation pipeline for a candidate factor
// set and exports the reports through a sink.
type ScreeningService struct {
	sink   ports.ReportSink
	logger *internal.Logger
}

// NewScreeningService creates a screening service. The sink may be nil when
// no export is wanted.
func NewScreeningService(sink ports.ReportSink, logger *internal.Logger) *ScreeningService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &ScreeningService{sink: sink, logger: logger}
}

// Screen evaluates every factor independently (predictive power + quantile
// backtest) and the whole set jointly (redundancy), then writes one report
// per concern: one row per factor, one row per correlated pair, one row per
// backtest.
func (s *ScreeningService) Screen(ctx context.Context, price *panel.Panel, factors []redundancy.NamedPanel, cfg ScreeningConfig) (*ScreeningResult, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("no factors to screen")
	}

	result := &ScreeningResult{RunID: uuid.New()}
	s.logger.Info("screening run %s: %d factors, horizon=%d, layers=%d",
		result.RunID, len(factors), cfg.Horizon, cfg.Layers)

	icRecords := make([]ports.Record, 0, len(factors))
	backtestRecords := make([]ports.Record, 0, len(factors))

	for _, f := range factors {
		fr, icRec, btRec, err := s.screenFactor(price, f, cfg)
		if err != nil {
			return nil, fmt.Errorf("factor %q: %w", f.Name, err)
		}
		result.Factors = append(result.Factors, fr)
		icRecords = append(icRecords, icRec)
		backtestRecords = append(backtestRecords, btRec)
		s.logger.Debug("factor %s: ir=%.4f sharpe=%.4f rating=%s",
			f.Name, fr.Summary.IR, fr.Metrics.Sharpe, fr.Summary.Rating)
	}

	if len(factors) >= 2 {
		analyzer, err := redundancy.NewAnalyzer(factors)
		if err != nil {
			return nil, err
		}
		if _, err := analyzer.CalculateCorrelation(cfg.Method, 0); err != nil {
			return nil, err
		}
		result.Pairs, err = analyzer.FindHighCorrelationPairs(cfg.PairThreshold)
		if err != nil {
			return nil, err
		}
		result.Suggestions, err = analyzer.GenerateRemovalSuggestions(cfg.PairThreshold, redundancy.KeepByName)
		if err != nil {
			return nil, err
		}
	}

	if s.sink != nil {
		if err := s.export(ctx, result, icRecords, backtestRecords); err != nil {
			return nil, err
		}
	}

	s.logger.Info("screening run %s finished", result.RunID)
	return result, nil
}

func (s *ScreeningService) screenFactor(price *panel.Panel, f redundancy.NamedPanel, cfg ScreeningConfig) (FactorResult, ports.Record, ports.Record, error) {
	analyzer, err := ic.NewAnalyzer(price, f.Panel)
	if err != nil {
		return FactorResult{}, nil, nil, err
	}
	if cfg.Workers > 0 {
		analyzer.WithWorkers(cfg.Workers)
	}
	if _, err := analyzer.CalculateIC(cfg.Horizon, cfg.ReturnKind, cfg.Method); err != nil {
		return FactorResult{}, nil, nil, err
	}
	summary, err := analyzer.CalculateICStats()
	if err != nil {
		return FactorResult{}, nil, nil, err
	}
	icRec, err := analyzer.Record()
	if err != nil {
		return FactorResult{}, nil, nil, err
	}
	icRec = append(ports.Record{{Key: "factor", Value: f.Name}}, icRec...)

	backtester, err := layering.NewBacktester(price, f.Panel)
	if err != nil {
		return FactorResult{}, nil, nil, err
	}
	if _, err := backtester.CalculateLayerReturns(cfg.Layers, cfg.Horizon, layering.MethodQuantile, cfg.ReturnKind); err != nil {
		return FactorResult{}, nil, nil, err
	}
	if _, err := backtester.CalculateLongShortReturns(cfg.Layers, cfg.Horizon, -1, 0); err != nil {
		return FactorResult{}, nil, nil, err
	}
	metrics, err := backtester.CalculateBacktestMetrics(nil, cfg.PeriodsPerYear)
	if err != nil {
		return FactorResult{}, nil, nil, err
	}
	btRec, err := backtester.Record()
	if err != nil {
		return FactorResult{}, nil, nil, err
	}
	btRec = append(ports.Record{{Key: "factor", Value: f.Name}}, btRec...)

	return FactorResult{Name: f.Name, Summary: summary, Metrics: metrics}, icRec, btRec, nil
}

func (s *ScreeningService) export(ctx context.Context, result *ScreeningResult, icRecords, backtestRecords []ports.Record) error {
	if err := s.sink.WriteReport(ctx, "ic_summary", icRecords); err != nil {
		return fmt.Errorf("failed to export ic report: %w", err)
	}
	if err := s.sink.WriteReport(ctx, "backtest_summary", backtestRecords); err != nil {
		return fmt.Errorf("failed to export backtest report: %w", err)
	}
	if len(result.Pairs) > 0 {
		pairRecords := make([]ports.Record, len(result.Pairs))
		for i, p := range result.Pairs {
			pairRecords[i] = ports.Record{
				{Key: "factor_a", Value: p.A},
				{Key: "factor_b", Value: p.B},
				{Key: "correlation", Value: p.Correlation},
				{Key: "strength", Value: p.Strength},
			}
		}
		if err := s.sink.WriteReport(ctx, "correlation_pairs", pairRecords); err != nil {
			return fmt.Errorf("failed to export correlation report: %w", err)
		}
	}
	return nil
}
