package layering

import (
	"fmt"
	"strings"

	"factorlab/adapters/report"
	"factorlab/domain/core"
	"factorlab/ports"
)

// Record renders the cached backtest metrics as one flat report record.
// Metrics are derived on demand from the cached long-short series, but a
// prior calculate call is required.
func (b *Backtester) Record() (ports.Record, error) {
	if b.metrics == nil {
		if _, err := b.CalculateBacktestMetrics(nil, DefaultPeriodsPerYear); err != nil {
			return nil, err
		}
	}
	m := b.metrics
	return ports.Record{
		{Key: "n_layers", Value: b.nLayers},
		{Key: "horizon", Value: b.horizon},
		{Key: "method", Value: string(b.method)},
		{Key: "return_kind", Value: string(b.kind)},
		{Key: "cumulative_return", Value: m.CumulativeReturn},
		{Key: "annualized_return", Value: m.AnnualizedReturn},
		{Key: "annualized_volatility", Value: m.AnnualizedVolatility},
		{Key: "sharpe", Value: m.Sharpe},
		{Key: "max_drawdown", Value: m.MaxDrawdown},
		{Key: "win_rate", Value: m.WinRate},
		{Key: "profit_loss_ratio", Value: m.ProfitLossRatio},
		{Key: "calmar_ratio", Value: m.CalmarRatio},
		{Key: "periods", Value: m.Periods},
		{Key: "rating", Value: string(m.Rating)},
	}, nil
}

// PrintReport writes the backtest report and per-layer statistics to stdout.
func (b *Backtester) PrintReport() error {
	if b.layers == nil {
		return core.NewNotComputedError("backtest report", "CalculateLayerReturns")
	}
	if b.metrics == nil {
		if _, err := b.CalculateBacktestMetrics(nil, DefaultPeriodsPerYear); err != nil {
			return err
		}
	}
	m := b.metrics

	line := strings.Repeat("=", 72)
	fmt.Println(line)
	fmt.Println("Quantile backtest report")
	fmt.Println(line)
	fmt.Printf("n_layers=%d  horizon=%d  method=%s  return_kind=%s\n", b.nLayers, b.horizon, b.method, b.kind)
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("%-24s %11.2f%%\n", "cumulative return", m.CumulativeReturn*100)
	fmt.Printf("%-24s %11.2f%%\n", "annualized return", m.AnnualizedReturn*100)
	fmt.Printf("%-24s %11.2f%%\n", "annualized volatility", m.AnnualizedVolatility*100)
	fmt.Printf("%-24s %12.4f\n", "sharpe", m.Sharpe)
	fmt.Printf("%-24s %11.2f%%\n", "max drawdown", m.MaxDrawdown*100)
	fmt.Printf("%-24s %11.2f%%\n", "win rate", m.WinRate*100)
	fmt.Printf("%-24s %12.4f\n", "profit/loss ratio", m.ProfitLossRatio)
	fmt.Printf("%-24s %12.4f\n", "calmar ratio", m.CalmarRatio)
	fmt.Printf("%-24s %12d\n", "periods", m.Periods)
	fmt.Printf("%-24s %12s\n", "rating", m.Rating)

	stats, err := b.LayerStatistics()
	if err != nil {
		return err
	}
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("%-8s %10s %10s %8s %8s %10s %10s\n",
		"layer", "mean", "std", "sharpe", "win", "total", "max dd")
	for _, s := range stats {
		fmt.Printf("%-8d %9.4f%% %9.4f%% %8.3f %7.1f%% %9.2f%% %9.2f%%\n",
			s.Layer, s.MeanReturn*100, s.StdReturn*100, s.Sharpe,
			s.WinRate*100, s.TotalReturn*100, s.MaxDrawdown*100)
	}
	fmt.Println(line)
	return nil
}

// SaveReport exports the backtest metrics as a one-row CSV file.
func (b *Backtester) SaveReport(path string) error {
	if b.layers == nil {
		return core.NewNotComputedError("backtest report", "CalculateLayerReturns")
	}
	rec, err := b.Record()
	if err != nil {
		return err
	}
	return report.SaveRecordsCSV(path, []ports.Record{rec})
}

// SaveReturns exports the cached long-short series, falling back to the
// layer series when no long-short spread has been calculated.
func (b *Backtester) SaveReturns(path string) error {
	if b.longShort != nil {
		records := make([]ports.Record, len(b.longShort.Values))
		for i := range b.longShort.Values {
			records[i] = ports.Record{
				{Key: "date", Value: b.longShort.Dates[i]},
				{Key: "long_short_return", Value: b.longShort.Values[i]},
			}
		}
		if len(records) == 0 {
			return fmt.Errorf("long-short series is empty, nothing to export")
		}
		return report.SaveRecordsCSV(path, records)
	}
	if b.layers == nil {
		return core.NewNotComputedError("return export", "CalculateLayerReturns")
	}
	records := make([]ports.Record, len(b.layers.Returns))
	for t, row := range b.layers.Returns {
		rec := make(ports.Record, 0, b.layers.NLayers+1)
		rec = append(rec, ports.Field{Key: "date", Value: b.layers.Dates[t]})
		for l, v := range row {
			rec = append(rec, ports.Field{Key: fmt.Sprintf("layer_%d", l), Value: v})
		}
		records[t] = rec
	}
	if len(records) == 0 {
		return fmt.Errorf("layer series is empty, nothing to export")
	}
	return report.SaveRecordsCSV(path, records)
}
