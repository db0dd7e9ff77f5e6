package ic

import (
	"fmt"
	"strings"

	"factorlab/adapters/report"
	"factorlab/domain/core"
	"factorlab/ports"
)

// Record renders the cached summary as one flat report record. The summary
// is derived on demand, but CalculateIC must have run first.
func (a *Analyzer) Record() (ports.Record, error) {
	if !a.calculated {
		return nil, core.NewNotComputedError("ic report", "CalculateIC")
	}
	if a.summary == nil {
		if _, err := a.CalculateICStats(); err != nil {
			return nil, err
		}
	}
	s := a.summary
	return ports.Record{
		{Key: "horizon", Value: a.horizon},
		{Key: "return_kind", Value: string(a.kind)},
		{Key: "method", Value: string(a.method)},
		{Key: "ic_mean", Value: s.Mean},
		{Key: "ic_std", Value: s.Std},
		{Key: "ir", Value: s.IR},
		{Key: "t_stat", Value: s.TStat},
		{Key: "p_value", Value: s.PValue},
		{Key: "positive_fraction", Value: s.PositiveFraction},
		{Key: "abs_ic_mean", Value: s.AbsMean},
		{Key: "ic_skew", Value: s.Skew},
		{Key: "ic_kurtosis", Value: s.Kurtosis},
		{Key: "ic_count", Value: s.Count},
		{Key: "rating", Value: string(s.Rating)},
	}, nil
}

// PrintReport writes a human-readable summary to stdout.
func (a *Analyzer) PrintReport() error {
	if !a.calculated {
		return core.NewNotComputedError("ic report", "CalculateIC")
	}
	if a.summary == nil {
		if _, err := a.CalculateICStats(); err != nil {
			return err
		}
	}
	s := a.summary

	line := strings.Repeat("=", 72)
	fmt.Println(line)
	fmt.Println("Predictive power report (IC/IR)")
	fmt.Println(line)
	fmt.Printf("horizon=%d  return_kind=%s  method=%s\n", a.horizon, a.kind, a.method)
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("%-22s %12.6f\n", "IC mean", s.Mean)
	fmt.Printf("%-22s %12.6f\n", "IC std", s.Std)
	fmt.Printf("%-22s %12.6f\n", "IR", s.IR)
	fmt.Printf("%-22s %12.6f\n", "t-stat", s.TStat)
	fmt.Printf("%-22s %12.6f\n", "p-value", s.PValue)
	fmt.Printf("%-22s %11.2f%%\n", "positive fraction", s.PositiveFraction*100)
	fmt.Printf("%-22s %12.6f\n", "abs IC mean", s.AbsMean)
	fmt.Printf("%-22s %12d\n", "observation dates", s.Count)
	fmt.Printf("%-22s %12s\n", "rating", s.Rating)
	fmt.Println(line)
	return nil
}

// SaveReport exports the summary as a one-row CSV file.
func (a *Analyzer) SaveReport(path string) error {
	rec, err := a.Record()
	if err != nil {
		return err
	}
	return report.SaveRecordsCSV(path, []ports.Record{rec})
}

// SaveICSeries exports the cached series, one row per observation date.
func (a *Analyzer) SaveICSeries(path string) error {
	if !a.calculated {
		return core.NewNotComputedError("ic series export", "CalculateIC")
	}
	records := make([]ports.Record, len(a.series))
	for i, p := range a.series {
		records[i] = ports.Record{
			{Key: "date", Value: p.Date},
			{Key: "ic", Value: p.Value},
			{Key: "count", Value: p.Count},
		}
	}
	if len(records) == 0 {
		return fmt.Errorf("ic series is empty, nothing to export")
	}
	return report.SaveRecordsCSV(path, records)
}
