package redundancy

import (
	"fmt"
	"strings"

	"factorlab/adapters/report"
	dstats "factorlab/domain/stats"
	"factorlab/ports"
)

// PairRecords renders the high-correlation pairs as flat report records,
// one row per pair.
func (a *Analyzer) PairRecords(threshold float64) ([]ports.Record, error) {
	pairs, err := a.FindHighCorrelationPairs(threshold)
	if err != nil {
		return nil, err
	}
	records := make([]ports.Record, len(pairs))
	for i, p := range pairs {
		records[i] = ports.Record{
			{Key: "factor_a", Value: p.A},
			{Key: "factor_b", Value: p.B},
			{Key: "correlation", Value: p.Correlation},
			{Key: "strength", Value: p.Strength},
		}
	}
	return records, nil
}

// SaveReport exports the pair report as CSV, one row per pair.
func (a *Analyzer) SaveReport(path string, threshold float64) error {
	records, err := a.PairRecords(threshold)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no factor pairs at |correlation| >= %g, nothing to export", threshold)
	}
	return report.SaveRecordsCSV(path, records)
}

// SaveCorrelationMatrix exports the cached matrix as CSV, one row per
// factor with the factor name in the leading column.
func (a *Analyzer) SaveCorrelationMatrix(path string) error {
	m, err := a.Matrix()
	if err != nil {
		return err
	}
	records := make([]ports.Record, m.Size())
	for i, name := range m.Names() {
		rec := make(ports.Record, 0, m.Size()+1)
		rec = append(rec, ports.Field{Key: "factor", Value: name})
		for j, other := range m.Names() {
			rec = append(rec, ports.Field{Key: other, Value: m.At(i, j)})
		}
		records[i] = rec
	}
	return report.SaveRecordsCSV(path, records)
}

// PrintReport writes the full redundancy report to stdout: matrix context,
// high-correlation pairs, removal suggestions and the default clustering.
func (a *Analyzer) PrintReport(threshold float64) error {
	if _, err := a.ensureMatrix(); err != nil {
		return err
	}

	line := strings.Repeat("=", 88)
	fmt.Println(line)
	fmt.Println("Factor redundancy report")
	fmt.Println(line)
	fmt.Printf("factors: %d (%s)\n", len(a.factors), strings.Join(a.Names(), ", "))

	pairs, err := a.FindHighCorrelationPairs(threshold)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		fmt.Printf("\nno factor pairs at |correlation| >= %g\n", threshold)
	} else {
		fmt.Printf("\n%d high-correlation pairs at |correlation| >= %g:\n\n", len(pairs), threshold)
		fmt.Printf("%-24s %-24s %12s  %s\n", "factor A", "factor B", "correlation", "strength")
		fmt.Println(strings.Repeat("-", 88))
		for _, p := range pairs {
			fmt.Printf("%-24s %-24s %12.4f  %s\n", p.A, p.B, p.Correlation, p.Strength)
		}
	}

	suggestions, err := a.GenerateRemovalSuggestions(threshold, KeepByName)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Println("\nno deduplication needed")
	} else {
		fmt.Println("\nremoval suggestions:")
		for _, s := range suggestions {
			fmt.Printf("  keep %-24s remove %s\n", s.Keep, strings.Join(s.Remove, ", "))
		}
	}

	grouping, err := a.HierarchicalClustering(dstats.LinkageAverage, 0)
	if err != nil {
		return err
	}
	fmt.Println("\nhierarchical grouping (average linkage, cut at distance 0.3):")
	for i, cluster := range grouping.Clusters {
		fmt.Printf("  group %d: %s\n", i+1, strings.Join(cluster, ", "))
	}
	fmt.Println(line)
	return nil
}
