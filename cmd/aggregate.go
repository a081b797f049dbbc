package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rmdlab/rmdqc/internal/aggregate"
	"github.com/rmdlab/rmdqc/internal/qc"
	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/report"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

var (
	aggregateQC          string
	aggregateDataDir     string
	aggregateOutDir      string
	aggregateIncludeWarn bool

	aggregateCmd = &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate category distributions across QC-passing repositories",
		Long: `Aggregate pools classified commits from every repository the QC gate
passed and writes cross-repo category totals, per-repo percentage
tables, touch breakdowns, and per-category dispersion statistics.

Every table is produced three times: baseline, with suspect-flagged
commits excluded, and with suspect commits reassigned to their hinted
category. Comparing the variants bounds how much the suspect commits
could move the distribution.`,
		RunE: runAggregate,
	}
)

func init() {
	aggregateCmd.Flags().StringVar(&aggregateQC, "qc", "", "QC summary CSV selecting repositories (required)")
	aggregateCmd.Flags().StringVar(&aggregateDataDir, "data-dir", "analysis", "Directory with classified CSVs")
	aggregateCmd.Flags().StringVar(&aggregateOutDir, "out-dir", "analysis/cross_repo", "Directory for cross-repo tables")
	aggregateCmd.Flags().BoolVar(&aggregateIncludeWarn, "include-warn", true,
		"Include WARN-verdict repositories alongside PASS")
	_ = aggregateCmd.MarkFlagRequired("qc")

	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	f, err := os.Open(aggregateQC)
	if err != nil {
		return fmt.Errorf("open QC summary: %w", err)
	}
	results, err := qc.ReadSummary(f)
	f.Close()
	if err != nil {
		return err
	}

	byRepo, excluded, err := loadIncludedRepos(results)
	if err != nil {
		return err
	}
	if len(byRepo) == 0 {
		return fmt.Errorf("no repositories passed QC; nothing to aggregate")
	}

	if err := os.MkdirAll(aggregateOutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	out := outWriter()
	for _, variant := range aggregate.Variants() {
		pooledSummary, dists := aggregate.CrossRepo(byRepo, variant)

		var pooled []record.Classified
		for _, repo := range sortedKeys(byRepo) {
			pooled = append(pooled, aggregate.Apply(byRepo[repo], variant)...)
		}
		perCategory, overall := aggregate.TouchRates(pooled)
		stats := aggregate.CategoryStats(dists)

		tables := []struct {
			name  string
			write func(f *os.File) error
		}{
			{fmt.Sprintf("category_totals_%s.csv", variant), func(f *os.File) error {
				return aggregate.WriteCategoryTotals(f, pooledSummary)
			}},
			{fmt.Sprintf("category_percentages_%s.csv", variant), func(f *os.File) error {
				return aggregate.WriteCategoryPercentages(f, dists)
			}},
			{fmt.Sprintf("touch_breakdown_%s.csv", variant), func(f *os.File) error {
				return aggregate.WriteTouchBreakdown(f, perCategory, overall)
			}},
			{fmt.Sprintf("category_stats_%s.csv", variant), func(f *os.File) error {
				return aggregate.WriteCategoryStats(f, stats)
			}},
		}
		for _, t := range tables {
			if err := writeCSVFile(filepath.Join(aggregateOutDir, t.name), t.write); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "Variant %s: %d commits across %d repositories\n", variant, pooledSummary.Total, len(dists))
		var table [][]string
		for _, cat := range taxonomy.All() {
			table = append(table, []string{
				cat.String(),
				strconv.Itoa(pooledSummary.Counts[cat]),
				fmt.Sprintf("%.1f%%", pooledSummary.Percent[cat]),
			})
		}
		report.Table(out, []string{"category", "count", "share"}, table)
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Aggregated %d repositories (%d excluded by QC) into %s\n",
		len(byRepo), excluded, aggregateOutDir)
	return nil
}

// loadIncludedRepos reads the classified CSV for every QC-included
// repository, keyed by the repository tag.
func loadIncludedRepos(results []qc.Result) (map[string][]record.Classified, int, error) {
	byRepo := make(map[string][]record.Classified)
	excluded := 0
	for _, r := range results {
		include := r.Verdict == qc.Pass || (aggregateIncludeWarn && r.Verdict == qc.Warn)
		if !include {
			excluded++
			continue
		}
		tag := r.RepoOwner + "_" + r.RepoName
		path := filepath.Join(aggregateDataDir, tag, tag+"_classified.csv")
		rows, err := readClassifiedFile(path)
		if err != nil {
			return nil, 0, err
		}
		byRepo[tag] = rows
	}
	return byRepo, excluded, nil
}

func sortedKeys(m map[string][]record.Classified) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
