package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

func writeAll(w io.Writer, label string, rows [][]string) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", label, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write %s: %w", label, err)
	}
	return nil
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatFraction(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// WriteCategoryCounts writes the repo-by-category count pivot, columns in
// taxonomy order.
func WriteCategoryCounts(w io.Writer, dists []RepoDist) error {
	header := []string{"repo"}
	for _, cat := range taxonomy.All() {
		header = append(header, cat.String())
	}
	rows := [][]string{header}
	for _, d := range dists {
		row := []string{d.Repo}
		for _, cat := range taxonomy.All() {
			row = append(row, strconv.Itoa(d.Summary.Counts[cat]))
		}
		rows = append(rows, row)
	}
	return writeAll(w, "category counts", rows)
}

// WriteCategoryPercentages writes the long-format per-repo category
// percentage table used by the dispersion statistics.
func WriteCategoryPercentages(w io.Writer, dists []RepoDist) error {
	rows := [][]string{{"repo", "category", "percent"}}
	for _, d := range dists {
		for _, cat := range taxonomy.All() {
			rows = append(rows, []string{d.Repo, cat.String(), formatPercent(d.Summary.Percent[cat])})
		}
	}
	return writeAll(w, "category percentages", rows)
}

// WriteCategoryTotals writes the pooled distribution for one variant.
func WriteCategoryTotals(w io.Writer, pooled Summary) error {
	rows := [][]string{{"category", "count", "percent"}}
	for _, cat := range taxonomy.All() {
		rows = append(rows, []string{
			cat.String(),
			strconv.Itoa(pooled.Counts[cat]),
			formatPercent(pooled.Percent[cat]),
		})
	}
	rows = append(rows, []string{"Total", strconv.Itoa(pooled.Total), formatPercent(100)})
	return writeAll(w, "category totals", rows)
}

// WriteTouchBreakdown writes the four-bucket touch split per category
// plus the overall row. Fractions are written 0-1.
func WriteTouchBreakdown(w io.Writer, perCategory [taxonomy.Count]TouchBreakdown, overall TouchBreakdown) error {
	rows := [][]string{{"category", "commits", "r_only", "rmd_only", "both", "neither"}}
	appendRow := func(label string, b TouchBreakdown) {
		rows = append(rows, []string{
			label, strconv.Itoa(b.Commits),
			formatFraction(b.ROnly), formatFraction(b.RmdOnly),
			formatFraction(b.Both), formatFraction(b.Neither),
		})
	}
	for _, cat := range taxonomy.All() {
		appendRow(cat.String(), perCategory[cat])
	}
	appendRow("Overall", overall)
	return writeAll(w, "touch breakdown", rows)
}

// WriteCategoryStats writes the cross-repo dispersion of per-repo
// category percentages.
func WriteCategoryStats(w io.Writer, stats [taxonomy.Count]Stats) error {
	rows := [][]string{{"category", "repos", "mean", "median", "min", "max", "std"}}
	for _, cat := range taxonomy.All() {
		s := stats[cat]
		rows = append(rows, []string{
			cat.String(), strconv.Itoa(s.Repos),
			formatPercent(s.Mean), formatPercent(s.Median),
			formatPercent(s.Min), formatPercent(s.Max), formatPercent(s.Std),
		})
	}
	return writeAll(w, "category stats", rows)
}
