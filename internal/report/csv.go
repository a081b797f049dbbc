package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
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

func pct(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// WriteCategoryPercentages writes the per-repo category distribution
// helper table.
func WriteCategoryPercentages(w io.Writer, rows []CategoryRow) error {
	out := [][]string{{"category", "count", "percent", "median_score"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Category.String(),
			strconv.Itoa(r.Count),
			pct(r.Percent),
			pct(r.MedianScore),
		})
	}
	return writeAll(w, "category percentages", out)
}

// WriteTouchByCategory writes a touch-rate table; column names the
// artifact type, e.g. "touches_r_%" or "touches_rmd_%".
func WriteTouchByCategory(w io.Writer, column string, rows []TouchRow) error {
	out := [][]string{{"category", column}}
	for _, r := range rows {
		out = append(out, []string{r.Category.String(), pct(r.Percent)})
	}
	return writeAll(w, "touch rates", out)
}

// WriteTopPaths writes the most-touched-paths helper table. An empty
// path set still produces the header for traceability.
func WriteTopPaths(w io.Writer, rows []PathCount) error {
	out := [][]string{{"path", "count"}}
	for _, r := range rows {
		out = append(out, []string{r.Path, strconv.Itoa(r.Count)})
	}
	return writeAll(w, "top paths", out)
}

// WriteExamples writes the per-category example commits.
func WriteExamples(w io.Writer, rows []Example) error {
	out := [][]string{{"repo", "category", "commit_hash", "date", "author", "message", "score", "diff_snippet"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Repo, r.Category.String(), r.Hash, r.Date, r.Author,
			r.Message, strconv.Itoa(r.Score), r.DiffSnippet,
		})
	}
	return writeAll(w, "examples", out)
}
