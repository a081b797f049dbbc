package qc

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var summaryColumns = []string{
	"repo_owner", "repo_name", "n_commits",
	"coverage", "low_confidence_rate", "unknown_rate", "suspect_rate",
	"verdict", "reasons",
}

// SortResults orders a QC summary for review: failures first, then
// warnings, then passes; inside a band the worst suspect rate and lowest
// coverage float to the top.
func SortResults(results []Result) {
	rank := map[Verdict]int{Fail: 0, Warn: 1, Pass: 2}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if rank[a.Verdict] != rank[b.Verdict] {
			return rank[a.Verdict] < rank[b.Verdict]
		}
		if a.Suspects != b.Suspects {
			return a.Suspects > b.Suspects
		}
		return a.Coverage < b.Coverage
	})
}

// WriteSummary writes the QC output schema, one row per repository.
func WriteSummary(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryColumns); err != nil {
		return fmt.Errorf("write qc summary: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.RepoOwner, r.RepoName, strconv.Itoa(r.Commits),
			formatRate(r.Coverage), formatRate(r.LowConfidence),
			formatRate(r.Unknown), formatRate(r.Suspects),
			string(r.Verdict), strings.Join(r.Reasons, " ; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write qc summary: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSummary reads a QC summary back, e.g. for the aggregation stage's
// PASS filter.
func ReadSummary(r io.Reader) ([]Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read qc summary: %w", err)
	}
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[strings.ToLower(strings.TrimSpace(c))] = i
	}
	get := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var results []Result
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read qc summary: %w", err)
		}
		verdict := Verdict(strings.ToUpper(strings.TrimSpace(get(row, "verdict"))))
		switch verdict {
		case Pass, Warn, Fail:
		default:
			return nil, fmt.Errorf("read qc summary: invalid verdict %q", get(row, "verdict"))
		}
		n, _ := strconv.Atoi(get(row, "n_commits"))
		res := Result{
			RepoOwner:     get(row, "repo_owner"),
			RepoName:      get(row, "repo_name"),
			Commits:       n,
			Coverage:      parseRate(get(row, "coverage")),
			LowConfidence: parseRate(get(row, "low_confidence_rate")),
			Unknown:       parseRate(get(row, "unknown_rate")),
			Suspects:      parseRate(get(row, "suspect_rate")),
			Verdict:       verdict,
		}
		if reasons := strings.TrimSpace(get(row, "reasons")); reasons != "" {
			res.Reasons = strings.Split(reasons, " ; ")
		}
		results = append(results, res)
	}
	return results, nil
}

func formatRate(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func parseRate(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
