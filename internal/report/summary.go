// Package report builds the per-repository helper tables written next to
// each classified CSV, and renders console tables for review. CSV and
// plain text are the only sinks; charts and PDF appendices are out of
// scope.
package report

import (
	"sort"

	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/stringsutil"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

// CategoryRow is one line of the category-percentage table.
type CategoryRow struct {
	Category    taxonomy.Category
	Count       int
	Percent     float64
	MedianScore float64
}

// CategoryPercentages tabulates the winning-category distribution with
// per-category median scores, largest categories first.
func CategoryPercentages(rows []record.Classified) []CategoryRow {
	var scores [taxonomy.Count][]int
	for _, r := range rows {
		scores[r.Category] = append(scores[r.Category], r.Score)
	}

	out := make([]CategoryRow, 0, taxonomy.Count)
	for _, cat := range taxonomy.All() {
		n := len(scores[cat])
		if n == 0 {
			continue
		}
		out = append(out, CategoryRow{
			Category:    cat,
			Count:       n,
			Percent:     float64(n) / float64(len(rows)) * 100,
			MedianScore: medianInt(scores[cat]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func medianInt(values []int) float64 {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// TouchRow is one line of a touch-rate-by-category table. Percent is the
// share of the category's commits touching the artifact type, 0-100.
type TouchRow struct {
	Category taxonomy.Category
	Percent  float64
}

// TouchByCategory computes per-category touch rates for one flag
// selector, highest rate first. Categories with no commits are omitted.
func TouchByCategory(rows []record.Classified, touched func(record.Classified) bool) []TouchRow {
	var total, hit [taxonomy.Count]int
	for _, r := range rows {
		total[r.Category]++
		if touched(r) {
			hit[r.Category]++
		}
	}
	out := make([]TouchRow, 0, taxonomy.Count)
	for _, cat := range taxonomy.All() {
		if total[cat] == 0 {
			continue
		}
		out = append(out, TouchRow{
			Category: cat,
			Percent:  float64(hit[cat]) / float64(total[cat]) * 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}

// PathCount is one line of the top-paths table.
type PathCount struct {
	Path  string
	Count int
}

// TopPaths counts how often each path appears across the repo's commits
// and returns the most-touched limit paths.
func TopPaths(rows []record.Classified, limit int) []PathCount {
	counts := make(map[string]int)
	for _, r := range rows {
		for _, p := range r.Filenames {
			counts[p]++
		}
	}
	out := make([]PathCount, 0, len(counts))
	for p, n := range counts {
		out = append(out, PathCount{Path: p, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Example is one high-scoring commit kept as a per-category specimen.
type Example struct {
	Repo        string
	Category    taxonomy.Category
	Hash        string
	Date        string
	Author      string
	Message     string
	Score       int
	DiffSnippet string
}

// Examples picks the top perCategory commits by score for each category
// present, with message and diff excerpts short enough for a table.
func Examples(repoTag string, rows []record.Classified, perCategory int) []Example {
	var byCat [taxonomy.Count][]record.Classified
	for _, r := range rows {
		byCat[r.Category] = append(byCat[r.Category], r)
	}

	var out []Example
	for _, cat := range taxonomy.All() {
		picked := byCat[cat]
		sort.SliceStable(picked, func(i, j int) bool { return picked[i].Score > picked[j].Score })
		if perCategory > 0 && len(picked) > perCategory {
			picked = picked[:perCategory]
		}
		for _, r := range picked {
			out = append(out, Example{
				Repo:        repoTag,
				Category:    cat,
				Hash:        stringsutil.ShortHash(r.Hash, 10),
				Date:        r.AuthorDate,
				Author:      r.AuthorName,
				Message:     stringsutil.Snip(r.Message, 120),
				Score:       r.Score,
				DiffSnippet: stringsutil.Snip(r.Diff, 220),
			})
		}
	}
	return out
}
