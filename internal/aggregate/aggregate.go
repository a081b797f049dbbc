// Package aggregate combines classified commits across repositories into
// category distributions, touch-rate breakdowns, and cross-repo
// dispersion statistics.
package aggregate

import (
	"math"
	"sort"

	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

// Variant selects how suspect-flagged commits are handled before
// aggregating. All variants run over the identical included-commit set
// modulo suspect handling, so their percentages compare directly.
type Variant string

const (
	// Baseline keeps every commit under its winning category.
	Baseline Variant = "baseline"
	// DropSuspects excludes suspect-flagged commits entirely.
	DropSuspects Variant = "no_suspects"
	// Reassigned moves suspect commits to their message-hinted category.
	Reassigned Variant = "reassigned"
)

// Variants lists the three sensitivity variants in reporting order.
func Variants() []Variant {
	return []Variant{Baseline, DropSuspects, Reassigned}
}

// Apply returns the commit set under the given variant. The input is
// never mutated.
func Apply(commits []record.Classified, v Variant) []record.Classified {
	switch v {
	case DropSuspects:
		out := make([]record.Classified, 0, len(commits))
		for _, c := range commits {
			if !c.IsSuspect {
				out = append(out, c)
			}
		}
		return out
	case Reassigned:
		out := make([]record.Classified, len(commits))
		copy(out, commits)
		for i, c := range out {
			if c.IsSuspect {
				out[i].Category = c.SuspectHint
			}
		}
		return out
	default:
		return commits
	}
}

// Summary is a category distribution over a set of commits. Percent is
// expressed 0-100.
type Summary struct {
	Total   int
	Counts  [taxonomy.Count]int
	Percent [taxonomy.Count]float64
}

// Summarize counts commits per winning category.
func Summarize(commits []record.Classified) Summary {
	s := Summary{Total: len(commits)}
	for _, c := range commits {
		s.Counts[c.Category]++
	}
	if s.Total == 0 {
		return s
	}
	for i := range s.Percent {
		s.Percent[i] = float64(s.Counts[i]) / float64(s.Total) * 100
	}
	return s
}

// TouchBreakdown splits a commit set into four mutually exclusive,
// exhaustive buckets by artifact touch: R sources only, R Markdown
// artifacts only, both, neither. Fractions sum to 1 whenever Commits > 0.
type TouchBreakdown struct {
	Commits int
	ROnly   float64
	RmdOnly float64
	Both    float64
	Neither float64
}

func touchBreakdown(commits []record.Classified) TouchBreakdown {
	b := TouchBreakdown{Commits: len(commits)}
	if b.Commits == 0 {
		return b
	}
	var rOnly, rmdOnly, both, neither int
	for _, c := range commits {
		switch {
		case c.TouchesR && c.TouchesRmd:
			both++
		case c.TouchesR:
			rOnly++
		case c.TouchesRmd:
			rmdOnly++
		default:
			neither++
		}
	}
	n := float64(b.Commits)
	b.ROnly = float64(rOnly) / n
	b.RmdOnly = float64(rmdOnly) / n
	b.Both = float64(both) / n
	b.Neither = float64(neither) / n
	return b
}

// TouchRates computes the touch breakdown per category and overall.
func TouchRates(commits []record.Classified) (perCategory [taxonomy.Count]TouchBreakdown, overall TouchBreakdown) {
	var byCat [taxonomy.Count][]record.Classified
	for _, c := range commits {
		byCat[c.Category] = append(byCat[c.Category], c)
	}
	for _, cat := range taxonomy.All() {
		perCategory[cat] = touchBreakdown(byCat[cat])
	}
	return perCategory, touchBreakdown(commits)
}

// RepoDist is one repository's category distribution inside a cross-repo
// aggregate.
type RepoDist struct {
	Repo    string
	Summary Summary
}

// CrossRepo builds the cross-repository aggregate for one variant: the
// pooled distribution over every included commit plus per-repo
// distributions in stable repo order.
func CrossRepo(byRepo map[string][]record.Classified, v Variant) (Summary, []RepoDist) {
	repos := make([]string, 0, len(byRepo))
	for repo := range byRepo {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	var pooled []record.Classified
	dists := make([]RepoDist, 0, len(repos))
	for _, repo := range repos {
		included := Apply(byRepo[repo], v)
		pooled = append(pooled, included...)
		dists = append(dists, RepoDist{Repo: repo, Summary: Summarize(included)})
	}
	return Summarize(pooled), dists
}

// Stats describes how one category's per-repo percentage varies across
// repositories.
type Stats struct {
	Repos  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Std    float64
}

// CategoryStats computes per-category dispersion over the per-repo
// percentage distributions. Std is the sample standard deviation; it is
// 0 with fewer than two repositories.
func CategoryStats(dists []RepoDist) [taxonomy.Count]Stats {
	var out [taxonomy.Count]Stats
	for _, cat := range taxonomy.All() {
		values := make([]float64, 0, len(dists))
		for _, d := range dists {
			values = append(values, d.Summary.Percent[cat])
		}
		out[cat] = describe(values)
	}
	return out
}

func describe(values []float64) Stats {
	s := Stats{Repos: len(values)}
	if s.Repos == 0 {
		return s
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	s.Mean = sum / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		s.Median = sorted[mid]
	} else {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	}

	if len(sorted) > 1 {
		ss := 0.0
		for _, v := range sorted {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}
	return s
}
