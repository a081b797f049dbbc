// Package classify assigns a defect category to each commit from weighted
// evidence. Scoring and classification are pure: the same commit always
// produces the same classified record, with no I/O and no shared mutable
// state, so batches parallelize freely.
package classify

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rmdlab/rmdqc/internal/evidence"
	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/rules"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

// SourceMask records which evidence sources contributed to a category's
// score.
type SourceMask uint8

const (
	FromDiff SourceMask = 1 << iota
	FromPath
	FromMessage
)

// Strong reports whether the mask includes diff or path evidence.
func (m SourceMask) Strong() bool {
	return m&(FromDiff|FromPath) != 0
}

// ScoreVector is the weighted score of every category for one commit,
// along with the sources that contributed to each.
type ScoreVector struct {
	Scores  [taxonomy.Count]int
	Sources [taxonomy.Count]SourceMask
}

// Best selects the winning category: the maximum score, preferring
// diff/path-backed categories over message-only ones at equal score, then
// earlier taxonomy order. An all-zero vector yields Miscellaneous/Unknown
// with score 0, the "unknown" case QC tracks.
func (v ScoreVector) Best() (taxonomy.Category, int) {
	best := taxonomy.MiscellaneousUnknown
	bestScore := -1
	bestStrong := false
	for _, cat := range taxonomy.All() {
		score := v.Scores[cat]
		strong := v.Sources[cat].Strong()
		switch {
		case score > bestScore:
		case score == bestScore && strong && !bestStrong:
		default:
			continue
		}
		best, bestScore, bestStrong = cat, score, strong
	}
	if bestScore <= 0 {
		return taxonomy.MiscellaneousUnknown, 0
	}
	return best, bestScore
}

// Engine scores and classifies commits against one rule table.
type Engine struct {
	extractor *evidence.Extractor
	weights   rules.Weights
}

// NewEngine builds an engine over the given table, or the embedded
// default table when table is nil.
func NewEngine(table *rules.Table) *Engine {
	if table == nil {
		table = rules.Default()
	}
	return &Engine{
		extractor: evidence.NewExtractor(table),
		weights:   table.Weights,
	}
}

// Score applies the fixed weights to an evidence set: diff and path
// tokens carry the trusted weight, message tokens the low-trust weight.
// Message evidence for Implementation/Logic contributes nothing, since a
// generic "fix logic" message cannot establish that category on its own.
func (e *Engine) Score(set evidence.Set) ScoreVector {
	var v ScoreVector
	for _, t := range set.Diff {
		v.Scores[t.Category] += e.weights.Diff
		v.Sources[t.Category] |= FromDiff
	}
	for _, t := range set.Path {
		v.Scores[t.Category] += e.weights.Path
		v.Sources[t.Category] |= FromPath
	}
	for _, t := range set.Message {
		if t.Category == taxonomy.ImplementationLogic {
			continue
		}
		v.Scores[t.Category] += e.weights.Message
		v.Sources[t.Category] |= FromMessage
	}
	return v
}

// messageBest scores message tokens alone, ignoring the Implementation
// suppression, and returns the best-supported category. ok is false when
// the message carries no category evidence at all.
func (e *Engine) messageBest(set evidence.Set) (cat taxonomy.Category, ok bool) {
	var counts [taxonomy.Count]int
	for _, t := range set.Message {
		counts[t.Category]++
	}
	best := taxonomy.MiscellaneousUnknown
	bestCount := 0
	for _, c := range taxonomy.All() {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best, bestCount > 0
}

// One classifies a single commit. The returned record embeds the commit
// with touch flags inferred from its file list when the fetch stage did
// not set them.
func (e *Engine) One(c record.Commit) record.Classified {
	e.extractor.InferTouches(&c)

	set := e.extractor.Extract(c)
	v := e.Score(set)
	cat, score := v.Best()

	cl := record.Classified{
		Commit:   c,
		Category: cat,
		Score:    score,
		Scores:   v.Scores,
	}

	// A commit is suspect when the message alone points somewhere other
	// than the diff/path-backed winner. The hinted category is what a
	// reassignment pass would move the commit to.
	if hint, ok := e.messageBest(set); ok && hint != cat {
		cl.IsSuspect = true
		cl.SuspectHint = hint
	}
	return cl
}

// All classifies a batch across a worker pool, preserving input order.
// Workers write to disjoint indices, so no locking is involved.
func (e *Engine) All(ctx context.Context, commits []record.Commit, workers int) ([]record.Classified, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]record.Classified, len(commits))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range commits {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.One(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
