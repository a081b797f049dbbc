package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/rmdlab/rmdqc/internal/evidence"
	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/rules"
)

// DefaultKeywords is the curated bug-keyword filter applied to commit
// messages at fetch time.
var DefaultKeywords = []string{
	"fix", "fixes", "fixed", "fixing",
	"defect", "defects",
	"error", "errors",
	"bug", "bug fix", "bugfix", "bugfixing", "bugs",
	"issue", "issues",
	"mistake", "mistakes", "mistaken",
	"incorrect",
	"fault", "faults",
	"flaw", "flaws",
	"failure", "failures",
	"correction", "corrections",
	"hotfix", "regression", "patch",
}

// messageFilterLimit caps how much of a commit message the keyword filter
// inspects; generated messages occasionally run to megabytes.
const messageFilterLimit = 10000

// FetchOptions configures one repository's bug-commit fetch.
type FetchOptions struct {
	// Keywords overrides DefaultKeywords when non-empty.
	Keywords []string
	// Since and Until bound the listed history (ISO 8601, empty = open).
	Since string
	Until string
	// SkipMerges drops commits with more than one parent.
	SkipMerges bool
	// RequireRmdTouch keeps only commits touching an R Markdown artifact.
	RequireRmdTouch bool
	// RequireROrRmdTouch keeps only commits touching R sources or R
	// Markdown artifacts. Takes precedence over RequireRmdTouch.
	RequireROrRmdTouch bool
}

// Progress receives per-repo fetch progress: the number of detail
// fetches completed out of the keyword-matched total.
type Progress func(done, total int)

// BugCommits lists a repository's history, keeps keyword-matched
// commits, and fetches their full detail into commit records. Individual
// detail failures are skipped, not fatal: one unreadable commit must not
// lose an entire repository.
func (c *Client) BugCommits(ctx context.Context, owner, repo string, opt FetchOptions, progress Progress) ([]record.Commit, error) {
	keywords := opt.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	matcher := rules.NewMatcher(keywords)

	listed, err := c.ListCommits(ctx, owner, repo, opt.Since, opt.Until)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s commits: %w", owner, repo, err)
	}

	var matched []string
	for _, lc := range listed {
		msg := lc.Message
		if len(msg) > messageFilterLimit {
			msg = msg[:messageFilterLimit]
		}
		if matcher.Match(msg) {
			matched = append(matched, lc.SHA)
		}
	}

	ex := evidence.NewExtractor(nil)
	var commits []record.Commit
	for i, sha := range matched {
		if progress != nil {
			progress(i, len(matched))
		}
		detail, err := c.commitDetail(ctx, owner, repo, sha)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if c.verbose && c.logw != nil {
				fmt.Fprintf(c.logw, "skipping %s: %v\n", sha, err)
			}
			continue
		}
		if opt.SkipMerges && len(detail.Parents) > 1 {
			continue
		}
		rec := buildRecord(owner, repo, detail, ex)
		if opt.RequireROrRmdTouch && !rec.TouchesROrRmd {
			continue
		}
		if !opt.RequireROrRmdTouch && opt.RequireRmdTouch && !rec.TouchesRmd {
			continue
		}
		commits = append(commits, rec)
	}
	if progress != nil {
		progress(len(matched), len(matched))
	}
	return commits, nil
}

// buildRecord assembles the fixed commit-record schema from a commit
// detail: per-file patches joined under file banners, line counts summed,
// touch flags derived from the file list.
func buildRecord(owner, repo string, d *commitDetail, ex *evidence.Extractor) record.Commit {
	rec := record.Commit{
		RepoOwner:      owner,
		RepoName:       repo,
		Hash:           d.SHA,
		AuthorName:     d.Commit.Author.Name,
		AuthorEmail:    d.Commit.Author.Email,
		AuthorDate:     d.Commit.Author.Date,
		CommitterName:  d.Commit.Committer.Name,
		CommitterEmail: d.Commit.Committer.Email,
		CommitterDate:  d.Commit.Committer.Date,
		Message:        d.Commit.Message,
		IsMerge:        len(d.Parents) > 1,
	}

	var patches []string
	for _, f := range d.Files {
		if f.Filename != "" {
			rec.Filenames = append(rec.Filenames, f.Filename)
		}
		if f.Patch != "" {
			patches = append(patches, fmt.Sprintf("---FILE: %s---\n%s", f.Filename, f.Patch))
		}
		rec.Added += f.Additions
		rec.Deleted += f.Deletions
		rec.Changed += f.Changes
	}
	rec.Diff = strings.Join(patches, "\n\n")

	rec.TouchesR = ex.TouchesR(rec.Filenames)
	rec.TouchesRmd = ex.TouchesRmd(rec.Filenames)
	rec.TouchesROrRmd = rec.TouchesR || rec.TouchesRmd
	return rec
}
