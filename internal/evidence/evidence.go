// Package evidence derives category-signal tokens from a commit's diff
// text, touched file paths, and message. Extraction never fails: absent
// or malformed inputs simply yield empty token collections.
package evidence

import (
	"strings"

	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/rules"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

// Source identifies which part of the commit a token was matched in.
type Source int

const (
	SourceDiff Source = iota
	SourcePath
	SourceMessage
)

func (s Source) String() string {
	switch s {
	case SourceDiff:
		return "diff"
	case SourcePath:
		return "path"
	case SourceMessage:
		return "message"
	}
	return "unknown"
}

// Token is a single piece of category evidence.
type Token struct {
	Category taxonomy.Category
	Source   Source
	Term     string
}

// Set is the evidence extracted for one commit, split by source.
// Diff and path tokens are the trusted tier; message tokens are the
// lower-trust tier the scorer weighs separately.
type Set struct {
	Diff    []Token
	Path    []Token
	Message []Token
}

// HasStrong reports whether cat has at least one diff or path token.
func (s Set) HasStrong(cat taxonomy.Category) bool {
	for _, t := range s.Diff {
		if t.Category == cat {
			return true
		}
	}
	for _, t := range s.Path {
		if t.Category == cat {
			return true
		}
	}
	return false
}

// MessageCount returns the number of message tokens supporting cat.
func (s Set) MessageCount(cat taxonomy.Category) int {
	n := 0
	for _, t := range s.Message {
		if t.Category == cat {
			n++
		}
	}
	return n
}

// Extractor scans commits against a compiled rule table.
type Extractor struct {
	table *rules.Table
}

// NewExtractor returns an extractor over the given table, or the embedded
// default table when table is nil.
func NewExtractor(table *rules.Table) *Extractor {
	if table == nil {
		table = rules.Default()
	}
	return &Extractor{table: table}
}

// DiffPaths pulls the touched file paths out of a unified diff's
// "+++ " / "--- " headers, stripping the a/ and b/ prefixes.
func DiffPaths(diff string) []string {
	var paths []string
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "+++ ") && !strings.HasPrefix(line, "--- ") {
			continue
		}
		p := strings.TrimSpace(line[4:])
		p = strings.TrimPrefix(p, "a/")
		p = strings.TrimPrefix(p, "b/")
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// PathContext builds the path-evidence string for a commit: the paths
// named in the diff headers, falling back to the fetched filename list
// when the diff carries none.
func PathContext(c record.Commit) string {
	paths := DiffPaths(c.Diff)
	if len(paths) == 0 {
		paths = c.Filenames
	}
	return strings.Join(paths, " ")
}

// Extract scans one commit and returns its evidence set.
func (e *Extractor) Extract(c record.Commit) Set {
	ctx := PathContext(c)

	var set Set
	for _, cat := range taxonomy.All() {
		for _, term := range e.table.Diff[cat] {
			if c.Diff != "" && term.Match(c.Diff) {
				set.Diff = append(set.Diff, Token{Category: cat, Source: SourceDiff, Term: term.Text})
			}
		}
		for _, term := range e.table.Path[cat] {
			if ctx != "" && term.Match(ctx) {
				set.Path = append(set.Path, Token{Category: cat, Source: SourcePath, Term: term.Text})
			}
		}
		for _, term := range e.table.Message[cat] {
			if c.Message != "" && term.Match(c.Message) {
				set.Message = append(set.Message, Token{Category: cat, Source: SourceMessage, Term: term.Text})
			}
		}
	}
	return set
}

// TouchesR reports whether any path is an R source file.
func (e *Extractor) TouchesR(paths []string) bool {
	for _, p := range paths {
		l := strings.ToLower(p)
		for _, suffix := range e.table.RSources {
			if strings.HasSuffix(l, suffix) {
				return true
			}
		}
	}
	return false
}

// TouchesRmd reports whether any path matches the R Markdown artifact
// set (.Rmd/.qmd sources and the known site/output configuration files).
func (e *Extractor) TouchesRmd(paths []string) bool {
	for _, p := range paths {
		l := strings.ToLower(p)
		for _, hint := range e.table.RmdArtifacts {
			if strings.HasSuffix(l, hint) || strings.Contains(l, hint) {
				return true
			}
		}
	}
	return false
}

// InferTouches fills in the touch flags from the filename list when the
// fetched record did not carry them. Flags already set are kept: the
// fetch stage saw the authoritative file list.
func (e *Extractor) InferTouches(c *record.Commit) {
	if !c.TouchesR {
		c.TouchesR = e.TouchesR(c.Filenames)
	}
	if !c.TouchesRmd {
		c.TouchesRmd = e.TouchesRmd(c.Filenames)
	}
	c.TouchesROrRmd = c.TouchesR || c.TouchesRmd
}
