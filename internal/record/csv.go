package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rmdlab/rmdqc/internal/stringsutil"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

var commitColumns = []string{
	"repo_owner", "repo_name", "commit_hash",
	"author_name", "author_email", "author_date",
	"committer_name", "committer_email", "committer_date",
	"message", "filenames",
	"touches_r", "touches_rmd", "touches_r_or_rmd",
	"is_merge", "added", "deleted", "changed", "diff",
}

func classifiedColumns() []string {
	cols := append([]string{}, commitColumns...)
	cols = append(cols, "category", "category_score")
	for _, cat := range taxonomy.All() {
		cols = append(cols, "score_"+cat.Slug())
	}
	return append(cols, "is_suspect", "suspect_hint_category")
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// parseBool accepts the truthy spellings found in collected CSVs; anything
// else, including an absent value, reads as false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return true
	}
	return false
}

// parseInt reads a count column; malformed values degrade to 0 rather
// than failing the row.
func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func commitRow(c Commit) []string {
	return []string{
		c.RepoOwner, c.RepoName, c.Hash,
		c.AuthorName, c.AuthorEmail, c.AuthorDate,
		c.CommitterName, c.CommitterEmail, c.CommitterDate,
		c.Message, strings.Join(c.Filenames, ";"),
		formatBool(c.TouchesR), formatBool(c.TouchesRmd), formatBool(c.TouchesROrRmd),
		formatBool(c.IsMerge),
		strconv.Itoa(c.Added), strconv.Itoa(c.Deleted), strconv.Itoa(c.Changed),
		c.Diff,
	}
}

// WriteCommits writes fetched commits in the input schema, header included.
// An empty slice still produces a header row for traceability.
func WriteCommits(w io.Writer, commits []Commit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(commitColumns); err != nil {
		return fmt.Errorf("write commits: %w", err)
	}
	for _, c := range commits {
		if err := cw.Write(commitRow(c)); err != nil {
			return fmt.Errorf("write commits: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOptions controls the classified-CSV output shape.
type WriteOptions struct {
	// DropDiff omits the diff column entirely (lean output).
	DropDiff bool
	// LimitDiffChars truncates the diff column to at most this many
	// characters when positive. Ignored when DropDiff is set.
	LimitDiffChars int
}

// WriteClassified writes classified commits in the classifier output
// schema: the input columns plus category, overall score, the ten
// per-category score columns, and the suspect fields.
func WriteClassified(w io.Writer, rows []Classified, opt WriteOptions) error {
	cols := classifiedColumns()
	diffIdx := -1
	for i, c := range cols {
		if c == "diff" {
			diffIdx = i
		}
	}

	header := cols
	if opt.DropDiff {
		header = append(append([]string{}, cols[:diffIdx]...), cols[diffIdx+1:]...)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write classified: %w", err)
	}
	for _, r := range rows {
		row := commitRow(r.Commit)
		if opt.DropDiff {
			row = append(row[:diffIdx:diffIdx], row[diffIdx+1:]...)
		} else if opt.LimitDiffChars > 0 && len(row[diffIdx]) > opt.LimitDiffChars {
			row[diffIdx] = row[diffIdx][:opt.LimitDiffChars]
		}
		row = append(row, r.Category.String(), strconv.Itoa(r.Score))
		for _, cat := range taxonomy.All() {
			row = append(row, strconv.Itoa(r.Scores[cat]))
		}
		hint := ""
		if r.IsSuspect {
			hint = r.SuspectHint.String()
		}
		row = append(row, formatBool(r.IsSuspect), hint)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write classified: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// header maps lowercased column names to their index.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		h[strings.ToLower(strings.TrimSpace(c))] = i
	}
	return h
}

// pick returns the index of the first present alias, or -1.
func (h header) pick(names ...string) int {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i
		}
	}
	return -1
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ReadCommits reads the input schema. Column order is irrelevant and
// common aliases are accepted; commit hash, message, and diff columns
// must exist, everything else degrades to zero values.
func ReadCommits(r io.Reader) ([]Commit, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	h := newHeader(cols)

	hash := h.pick("commit_hash", "sha", "hash", "commit")
	message := h.pick("message", "commit_message", "msg")
	diff := h.pick("diff", "patch", "changes", "change")
	if hash < 0 || message < 0 || diff < 0 {
		return nil, fmt.Errorf("read commits: missing required columns (need commit hash, message, diff)")
	}

	owner := h.pick("repo_owner", "owner")
	name := h.pick("repo_name", "repo")
	authorName := h.pick("author_name", "author")
	authorEmail := h.pick("author_email")
	authorDate := h.pick("author_date", "date", "commit_date")
	committerName := h.pick("committer_name", "committer")
	committerEmail := h.pick("committer_email")
	committerDate := h.pick("committer_date")
	filenames := h.pick("filenames", "files", "paths")
	touchesR := h.pick("touches_r", "touch_r")
	touchesRmd := h.pick("touches_rmd", "touch_rmd", "touches_r_markdown")
	touchesEither := h.pick("touches_r_or_rmd")
	isMerge := h.pick("is_merge")
	added := h.pick("added")
	deleted := h.pick("deleted")
	changed := h.pick("changed")

	var commits []Commit
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read commits: %w", err)
		}
		c := Commit{
			RepoOwner:      field(row, owner),
			RepoName:       field(row, name),
			Hash:           field(row, hash),
			AuthorName:     field(row, authorName),
			AuthorEmail:    field(row, authorEmail),
			AuthorDate:     field(row, authorDate),
			CommitterName:  field(row, committerName),
			CommitterEmail: field(row, committerEmail),
			CommitterDate:  field(row, committerDate),
			Message:        field(row, message),
			Filenames:      stringsutil.SplitNonEmpty(field(row, filenames), ";"),
			TouchesR:       parseBool(field(row, touchesR)),
			TouchesRmd:     parseBool(field(row, touchesRmd)),
			IsMerge:        parseBool(field(row, isMerge)),
			Added:          parseInt(field(row, added)),
			Deleted:        parseInt(field(row, deleted)),
			Changed:        parseInt(field(row, changed)),
			Diff:           field(row, diff),
		}
		if touchesEither >= 0 {
			c.TouchesROrRmd = parseBool(field(row, touchesEither))
		} else {
			c.TouchesROrRmd = c.TouchesR || c.TouchesRmd
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// ReadClassified reads the classifier output schema. Category identifiers
// are validated against the taxonomy; an unknown identifier is a data
// integrity failure for the whole file.
func ReadClassified(r io.Reader, filename string) ([]Classified, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read classified: %w", err)
	}
	h := newHeader(cols)

	category := h.pick("category", "bug_category", "label")
	score := h.pick("category_score", "score")
	if category < 0 || score < 0 {
		return nil, fmt.Errorf("read classified: missing category/category_score columns")
	}
	suspect := h.pick("is_suspect")
	hint := h.pick("suspect_hint_category", "message_hint_category")

	hash := h.pick("commit_hash", "sha", "hash", "commit")
	message := h.pick("message", "commit_message", "msg")
	diff := h.pick("diff", "patch", "changes", "change")
	owner := h.pick("repo_owner", "owner")
	name := h.pick("repo_name", "repo")
	authorName := h.pick("author_name", "author")
	authorDate := h.pick("author_date", "date", "commit_date")
	filenames := h.pick("filenames", "files", "paths")
	touchesR := h.pick("touches_r", "touch_r")
	touchesRmd := h.pick("touches_rmd", "touch_rmd")
	isMerge := h.pick("is_merge")

	scoreCols := [taxonomy.Count]int{}
	for _, cat := range taxonomy.All() {
		scoreCols[cat] = h.pick("score_" + cat.Slug())
	}

	var rows []Classified
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read classified: %w", err)
		}
		line++

		cat, err := taxonomy.Parse(field(row, category))
		if err != nil {
			return nil, &IntegrityError{File: filename, Line: line, Field: "category", Err: err}
		}

		cl := Classified{
			Commit: Commit{
				RepoOwner:  field(row, owner),
				RepoName:   field(row, name),
				Hash:       field(row, hash),
				AuthorName: field(row, authorName),
				AuthorDate: field(row, authorDate),
				Message:    field(row, message),
				Filenames:  stringsutil.SplitNonEmpty(field(row, filenames), ";"),
				TouchesR:   parseBool(field(row, touchesR)),
				TouchesRmd: parseBool(field(row, touchesRmd)),
				IsMerge:    parseBool(field(row, isMerge)),
				Diff:       field(row, diff),
			},
			Category:  cat,
			Score:     parseInt(field(row, score)),
			IsSuspect: parseBool(field(row, suspect)),
		}
		cl.TouchesROrRmd = cl.TouchesR || cl.TouchesRmd
		for _, c := range taxonomy.All() {
			if scoreCols[c] >= 0 {
				cl.Scores[c] = parseInt(field(row, scoreCols[c]))
			}
		}
		if cl.IsSuspect {
			hintCat, err := taxonomy.Parse(field(row, hint))
			if err != nil {
				return nil, &IntegrityError{File: filename, Line: line, Field: "suspect_hint_category", Err: err}
			}
			cl.SuspectHint = hintCat
		}
		rows = append(rows, cl)
	}
	return rows, nil
}
