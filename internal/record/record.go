// Package record defines the commit record types exchanged between the
// pipeline stages and their CSV codecs. Commit rows come from the fetch
// stage and are read-only afterwards; Classified rows extend them with
// the classifier's output.
package record

import (
	"fmt"

	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

// Commit is a single fetched bug-keyword commit.
type Commit struct {
	RepoOwner      string
	RepoName       string
	Hash           string
	AuthorName     string
	AuthorEmail    string
	AuthorDate     string
	CommitterName  string
	CommitterEmail string
	CommitterDate  string
	Message        string
	Filenames      []string
	TouchesR       bool
	TouchesRmd     bool
	TouchesROrRmd  bool
	IsMerge        bool
	Added          int
	Deleted        int
	Changed        int
	Diff           string
}

// Classified is a Commit plus the classifier's verdict for it.
type Classified struct {
	Commit

	Category taxonomy.Category
	Score    int
	Scores   [taxonomy.Count]int

	IsSuspect bool
	// SuspectHint is the message-implied category a suspect commit would be
	// reassigned to. Only meaningful when IsSuspect is set.
	SuspectHint taxonomy.Category
}

// IntegrityError marks stored intermediate data that cannot be trusted,
// e.g. a classified CSV carrying a category identifier outside the
// taxonomy. Such rows are rejected at load time, never coerced.
type IntegrityError struct {
	File  string
	Line  int
	Field string
	Err   error
}

func (e *IntegrityError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("data integrity: %s line %d field %q: %v", e.File, e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("data integrity: line %d field %q: %v", e.Line, e.Field, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }
