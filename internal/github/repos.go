package github

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Repo identifies one repository to mine.
type Repo struct {
	Owner string
	Name  string
}

// Tag is the filesystem-safe prefix used for the repo's output files.
func (r Repo) Tag() string {
	return r.Owner + "_" + r.Name
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// ReadRepoList reads the externally supplied repository list. The CSV
// may identify repos with owner+repo columns, a full_name column
// ("owner/repo"), or a url column; duplicates are dropped.
func ReadRepoList(r io.Reader) ([]Repo, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read repo list: %w", err)
	}
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[strings.ToLower(strings.TrimSpace(c))] = i
	}

	ownerCol, hasOwner := idx["owner"]
	nameCol, hasName := idx["repo"]
	fullCol, hasFull := idx["full_name"]
	urlCol, hasURL := idx["url"]
	if !(hasOwner && hasName) && !hasFull && !hasURL {
		return nil, fmt.Errorf("read repo list: need owner+repo, full_name, or url columns")
	}

	var repos []Repo
	seen := make(map[string]struct{})
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read repo list: %w", err)
		}

		var owner, name string
		switch {
		case hasOwner && hasName:
			owner, name = cell(row, ownerCol), cell(row, nameCol)
		case hasFull:
			owner, name = splitFullName(cell(row, fullCol))
		case hasURL:
			full := strings.TrimPrefix(cell(row, urlCol), "https://github.com/")
			owner, name = splitFullName(full)
		}
		owner = strings.Trim(strings.TrimSpace(owner), "/")
		name = strings.Trim(strings.TrimSpace(name), "/")
		if owner == "" || name == "" {
			continue
		}
		key := owner + "/" + name
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		repos = append(repos, Repo{Owner: owner, Name: name})
	}
	return repos, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func splitFullName(full string) (owner, name string) {
	parts := strings.SplitN(strings.TrimSpace(full), "/", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
