// Package rules loads the per-category rule tables that drive evidence
// extraction. The tables ship as an embedded YAML document and compile
// once into case-insensitive matchers; the compiled table is read-only
// and safe for concurrent use by classification workers.
package rules

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

//go:embed rules.yaml
var rulesYAML []byte

// Weights are the evidence-source weights applied by the scorer.
type Weights struct {
	Diff    int `yaml:"diff"`
	Path    int `yaml:"path"`
	Message int `yaml:"message"`
}

// Term is a single compiled rule term.
type Term struct {
	Text string
	re   *regexp.Regexp
}

// Match reports whether the term occurs in s.
func (t Term) Match(s string) bool {
	return t.re.MatchString(s)
}

// Table holds the compiled rule sets for every category, indexed in
// taxonomy order.
type Table struct {
	Weights      Weights
	Diff         [taxonomy.Count][]Term
	Path         [taxonomy.Count][]Term
	Message      [taxonomy.Count][]Term
	RSources     []string
	RmdArtifacts []string
}

type ruleEntry struct {
	Category         string   `yaml:"category"`
	Diff             []string `yaml:"diff"`
	DiffNoBoundaries bool     `yaml:"diff_no_boundaries"`
	Message          []string `yaml:"message"`
	Path             []string `yaml:"path"`
}

type ruleFile struct {
	Weights      Weights     `yaml:"weights"`
	RSources     []string    `yaml:"r_sources"`
	RmdArtifacts []string    `yaml:"rmd_artifacts"`
	Categories   []ruleEntry `yaml:"categories"`
}

var wordOnly = regexp.MustCompile(`^\w+$`)

// compileTerm escapes the term and, when boundaries is set and the term is
// a plain word, anchors it on word boundaries. Phrases and punctuated
// terms match as substrings, mirroring how the keyword lists were curated.
func compileTerm(term string, boundaries bool) Term {
	pat := regexp.QuoteMeta(term)
	if boundaries && wordOnly.MatchString(term) {
		pat = `\b` + pat + `\b`
	}
	return Term{Text: term, re: regexp.MustCompile(`(?i)` + pat)}
}

func compileTerms(terms []string, boundaries bool) []Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		out = append(out, compileTerm(t, boundaries))
	}
	return out
}

// Parse compiles a rule table from a YAML document. Every category in the
// taxonomy must appear exactly once.
func Parse(doc []byte) (*Table, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(doc, &rf); err != nil {
		return nil, fmt.Errorf("parse rule tables: %w", err)
	}
	if rf.Weights.Diff == 0 && rf.Weights.Path == 0 && rf.Weights.Message == 0 {
		return nil, fmt.Errorf("parse rule tables: missing weights")
	}

	table := &Table{
		Weights:      rf.Weights,
		RSources:     rf.RSources,
		RmdArtifacts: rf.RmdArtifacts,
	}

	seen := [taxonomy.Count]bool{}
	for _, entry := range rf.Categories {
		cat, err := taxonomy.Parse(entry.Category)
		if err != nil {
			return nil, fmt.Errorf("parse rule tables: %w", err)
		}
		if seen[cat] {
			return nil, fmt.Errorf("parse rule tables: duplicate rules for %s", cat)
		}
		seen[cat] = true
		table.Diff[cat] = compileTerms(entry.Diff, !entry.DiffNoBoundaries)
		table.Message[cat] = compileTerms(entry.Message, true)
		table.Path[cat] = compileTerms(entry.Path, false)
	}
	for _, cat := range taxonomy.All() {
		if !seen[cat] {
			return nil, fmt.Errorf("parse rule tables: no rules for %s", cat)
		}
	}
	return table, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the compiled embedded rule table. The embedded document
// is part of the binary, so a parse failure is a build defect and panics.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(rulesYAML)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultTable
}

// Matcher matches a string against a compiled keyword list. Used for the
// fetch-time bug-keyword filter.
type Matcher struct {
	terms []Term
}

// NewMatcher compiles keywords with word-boundary semantics for plain
// words and substring semantics for phrases.
func NewMatcher(keywords []string) *Matcher {
	return &Matcher{terms: compileTerms(keywords, true)}
}

// Match reports whether any keyword occurs in s. An empty keyword list
// matches nothing.
func (m *Matcher) Match(s string) bool {
	for _, t := range m.terms {
		if t.Match(s) {
			return true
		}
	}
	return false
}
