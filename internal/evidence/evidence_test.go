package evidence

import (
	"reflect"
	"testing"

	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

func TestDiffPaths(t *testing.T) {
	tests := []struct {
		name     string
		diff     string
		expected []string
	}{
		{
			name:     "unified headers with prefixes",
			diff:     "--- a/R/plot.R\n+++ b/R/plot.R\n@@ -1 +1 @@\n-x\n+y",
			expected: []string{"R/plot.R", "R/plot.R"},
		},
		{
			name:     "no headers",
			diff:     "+ggplot(df)\n-plot(df)",
			expected: nil,
		},
		{
			name:     "file banner format is not a header",
			diff:     "---FILE: R/plot.R---\n+ggplot(df)",
			expected: nil,
		},
		{
			name:     "empty diff",
			diff:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffPaths(tt.diff)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("DiffPaths() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPathContextFallsBackToFilenames(t *testing.T) {
	c := record.Commit{
		Diff:      "---FILE: vignettes/intro.Rmd---\n+text",
		Filenames: []string{"vignettes/intro.Rmd", "R/utils.R"},
	}
	if got := PathContext(c); got != "vignettes/intro.Rmd R/utils.R" {
		t.Errorf("PathContext() = %q", got)
	}

	withHeaders := record.Commit{
		Diff:      "--- a/DESCRIPTION\n+++ b/DESCRIPTION",
		Filenames: []string{"ignored.txt"},
	}
	if got := PathContext(withHeaders); got != "DESCRIPTION DESCRIPTION" {
		t.Errorf("PathContext() = %q, want diff header paths", got)
	}
}

func TestTouchFlags(t *testing.T) {
	ex := NewExtractor(nil)

	tests := []struct {
		name  string
		paths []string
		r     bool
		rmd   bool
	}{
		{
			name:  "r source",
			paths: []string{"R/model.R"},
			r:     true,
		},
		{
			name:  "lowercase r source",
			paths: []string{"scripts/clean.r"},
			r:     true,
		},
		{
			name:  "rmd source",
			paths: []string{"analysis/report.Rmd"},
			rmd:   true,
		},
		{
			name:  "quarto source",
			paths: []string{"index.qmd"},
			rmd:   true,
		},
		{
			name:  "site config",
			paths: []string{"_site.yml"},
			rmd:   true,
		},
		{
			name:  "bookdown config",
			paths: []string{"book/_bookdown.yml"},
			rmd:   true,
		},
		{
			name:  "markdown is not an r source",
			paths: []string{"README.md"},
		},
		{
			name:  "both artifact kinds",
			paths: []string{"R/plot.R", "vignettes/intro.Rmd"},
			r:     true,
			rmd:   true,
		},
		{
			name:  "no paths",
			paths: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ex.TouchesR(tt.paths); got != tt.r {
				t.Errorf("TouchesR(%v) = %v, want %v", tt.paths, got, tt.r)
			}
			if got := ex.TouchesRmd(tt.paths); got != tt.rmd {
				t.Errorf("TouchesRmd(%v) = %v, want %v", tt.paths, got, tt.rmd)
			}
		})
	}
}

func TestInferTouches(t *testing.T) {
	ex := NewExtractor(nil)

	c := record.Commit{Filenames: []string{"R/fit.R"}}
	ex.InferTouches(&c)
	if !c.TouchesR || c.TouchesRmd || !c.TouchesROrRmd {
		t.Errorf("InferTouches set r=%v rmd=%v either=%v", c.TouchesR, c.TouchesRmd, c.TouchesROrRmd)
	}

	// Flags set by the fetch stage are kept even when the filename list
	// no longer supports them.
	pre := record.Commit{TouchesRmd: true}
	ex.InferTouches(&pre)
	if !pre.TouchesRmd || !pre.TouchesROrRmd {
		t.Error("InferTouches dropped a pre-set flag")
	}
}

func TestExtract(t *testing.T) {
	ex := NewExtractor(nil)
	c := record.Commit{
		Message:   "fix broken legend",
		Diff:      "---FILE: R/plot.R---\n+p <- ggplot(df, aes(x)) + theme(legend.position = \"none\")",
		Filenames: []string{"R/plot.R"},
	}

	set := ex.Extract(c)

	if !set.HasStrong(taxonomy.VisualizationPlotting) {
		t.Error("no strong visualization evidence from a ggplot diff")
	}
	if set.MessageCount(taxonomy.VisualizationPlotting) != 1 {
		t.Errorf("visualization message tokens = %d, want 1 (legend)",
			set.MessageCount(taxonomy.VisualizationPlotting))
	}
	// The .R path context supports Implementation/Logic.
	if !set.HasStrong(taxonomy.ImplementationLogic) {
		t.Error("no strong implementation evidence from the .R path")
	}
	if set.HasStrong(taxonomy.DependencyPackage) {
		t.Error("unexpected dependency evidence")
	}

	empty := ex.Extract(record.Commit{})
	if len(empty.Diff) != 0 || len(empty.Path) != 0 || len(empty.Message) != 0 {
		t.Errorf("empty commit produced evidence: %+v", empty)
	}
}
