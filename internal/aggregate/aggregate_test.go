package aggregate

import (
	"math"
	"testing"

	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/taxonomy"
)

func commit(cat taxonomy.Category, r, rmd, suspect bool, hint taxonomy.Category) record.Classified {
	c := record.Classified{Category: cat, IsSuspect: suspect, SuspectHint: hint}
	c.TouchesR = r
	c.TouchesRmd = rmd
	c.TouchesROrRmd = r || rmd
	return c
}

func TestApplyVariants(t *testing.T) {
	in := []record.Classified{
		commit(taxonomy.VisualizationPlotting, true, false, false, 0),
		commit(taxonomy.DependencyPackage, true, false, true, taxonomy.DocumentationFormatting),
		commit(taxonomy.RenderingConversion, false, true, false, 0),
	}

	baseline := Apply(in, Baseline)
	if len(baseline) != 3 {
		t.Errorf("baseline kept %d commits, want 3", len(baseline))
	}

	dropped := Apply(in, DropSuspects)
	if len(dropped) != 2 {
		t.Errorf("no_suspects kept %d commits, want 2", len(dropped))
	}
	for _, c := range dropped {
		if c.IsSuspect {
			t.Error("no_suspects kept a suspect commit")
		}
	}

	reassigned := Apply(in, Reassigned)
	if len(reassigned) != 3 {
		t.Fatalf("reassigned kept %d commits, want 3", len(reassigned))
	}
	if reassigned[1].Category != taxonomy.DocumentationFormatting {
		t.Errorf("suspect not reassigned, category = %v", reassigned[1].Category)
	}

	// The input set is shared between variants and must never change.
	if in[1].Category != taxonomy.DependencyPackage {
		t.Error("Apply mutated its input")
	}
}

func TestSummarize(t *testing.T) {
	in := []record.Classified{
		commit(taxonomy.VisualizationPlotting, true, false, false, 0),
		commit(taxonomy.VisualizationPlotting, true, false, false, 0),
		commit(taxonomy.RenderingConversion, false, true, false, 0),
		commit(taxonomy.MiscellaneousUnknown, false, false, false, 0),
	}

	s := Summarize(in)
	if s.Total != 4 {
		t.Fatalf("total = %d, want 4", s.Total)
	}
	if s.Counts[taxonomy.VisualizationPlotting] != 2 {
		t.Errorf("visualization count = %d, want 2", s.Counts[taxonomy.VisualizationPlotting])
	}
	if s.Percent[taxonomy.VisualizationPlotting] != 50 {
		t.Errorf("visualization percent = %v, want 50", s.Percent[taxonomy.VisualizationPlotting])
	}
	if s.Percent[taxonomy.MiscellaneousUnknown] != 25 {
		t.Errorf("unknown percent = %v, want 25", s.Percent[taxonomy.MiscellaneousUnknown])
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.Percent[0] != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestTouchRatesBucketsSumToOne(t *testing.T) {
	in := []record.Classified{
		commit(taxonomy.ImplementationLogic, true, false, false, 0),
		commit(taxonomy.ImplementationLogic, false, true, false, 0),
		commit(taxonomy.ImplementationLogic, true, true, false, 0),
		commit(taxonomy.ImplementationLogic, false, false, false, 0),
		commit(taxonomy.RenderingConversion, false, true, false, 0),
	}

	perCategory, overall := TouchRates(in)

	if overall.Commits != 5 {
		t.Fatalf("overall commits = %d, want 5", overall.Commits)
	}
	sum := overall.ROnly + overall.RmdOnly + overall.Both + overall.Neither
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("overall buckets sum to %v, want 1", sum)
	}

	impl := perCategory[taxonomy.ImplementationLogic]
	if impl.Commits != 4 {
		t.Fatalf("implementation commits = %d, want 4", impl.Commits)
	}
	if impl.ROnly != 0.25 || impl.RmdOnly != 0.25 || impl.Both != 0.25 || impl.Neither != 0.25 {
		t.Errorf("implementation breakdown = %+v, want uniform quarters", impl)
	}

	rend := perCategory[taxonomy.RenderingConversion]
	if rend.RmdOnly != 1 {
		t.Errorf("rendering rmd-only = %v, want 1", rend.RmdOnly)
	}

	if perCategory[taxonomy.DataInputHandling].Commits != 0 {
		t.Error("empty category has commits")
	}
}

func TestCrossRepo(t *testing.T) {
	byRepo := map[string][]record.Classified{
		"octocat_slides": {
			commit(taxonomy.RenderingConversion, false, true, false, 0),
			commit(taxonomy.RenderingConversion, false, true, false, 0),
		},
		"octocat_rmd-book": {
			commit(taxonomy.RenderingConversion, false, true, false, 0),
			commit(taxonomy.VisualizationPlotting, true, false, true, taxonomy.DocumentationFormatting),
		},
	}

	pooled, dists := CrossRepo(byRepo, Baseline)

	if pooled.Total != 4 {
		t.Fatalf("pooled total = %d, want 4", pooled.Total)
	}
	if pooled.Counts[taxonomy.RenderingConversion] != 3 {
		t.Errorf("pooled rendering count = %d, want 3", pooled.Counts[taxonomy.RenderingConversion])
	}
	if len(dists) != 2 || dists[0].Repo != "octocat_rmd-book" || dists[1].Repo != "octocat_slides" {
		t.Errorf("dists out of order: %+v", dists)
	}

	// Dropping the one suspect removes a visualization commit.
	droppedPooled, _ := CrossRepo(byRepo, DropSuspects)
	if droppedPooled.Total != 3 || droppedPooled.Counts[taxonomy.VisualizationPlotting] != 0 {
		t.Errorf("no_suspects pooled = %+v", droppedPooled)
	}
}

func TestCategoryStats(t *testing.T) {
	dists := []RepoDist{
		{Repo: "a", Summary: Summarize([]record.Classified{
			commit(taxonomy.RenderingConversion, false, true, false, 0),
			commit(taxonomy.RenderingConversion, false, true, false, 0),
			commit(taxonomy.VisualizationPlotting, true, false, false, 0),
			commit(taxonomy.VisualizationPlotting, true, false, false, 0),
			commit(taxonomy.VisualizationPlotting, true, false, false, 0),
		})}, // rendering 40%
		{Repo: "b", Summary: Summarize([]record.Classified{
			commit(taxonomy.RenderingConversion, false, true, false, 0),
			commit(taxonomy.RenderingConversion, false, true, false, 0),
			commit(taxonomy.RenderingConversion, false, true, false, 0),
			commit(taxonomy.VisualizationPlotting, true, false, false, 0),
			commit(taxonomy.VisualizationPlotting, true, false, false, 0),
		})}, // rendering 60%
	}

	stats := CategoryStats(dists)
	rend := stats[taxonomy.RenderingConversion]

	if rend.Repos != 2 {
		t.Fatalf("repos = %d, want 2", rend.Repos)
	}
	if rend.Mean != 50 || rend.Median != 50 || rend.Min != 40 || rend.Max != 60 {
		t.Errorf("rendering stats = %+v", rend)
	}
	// Sample standard deviation of {40, 60}.
	if math.Abs(rend.Std-math.Sqrt(200)) > 1e-9 {
		t.Errorf("rendering std = %v, want sqrt(200)", rend.Std)
	}

	if stats[taxonomy.DataInputHandling].Max != 0 {
		t.Error("absent category has nonzero stats")
	}
}
