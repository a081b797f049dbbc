package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmdlab/rmdqc/internal/aggregate"
	"github.com/rmdlab/rmdqc/internal/classify"
	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/report"
	"github.com/rmdlab/rmdqc/internal/ui"
)

var (
	classifyDir         string
	classifyOutDir      string
	classifyKeepMerges  bool
	classifyWorkers     int
	classifyLean        bool
	classifyLimitDiff   int
	classifyExamplesPer int
	classifyTopPaths    int

	classifyCmd = &cobra.Command{
		Use:   "classify",
		Short: "Classify fetched bug commits into defect categories",
		Long: `Classify scores every fetched commit against the defect rule tables
and assigns each one a category. For every repository it writes a
classified CSV plus helper tables (category percentages, touch rates by
category, most-touched paths, high-scoring examples), and a cross-repo
category count pivot at the top of the output directory.`,
		RunE: runClassify,
	}
)

func init() {
	classifyCmd.Flags().StringVar(&classifyDir, "dir", "data", "Directory with *_bug_commits.csv files")
	classifyCmd.Flags().StringVar(&classifyOutDir, "out-dir", "analysis", "Directory for classification output")
	classifyCmd.Flags().BoolVar(&classifyKeepMerges, "keep-merges", false, "Classify merge commits instead of dropping them")
	classifyCmd.Flags().IntVar(&classifyWorkers, "workers", 0, "Classification workers (0 = one per CPU)")
	classifyCmd.Flags().BoolVar(&classifyLean, "lean", false, "Omit the diff column from classified CSVs")
	classifyCmd.Flags().IntVar(&classifyLimitDiff, "limit-diff-chars", 0,
		"Truncate stored diffs to this many characters (0 = keep full diffs)")
	classifyCmd.Flags().IntVar(&classifyExamplesPer, "examples-per-cat", 5, "High-scoring example commits kept per category")
	classifyCmd.Flags().IntVar(&classifyTopPaths, "top-paths", 50, "Most-touched paths kept per repository")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := classifyWorkers
	if workers == 0 {
		workers = cfg.Workers
	}

	inputs, err := filepath.Glob(filepath.Join(classifyDir, "*_bug_commits.csv"))
	if err != nil {
		return fmt.Errorf("scan %s: %w", classifyDir, err)
	}
	sort.Strings(inputs)
	if len(inputs) == 0 {
		return fmt.Errorf("no *_bug_commits.csv files under %s", classifyDir)
	}

	engine := classify.NewEngine(nil)
	ctx := cmd.Context()
	var dists []aggregate.RepoDist

	for i, input := range inputs {
		tag := strings.TrimSuffix(filepath.Base(input), "_bug_commits.csv")

		commits, err := readCommitsFile(input)
		if err != nil {
			return fmt.Errorf("read %s: %w", input, err)
		}
		if !classifyKeepMerges {
			commits = dropMerges(commits)
		}

		sp := ui.NewSpinner(fmt.Sprintf("[%d/%d] %s: classifying %d commits", i+1, len(inputs), tag, len(commits)))
		sp.Start()
		classified, err := engine.All(ctx, commits, workers)
		if err != nil {
			sp.Stop("")
			return fmt.Errorf("classify %s: %w", tag, err)
		}

		repoDir := filepath.Join(classifyOutDir, tag)
		if err := writeRepoAnalysis(repoDir, tag, classified); err != nil {
			sp.Stop("")
			return err
		}
		sp.Stop(fmt.Sprintf("[%d/%d] %s: %d commits classified -> %s", i+1, len(inputs), tag, len(classified), repoDir))

		dists = append(dists, aggregate.RepoDist{Repo: tag, Summary: aggregate.Summarize(classified)})
	}

	countsPath := filepath.Join(classifyOutDir, "cross_repo_category_counts.csv")
	if err := writeCSVFile(countsPath, func(f *os.File) error {
		return aggregate.WriteCategoryCounts(f, dists)
	}); err != nil {
		return err
	}

	fmt.Fprintf(outWriter(), "Classified %d repositories into %s\n", len(inputs), classifyOutDir)
	return nil
}

func writeRepoAnalysis(repoDir, tag string, classified []record.Classified) error {
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", repoDir, err)
	}

	writeOpt := record.WriteOptions{DropDiff: classifyLean, LimitDiffChars: classifyLimitDiff}
	files := []struct {
		name  string
		write func(f *os.File) error
	}{
		{tag + "_classified.csv", func(f *os.File) error {
			return record.WriteClassified(f, classified, writeOpt)
		}},
		{tag + "_category_percentages.csv", func(f *os.File) error {
			return report.WriteCategoryPercentages(f, report.CategoryPercentages(classified))
		}},
		{tag + "_rmd_touch_by_category.csv", func(f *os.File) error {
			rows := report.TouchByCategory(classified, func(c record.Classified) bool { return c.TouchesRmd })
			return report.WriteTouchByCategory(f, "touches_rmd_%", rows)
		}},
		{tag + "_r_touch_by_category.csv", func(f *os.File) error {
			rows := report.TouchByCategory(classified, func(c record.Classified) bool { return c.TouchesR })
			return report.WriteTouchByCategory(f, "touches_r_%", rows)
		}},
		{tag + "_top_paths.csv", func(f *os.File) error {
			return report.WriteTopPaths(f, report.TopPaths(classified, classifyTopPaths))
		}},
		{tag + "_examples.csv", func(f *os.File) error {
			return report.WriteExamples(f, report.Examples(tag, classified, classifyExamplesPer))
		}},
	}
	for _, out := range files {
		if err := writeCSVFile(filepath.Join(repoDir, out.name), out.write); err != nil {
			return err
		}
	}
	return nil
}

func dropMerges(commits []record.Commit) []record.Commit {
	kept := commits[:0]
	for _, c := range commits {
		if c.IsMerge || strings.HasPrefix(c.Message, "Merge ") {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func readCommitsFile(path string) ([]record.Commit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return record.ReadCommits(f)
}

func writeCSVFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
