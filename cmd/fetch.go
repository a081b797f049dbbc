package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rmdlab/rmdqc/internal/config"
	"github.com/rmdlab/rmdqc/internal/github"
	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/stringsutil"
	"github.com/rmdlab/rmdqc/internal/ui"
)

var (
	fetchReposCSV      string
	fetchOutDir        string
	fetchSince         string
	fetchUntil         string
	fetchSkipMerges    bool
	fetchRequireRmd    bool
	fetchRequireROrRmd bool
	fetchOverwrite     bool
	fetchKeywords      []string

	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Fetch bug-keyword commits for every listed repository",
		Long: `Fetch lists each repository's commit history through the GitHub API,
keeps commits whose message matches a bug keyword, and stores one
<owner>_<repo>_bug_commits.csv per repository with full diffs.

Repositories that already have an output file are skipped unless
--overwrite is set, so an interrupted run can be resumed.`,
		RunE: runFetch,
	}
)

func init() {
	fetchCmd.Flags().StringVar(&fetchReposCSV, "repos-csv", "", "CSV listing repositories to fetch (required)")
	fetchCmd.Flags().StringVar(&fetchOutDir, "out-dir", "data", "Directory for per-repo commit CSVs")
	fetchCmd.Flags().StringVar(&fetchSince, "since", "", "Only commits after this ISO 8601 timestamp")
	fetchCmd.Flags().StringVar(&fetchUntil, "until", "", "Only commits before this ISO 8601 timestamp")
	fetchCmd.Flags().BoolVar(&fetchSkipMerges, "skip-merges", false, "Drop merge commits at fetch time")
	fetchCmd.Flags().BoolVar(&fetchRequireRmd, "require-rmd-touch", false,
		"Keep only commits touching an R Markdown artifact")
	fetchCmd.Flags().BoolVar(&fetchRequireROrRmd, "require-r-or-rmd-touch", false,
		"Keep only commits touching R sources or R Markdown artifacts")
	fetchCmd.Flags().BoolVar(&fetchOverwrite, "overwrite", false, "Refetch repositories with existing output files")
	fetchCmd.Flags().StringSliceVar(&fetchKeywords, "keywords", nil,
		"Override the built-in bug keyword list")
	_ = fetchCmd.MarkFlagRequired("repos-csv")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(fetchReposCSV)
	if err != nil {
		return fmt.Errorf("open repo list: %w", err)
	}
	repos, err := github.ReadRepoList(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read repo list: %w", err)
	}
	if len(repos) == 0 {
		return fmt.Errorf("repo list %s names no repositories", fetchReposCSV)
	}

	if err := os.MkdirAll(fetchOutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts := []github.Option{}
	if cfg.GitHubToken != "" {
		opts = append(opts, github.WithToken(cfg.GitHubToken))
	} else {
		fmt.Fprintln(errWriter(), "Warning: no GitHub token configured, unauthenticated rate limits apply")
	}
	if verbose {
		opts = append(opts, github.WithVerbose(errWriter()))
	}
	client := github.NewClient(opts...)

	fopt := github.FetchOptions{
		Keywords:           fetchKeywordList(cfg),
		Since:              fetchSince,
		Until:              fetchUntil,
		SkipMerges:         fetchSkipMerges,
		RequireRmdTouch:    fetchRequireRmd,
		RequireROrRmdTouch: fetchRequireROrRmd,
	}

	ctx := cmd.Context()
	var fetched, skipped int
	for i, repo := range repos {
		outPath := filepath.Join(fetchOutDir, repo.Tag()+"_bug_commits.csv")
		if !fetchOverwrite {
			if _, err := os.Stat(outPath); err == nil {
				fmt.Fprintf(errWriter(), "[%d/%d] %s: output exists, skipping\n", i+1, len(repos), repo)
				skipped++
				continue
			}
		}

		sp := ui.NewSpinner(fmt.Sprintf("[%d/%d] %s: listing commits", i+1, len(repos), repo))
		sp.Start()
		commits, err := client.BugCommits(ctx, repo.Owner, repo.Name, fopt, func(done, total int) {
			sp.Updatef("[%d/%d] %s: fetching commit %d/%d", i+1, len(repos), repo, done, total)
		})
		if err != nil {
			sp.Stop("")
			return fmt.Errorf("fetch %s: %w", repo, err)
		}

		// An empty result still gets a header-only file so downstream
		// stages see the repository was fetched.
		if err := writeCommitsFile(outPath, commits); err != nil {
			sp.Stop("")
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		sp.Stop(fmt.Sprintf("[%d/%d] %s: %d bug commits -> %s", i+1, len(repos), repo, len(commits), outPath))
		fetched++
	}

	fmt.Fprintf(outWriter(), "Fetched %d repositories (%d skipped) into %s\n", fetched, skipped, fetchOutDir)
	return nil
}

// fetchKeywordList resolves the effective bug keyword set: the --keywords
// flag overrides the configured list, and repeated entries are dropped.
func fetchKeywordList(cfg *config.Config) []string {
	keywords := fetchKeywords
	if len(keywords) == 0 {
		keywords = cfg.BugKeywords
	}
	return stringsutil.UniqueStrings(keywords)
}

func writeCommitsFile(path string, commits []record.Commit) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := record.WriteCommits(f, commits); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
