package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmdlab/rmdqc/internal/qc"
	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/report"
)

var (
	qcDataDir string
	qcOut     string

	qcCmd = &cobra.Command{
		Use:   "qc",
		Short: "Run quality gates over every classified repository",
		Long: `QC evaluates coverage, low-confidence rate, unknown rate, and suspect
rate for every classified repository, assigns each a PASS, WARN, or FAIL
verdict, and writes a summary CSV sorted worst-first. A repository that
fails any gate is excluded from aggregation.`,
		RunE: runQC,
	}
)

func init() {
	qcCmd.Flags().StringVar(&qcDataDir, "data-dir", "analysis", "Directory with classified CSVs")
	qcCmd.Flags().StringVar(&qcOut, "out", "", "Summary CSV path (default <data-dir>/qc_summary.csv)")

	rootCmd.AddCommand(qcCmd)
}

func runQC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	th := cfg.Thresholds()

	files, err := findClassified(qcDataDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no *_classified.csv files under %s", qcDataDir)
	}

	var results []qc.Result
	for _, path := range files {
		rows, err := readClassifiedFile(path)
		if err != nil {
			return err
		}
		owner, name := repoIdentity(path, rows)
		results = append(results, qc.Evaluate(owner, name, rows, th))
	}
	qc.SortResults(results)

	outPath := qcOut
	if outPath == "" {
		outPath = filepath.Join(qcDataDir, "qc_summary.csv")
	}
	if err := writeCSVFile(outPath, func(f *os.File) error {
		return qc.WriteSummary(f, results)
	}); err != nil {
		return err
	}

	var table [][]string
	counts := map[qc.Verdict]int{}
	for _, r := range results {
		counts[r.Verdict]++
		table = append(table, []string{
			r.RepoOwner + "/" + r.RepoName,
			strconv.Itoa(r.Commits),
			fmt.Sprintf("%.4f", r.Coverage),
			fmt.Sprintf("%.4f", r.LowConfidence),
			fmt.Sprintf("%.4f", r.Unknown),
			fmt.Sprintf("%.4f", r.Suspects),
			string(r.Verdict),
			strings.Join(r.Reasons, "; "),
		})
	}
	out := outWriter()
	report.Table(out, []string{"repo", "commits", "coverage", "low conf", "unknown", "suspects", "verdict", "reasons"}, table)
	fmt.Fprintf(out, "\n%d PASS, %d WARN, %d FAIL -> %s\n",
		counts[qc.Pass], counts[qc.Warn], counts[qc.Fail], outPath)
	return nil
}

// findClassified walks dir for the per-repo classified CSVs the classify
// command laid out.
func findClassified(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), "_classified.csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func readClassifiedFile(path string) ([]record.Classified, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return record.ReadClassified(f, path)
}

// repoIdentity prefers the owner and name recorded in the rows; an empty
// repository falls back to splitting the file's <owner>_<repo> tag.
// GitHub owner logins cannot contain underscores, so the first one
// separates owner from repo.
func repoIdentity(path string, rows []record.Classified) (owner, name string) {
	for _, r := range rows {
		if r.RepoOwner != "" && r.RepoName != "" {
			return r.RepoOwner, r.RepoName
		}
	}
	tag := strings.TrimSuffix(filepath.Base(path), "_classified.csv")
	if i := strings.Index(tag, "_"); i > 0 {
		return tag[:i], tag[i+1:]
	}
	return "", tag
}
