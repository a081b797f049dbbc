package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rmdlab/rmdqc/internal/record"
	"github.com/rmdlab/rmdqc/internal/report"
)

var (
	summarizeClassified string
	summarizeTopPaths   int

	summarizeCmd = &cobra.Command{
		Use:   "summarize",
		Short: "Print one repository's classification summary",
		Long: `Summarize prints a single repository's category distribution, touch
rates by category, and most-touched paths as console tables, from a
classified CSV produced by the classify command.`,
		RunE: runSummarize,
	}
)

func init() {
	summarizeCmd.Flags().StringVar(&summarizeClassified, "classified", "", "Classified CSV to summarize (required)")
	summarizeCmd.Flags().IntVar(&summarizeTopPaths, "top-paths", 15, "Most-touched paths to show")
	_ = summarizeCmd.MarkFlagRequired("classified")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	f, err := os.Open(summarizeClassified)
	if err != nil {
		return fmt.Errorf("open classified CSV: %w", err)
	}
	rows, err := record.ReadClassified(f, summarizeClassified)
	f.Close()
	if err != nil {
		return err
	}

	out := outWriter()
	fmt.Fprintf(out, "%s: %d classified commits\n\n", summarizeClassified, len(rows))

	fmt.Fprintln(out, "Category distribution:")
	var catRows [][]string
	for _, r := range report.CategoryPercentages(rows) {
		catRows = append(catRows, []string{
			r.Category.String(),
			strconv.Itoa(r.Count),
			fmt.Sprintf("%.1f%%", r.Percent),
			fmt.Sprintf("%.1f", r.MedianScore),
		})
	}
	report.Table(out, []string{"category", "count", "share", "median score"}, catRows)

	fmt.Fprintln(out, "\nR Markdown touch rate by category:")
	printTouchTable(out, report.TouchByCategory(rows, func(c record.Classified) bool { return c.TouchesRmd }))

	fmt.Fprintln(out, "\nR source touch rate by category:")
	printTouchTable(out, report.TouchByCategory(rows, func(c record.Classified) bool { return c.TouchesR }))

	fmt.Fprintln(out, "\nMost-touched paths:")
	var pathRows [][]string
	for _, p := range report.TopPaths(rows, summarizeTopPaths) {
		pathRows = append(pathRows, []string{strconv.Itoa(p.Count), p.Path})
	}
	report.Table(out, []string{"count", "path"}, pathRows)

	return nil
}

func printTouchTable(out io.Writer, rows []report.TouchRow) {
	var table [][]string
	for _, r := range rows {
		table = append(table, []string{r.Category.String(), fmt.Sprintf("%.1f%%", r.Percent)})
	}
	report.Table(out, []string{"category", "touch rate"}, table)
}
