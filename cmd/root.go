package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmdlab/rmdqc/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	configErr error

	execCtx = context.Background()

	rootCmd = &cobra.Command{
		Use:   "rmdqc",
		Short: "rmdqc - bug-fix commit mining and defect classification for R Markdown repositories",
		Long: `rmdqc mines bug-fix commits from GitHub repositories in the R and
R Markdown ecosystem, classifies each commit into a defect category by
scoring diff, path, and message evidence, gates every repository through
quality checks, and aggregates category distributions across repositories.

A typical run:

  rmdqc fetch --repos-csv repos.csv --out-dir data
  rmdqc classify --dir data --out-dir analysis
  rmdqc qc --data-dir analysis --out analysis/qc_summary.csv
  rmdqc aggregate --qc analysis/qc_summary.csv --data-dir analysis --out-dir analysis/cross_repo`,
		Version:       fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// SetContext sets the context commands run under; main wires the
// signal-cancelled one before Execute.
func SetContext(ctx context.Context) {
	execCtx = ctx
}

// RootCmd exposes the command tree for documentation generation.
func RootCmd() *cobra.Command {
	return rootCmd
}

func Execute() error {
	return rootCmd.ExecuteContext(execCtx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Configuration file path (default searches ./config.yaml and the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false,
		"Show detailed progress and HTTP retry output")
}

func initConfig() {
	configErr = config.InitConfig(cfgFile)
}

// loadConfig surfaces a deferred config-load failure at command run time.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, fmt.Errorf("configuration error: %w", configErr)
	}
	return config.GetConfig()
}
