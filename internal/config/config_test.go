package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmdlab/rmdqc/internal/qc"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestInitConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg := writeAndLoad(t, "")

	assert.Empty(t, cfg.GitHubToken)
	assert.Zero(t, cfg.Workers)
	assert.Equal(t, qc.DefaultThresholds(), cfg.Thresholds())
}

func TestInitConfigFromFile(t *testing.T) {
	resetViper(t)

	cfg := writeAndLoad(t, `
github_token: file-token
workers: 8
bug_keywords:
  - fix
  - hotfix
qc:
  coverage_min: 0.9
  suspect_warn: 0.05
`)

	assert.Equal(t, "file-token", cfg.GitHubToken)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"fix", "hotfix"}, cfg.BugKeywords)

	th := cfg.Thresholds()
	assert.Equal(t, 0.9, th.CoverageMin)
	assert.Equal(t, 0.05, th.SuspectWarn)
	// Unset thresholds keep their defaults.
	assert.Equal(t, qc.DefaultThresholds().UnknownMax, th.UnknownMax)
	assert.Equal(t, qc.DefaultThresholds().LowConfidenceScore, th.LowConfidenceScore)
}

func TestInitConfigTokenFromEnvironment(t *testing.T) {
	resetViper(t)
	t.Setenv("GITHUB_TOKEN", "env-token")

	cfg := writeAndLoad(t, "")
	assert.Equal(t, "env-token", cfg.GitHubToken)
}

func TestInitConfigExplicitMissingFile(t *testing.T) {
	resetViper(t)
	err := InitConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestThresholdsFallbacks(t *testing.T) {
	var c Config
	assert.Equal(t, qc.DefaultThresholds(), c.Thresholds())

	c.QC.SuspectMax = 0.2
	th := c.Thresholds()
	assert.Equal(t, 0.2, th.SuspectMax)
	assert.Equal(t, qc.DefaultThresholds().CoverageMin, th.CoverageMin)
}

// writeAndLoad initialises viper from a temp config file holding content
// (or from defaults only when content is empty) and unmarshals the result.
func writeAndLoad(t *testing.T, content string) *Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if content == "" {
		content = "{}"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, InitConfig(path))

	cfg, err := GetConfig()
	require.NoError(t, err)
	return cfg
}
