// Package config loads rmdqc settings from a YAML config file and the
// environment via viper. Everything has a working default; the config
// file is optional.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rmdlab/rmdqc/internal/qc"
)

// Config is the application configuration.
type Config struct {
	// GitHubToken authenticates fetch requests. Falls back to the
	// GITHUB_TOKEN / GITHUB_PAT environment variables.
	GitHubToken string `mapstructure:"github_token"`
	// BugKeywords overrides the built-in fetch-time keyword filter.
	BugKeywords []string `mapstructure:"bug_keywords"`
	// Workers caps the classification worker pool; 0 means one per CPU.
	Workers int `mapstructure:"workers"`
	// QC carries the quality-gate threshold overrides.
	QC qc.Thresholds `mapstructure:"qc"`
}

const (
	DefaultConfigName = "config"
	DefaultConfigDir  = "rmdqc"
	EnvPrefix         = "RMDQC"
)

// InitConfig wires viper: explicit file, or the default search path under
// the user config dir. A missing config file is not an error.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		base, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(base, DefaultConfigDir))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(DefaultConfigName)
		viper.SetConfigType("yaml")
	}

	th := qc.DefaultThresholds()
	viper.SetDefault("github_token", "")
	viper.SetDefault("bug_keywords", []string{})
	viper.SetDefault("workers", 0)
	viper.SetDefault("qc.coverage_min", th.CoverageMin)
	viper.SetDefault("qc.low_confidence_max", th.LowConfidenceMax)
	viper.SetDefault("qc.unknown_max", th.UnknownMax)
	viper.SetDefault("qc.suspect_max", th.SuspectMax)
	viper.SetDefault("qc.suspect_warn", th.SuspectWarn)
	viper.SetDefault("qc.low_confidence_score", th.LowConfidenceScore)

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// The conventional token variables take effect without the prefix.
	_ = viper.BindEnv("github_token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN", "GITHUB_PAT")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if cfgFile != "" {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// GetConfig resolves the current configuration.
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Thresholds returns the configured QC gate limits, with defaults for
// anything unset.
func (c *Config) Thresholds() qc.Thresholds {
	th := c.QC
	def := qc.DefaultThresholds()
	if th.CoverageMin == 0 {
		th.CoverageMin = def.CoverageMin
	}
	if th.LowConfidenceMax == 0 {
		th.LowConfidenceMax = def.LowConfidenceMax
	}
	if th.UnknownMax == 0 {
		th.UnknownMax = def.UnknownMax
	}
	if th.SuspectMax == 0 {
		th.SuspectMax = def.SuspectMax
	}
	if th.SuspectWarn == 0 {
		th.SuspectWarn = def.SuspectWarn
	}
	if th.LowConfidenceScore == 0 {
		th.LowConfidenceScore = def.LowConfidenceScore
	}
	return th
}
