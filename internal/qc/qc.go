// Package qc validates per-repository classification quality against
// fixed thresholds and maps the aggregate metrics to a PASS/WARN/FAIL
// verdict.
package qc

import (
	"fmt"

	"github.com/rmdlab/rmdqc/internal/record"
)

// Verdict is the quality-gate outcome for one repository.
type Verdict string

const (
	Pass Verdict = "PASS"
	Warn Verdict = "WARN"
	Fail Verdict = "FAIL"
)

// Thresholds are the gate limits. All boundaries are inclusive on the
// passing side: a repository sitting exactly on every limit passes.
type Thresholds struct {
	CoverageMin        float64 `mapstructure:"coverage_min"`
	LowConfidenceMax   float64 `mapstructure:"low_confidence_max"`
	UnknownMax         float64 `mapstructure:"unknown_max"`
	SuspectMax         float64 `mapstructure:"suspect_max"`
	SuspectWarn        float64 `mapstructure:"suspect_warn"`
	LowConfidenceScore int     `mapstructure:"low_confidence_score"`
}

// DefaultThresholds returns the study's fixed gate limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CoverageMin:        0.85,
		LowConfidenceMax:   0.15,
		UnknownMax:         0.10,
		SuspectMax:         0.10,
		SuspectWarn:        0.02,
		LowConfidenceScore: 2,
	}
}

// Result is the per-repository QC aggregate. Computed fresh from the
// repository's classified commits; never mutated afterwards.
type Result struct {
	RepoOwner string
	RepoName  string
	Commits   int

	Coverage      float64
	LowConfidence float64
	Unknown       float64
	Suspects      float64

	Verdict Verdict
	Reasons []string
}

// Evaluate computes the QC metrics and verdict for one repository's
// classified commits. An empty commit set cannot be validated: it yields
// zero metrics and a FAIL verdict rather than a division error.
func Evaluate(owner, name string, commits []record.Classified, th Thresholds) Result {
	res := Result{RepoOwner: owner, RepoName: name, Commits: len(commits)}

	if len(commits) == 0 {
		res.Verdict = Fail
		res.Reasons = []string{"no classified commits"}
		return res
	}

	covered, lowConf, unknown, suspects := 0, 0, 0, 0
	for _, c := range commits {
		if c.Score > 0 {
			covered++
		}
		if c.Score <= th.LowConfidenceScore {
			lowConf++
		}
		if c.Score == 0 {
			unknown++
		}
		if c.IsSuspect {
			suspects++
		}
	}

	n := float64(len(commits))
	res.Coverage = float64(covered) / n
	res.LowConfidence = float64(lowConf) / n
	res.Unknown = float64(unknown) / n
	res.Suspects = float64(suspects) / n

	// First applicable rule wins: any hard limit breached means FAIL,
	// then the suspect warning band, then PASS.
	if res.Coverage < th.CoverageMin {
		res.Reasons = append(res.Reasons, fmt.Sprintf("coverage %.1f%% < %.0f%%", res.Coverage*100, th.CoverageMin*100))
	}
	if res.LowConfidence > th.LowConfidenceMax {
		res.Reasons = append(res.Reasons, fmt.Sprintf("low confidence %.1f%% > %.0f%%", res.LowConfidence*100, th.LowConfidenceMax*100))
	}
	if res.Unknown > th.UnknownMax {
		res.Reasons = append(res.Reasons, fmt.Sprintf("unknown %.1f%% > %.0f%%", res.Unknown*100, th.UnknownMax*100))
	}
	if res.Suspects > th.SuspectMax {
		res.Reasons = append(res.Reasons, fmt.Sprintf("suspects %.1f%% > %.0f%%", res.Suspects*100, th.SuspectMax*100))
	}
	if len(res.Reasons) > 0 {
		res.Verdict = Fail
		return res
	}

	if res.Suspects > th.SuspectWarn {
		res.Verdict = Warn
		res.Reasons = append(res.Reasons, fmt.Sprintf("suspects %.1f%% > %.0f%%", res.Suspects*100, th.SuspectWarn*100))
		return res
	}

	res.Verdict = Pass
	return res
}
