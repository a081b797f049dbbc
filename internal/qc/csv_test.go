package qc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryRoundTrip(t *testing.T) {
	in := []Result{
		{
			RepoOwner: "octocat", RepoName: "rmd-book", Commits: 120,
			Coverage: 0.9167, LowConfidence: 0.05, Unknown: 0.0833, Suspects: 0.0167,
			Verdict: Pass,
		},
		{
			RepoOwner: "octocat", RepoName: "slides", Commits: 40,
			Coverage: 0.75, LowConfidence: 0.2, Unknown: 0.25, Suspects: 0.15,
			Verdict: Fail,
			Reasons: []string{"coverage 75.0% < 85%", "suspects 15.0% > 10%"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, in))

	out, err := ReadSummary(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "rmd-book", out[0].RepoName)
	assert.Equal(t, 120, out[0].Commits)
	assert.InDelta(t, 0.9167, out[0].Coverage, 1e-9)
	assert.Equal(t, Pass, out[0].Verdict)
	assert.Empty(t, out[0].Reasons)

	assert.Equal(t, Fail, out[1].Verdict)
	assert.Equal(t, in[1].Reasons, out[1].Reasons)
}

func TestReadSummaryRejectsInvalidVerdict(t *testing.T) {
	csv := strings.Join([]string{
		"repo_owner,repo_name,n_commits,coverage,low_confidence_rate,unknown_rate,suspect_rate,verdict,reasons",
		"octocat,rmd-book,10,1.0000,0.0000,0.0000,0.0000,MAYBE,",
	}, "\n")

	_, err := ReadSummary(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verdict")
}

func TestSortResults(t *testing.T) {
	results := []Result{
		{RepoName: "clean-pass", Verdict: Pass, Coverage: 0.99, Suspects: 0.0},
		{RepoName: "low-coverage-fail", Verdict: Fail, Coverage: 0.70, Suspects: 0.01},
		{RepoName: "suspect-warn", Verdict: Warn, Coverage: 0.95, Suspects: 0.05},
		{RepoName: "suspect-fail", Verdict: Fail, Coverage: 0.90, Suspects: 0.20},
		{RepoName: "shaky-pass", Verdict: Pass, Coverage: 0.86, Suspects: 0.0},
	}

	SortResults(results)

	order := make([]string, len(results))
	for i, r := range results {
		order[i] = r.RepoName
	}
	assert.Equal(t, []string{
		"suspect-fail", "low-coverage-fail", "suspect-warn", "shaky-pass", "clean-pass",
	}, order)
}
