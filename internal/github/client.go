// Package github is the data source for the pipeline: a small GitHub
// REST v3 client that lists a repository's commit history, filters it to
// bug-keyword commits, and assembles the fixed commit-record schema the
// classifier consumes.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub REST API with token auth, request rate
// limiting, and retry on transient failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	maxRetries int
	verbose    bool
	logw       io.Writer
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the personal access token. Unauthenticated requests hit
// GitHub's anonymous rate limit almost immediately on real histories.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBaseURL overrides the API endpoint, e.g. for tests or GitHub
// Enterprise.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithVerbose logs each request to w.
func WithVerbose(w io.Writer) Option {
	return func(c *Client) { c.verbose = true; c.logw = w }
}

// NewClient builds a client with polite defaults: ~2 requests/second and
// up to 5 attempts per request.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(2), 5),
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if c.verbose && c.logw != nil {
			fmt.Fprintf(c.logw, "GET %s\n", endpoint)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("github request: %w", err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("User-Agent", "rmdqc/1.0")
		if c.token != "" {
			req.Header.Set("Authorization", "token "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil
		case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "rate limit"):
			if err := c.sleepUntilReset(ctx, resp.Header); err != nil {
				return nil, err
			}
			lastErr = fmt.Errorf("github: rate limited")
		case resp.StatusCode == http.StatusBadGateway,
			resp.StatusCode == http.StatusServiceUnavailable,
			resp.StatusCode == http.StatusGatewayTimeout:
			if err := sleepCtx(ctx, time.Duration(float64(attempt+1)*1.5*float64(time.Second))); err != nil {
				return nil, err
			}
			lastErr = fmt.Errorf("github: %s", resp.Status)
		default:
			return nil, fmt.Errorf("github: GET %s: %s", path, resp.Status)
		}
	}
	return nil, fmt.Errorf("github: GET %s: retries exhausted: %w", path, lastErr)
}

// sleepUntilReset waits for the rate-limit window to reset, capped at 90
// seconds so a skewed clock cannot stall the run.
func (c *Client) sleepUntilReset(ctx context.Context, h http.Header) error {
	wait := time.Minute
	if reset := h.Get("X-RateLimit-Reset"); reset != "" {
		if ts, err := strconv.ParseInt(reset, 10, 64); err == nil {
			until := time.Until(time.Unix(ts, 0)) + 2*time.Second
			if until > 5*time.Second {
				wait = until
			} else {
				wait = 5 * time.Second
			}
		}
	}
	if wait > 90*time.Second {
		wait = 90 * time.Second
	}
	return sleepCtx(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ListedCommit is one entry from the commit-list endpoint: enough to
// apply the bug-keyword filter before paying for the detail fetch.
type ListedCommit struct {
	SHA     string
	Message string
	Parents int
}

type listItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

// ListCommits pages through a repository's commit history, optionally
// bounded by since/until (ISO 8601).
func (c *Client) ListCommits(ctx context.Context, owner, repo, since, until string) ([]ListedCommit, error) {
	var out []ListedCommit
	for page := 1; ; page++ {
		params := url.Values{"per_page": {"100"}, "page": {strconv.Itoa(page)}}
		if since != "" {
			params.Set("since", since)
		}
		if until != "" {
			params.Set("until", until)
		}
		body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits", owner, repo), params)
		if err != nil {
			return nil, err
		}
		var items []listItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("github: decode commit list: %w", err)
		}
		if len(items) == 0 {
			return out, nil
		}
		for _, it := range items {
			out = append(out, ListedCommit{SHA: it.SHA, Message: it.Commit.Message, Parents: len(it.Parents)})
		}
	}
}

type commitDetail struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string     `json:"message"`
		Author    authorInfo `json:"author"`
		Committer authorInfo `json:"committer"`
	} `json:"commit"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
	Files []struct {
		Filename  string `json:"filename"`
		Patch     string `json:"patch"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
		Changes   int    `json:"changes"`
	} `json:"files"`
}

type authorInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

func (c *Client) commitDetail(ctx context.Context, owner, repo, sha string) (*commitDetail, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, sha), nil)
	if err != nil {
		return nil, err
	}
	var detail commitDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("github: decode commit %s: %w", sha, err)
	}
	return &detail, nil
}
