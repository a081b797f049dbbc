package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestListCommitsPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octocat/rmd-book/commits" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`[
				{"sha":"aaa","commit":{"message":"fix legend"},"parents":[{"sha":"p1"}]},
				{"sha":"bbb","commit":{"message":"Merge branch main"},"parents":[{"sha":"p1"},{"sha":"p2"}]}
			]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	listed, err := c.ListCommits(context.Background(), "octocat", "rmd-book", "", "")
	if err != nil {
		t.Fatalf("ListCommits failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("got %d commits, want 2", len(listed))
	}
	if listed[0].SHA != "aaa" || listed[0].Parents != 1 {
		t.Errorf("first commit = %+v", listed[0])
	}
	if listed[1].Parents != 2 {
		t.Errorf("merge parents = %d, want 2", listed[1].Parents)
	}
}

func TestListCommitsSendsBounds(t *testing.T) {
	var gotSince, gotUntil string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSince = r.URL.Query().Get("since")
		gotUntil = r.URL.Query().Get("until")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.ListCommits(context.Background(), "o", "r", "2020-01-01T00:00:00Z", "2021-01-01T00:00:00Z"); err != nil {
		t.Fatalf("ListCommits failed: %v", err)
	}
	if gotSince != "2020-01-01T00:00:00Z" || gotUntil != "2021-01-01T00:00:00Z" {
		t.Errorf("since=%q until=%q", gotSince, gotUntil)
	}
}

func TestGetSendsAuthHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithToken("secret"))
	if _, err := c.ListCommits(context.Background(), "o", "r", "", ""); err != nil {
		t.Fatalf("ListCommits failed: %v", err)
	}
	if auth != "token secret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestGetRetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.ListCommits(context.Background(), "o", "r", "", ""); err != nil {
		t.Fatalf("ListCommits failed after retry: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("server saw %d calls, want 2", calls)
	}
}

func TestGetFailsFastOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.ListCommits(context.Background(), "o", "gone", "", ""); err == nil {
		t.Fatal("ListCommits succeeded against a 404")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on 404)", calls)
	}
}
