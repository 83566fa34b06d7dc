// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/rs-harvester/internal/quota"
)

// newTestClient wires a client and tracker to a test server that also
// serves a well-stocked rate-limit endpoint.
func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	t.Helper()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resources":{"search":{"remaining":30,"reset":0},"core":{"remaining":5000,"reset":0}}}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	tracker := quota.NewTracker(ts.Client(), ts.URL+"/rate_limit", nil, true, nil)
	return NewClient(ts.Client(), tracker, ts.URL, "test-token"), ts
}

func TestSearchBuildsURL(t *testing.T) {
	var gotURI, gotAuth, gotAccept string
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"total_count":1,"items":[{"id":7,"full_name":"org/repo"}]}`))
	})
	c, _ := newTestClient(t, mux)

	resp, err := c.Search(context.Background(), 10, "", "fmri", "2020-01-01..2020-01-31")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp == nil {
		t.Fatal("Search() returned nil response")
	}

	want := "/search/repositories?q=fmri+created:2020-01-01..2020-01-31&per_page=100"
	if gotURI != want {
		t.Errorf("request URI = %q, want %q", gotURI, want)
	}
	if gotAuth != "token test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", gotAccept)
	}

	var result SearchResult
	if err := resp.JSON(&result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].FullName != "org/repo" {
		t.Errorf("unexpected items: %+v", result.Items)
	}
}

func TestSearchCursorUsedVerbatim(t *testing.T) {
	var gotURI string
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.Write([]byte(`{"items":[]}`))
	})
	c, ts := newTestClient(t, mux)

	cursor := ts.URL + "/search/repositories?q=fmri&page=3"
	if _, err := c.Search(context.Background(), 10, cursor, "ignored", "ignored"); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotURI != "/search/repositories?q=fmri&page=3" {
		t.Errorf("request URI = %q, want the cursor query", gotURI)
	}
}

func TestSearchFollowsRedirectOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/moved", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_count":3,"items":[]}`))
	})
	c, _ := newTestClient(t, mux)

	resp, err := c.Search(context.Background(), 10, "", "term", "2020-01-01..2020-01-02")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp == nil {
		t.Fatal("Search() returned nil after redirect")
	}
	var result SearchResult
	if err := resp.JSON(&result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.TotalCount != 3 {
		t.Errorf("total_count = %d, want 3 from redirect target", result.TotalCount)
	}
}

func TestSearchNon200IsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	c, _ := newTestClient(t, mux)

	resp, err := c.Search(context.Background(), 10, "", "term", "2020-01-01..2020-01-02")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp != nil {
		t.Errorf("Search() = %+v, want nil for non-200", resp)
	}
}

func TestGetAPIResponseEndpoints(t *testing.T) {
	tests := []struct {
		category Category
		name     string
		wantURI  string
	}{
		{CategoryUser, "alice", "/users/alice/repos"},
		{CategoryMetadata, "org/repo", "/repos/org/repo"},
		{CategoryContent, "org/repo", "/repos/org/repo/contents"},
		{CategoryCommit, "org/repo", "/repos/org/repo/commits?per_page=1"},
		{CategoryReadme, "12345", "/repositories/12345/readme"},
		{CategoryLanguage, "org/repo", "/repos/org/repo/languages"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			var gotURI string
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				gotURI = r.URL.RequestURI()
				w.Header().Set("X-Ratelimit-Remaining", "42")
				w.Write([]byte(`{}`))
			})
			c, _ := newTestClient(t, mux)

			resp, rem, err := c.GetAPIResponse(context.Background(), tt.category, tt.name, 10, "")
			if err != nil {
				t.Fatalf("GetAPIResponse() error: %v", err)
			}
			if resp == nil {
				t.Fatal("GetAPIResponse() returned nil response")
			}
			if gotURI != tt.wantURI {
				t.Errorf("request URI = %q, want %q", gotURI, tt.wantURI)
			}
			if rem != 42 {
				t.Errorf("remaining = %d, want 42 from header", rem)
			}
		})
	}
}

func TestGetAPIResponseReadmeMediaType(t *testing.T) {
	var gotAccept string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("# Title\n\ndoi:10.5281/zenodo.1234"))
	})
	c, _ := newTestClient(t, mux)

	resp, _, err := c.GetAPIResponse(context.Background(), CategoryReadme, "12345", 10, "")
	if err != nil {
		t.Fatalf("GetAPIResponse() error: %v", err)
	}
	if gotAccept != "application/vnd.github.v3.raw" {
		t.Errorf("Accept = %q, want raw media type", gotAccept)
	}
	if string(resp.Body) != "# Title\n\ndoi:10.5281/zenodo.1234" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestGetAPIResponseExplicitURL(t *testing.T) {
	var gotURI string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.Write([]byte(`[]`))
	})
	c, ts := newTestClient(t, mux)

	_, _, err := c.GetAPIResponse(context.Background(), CategoryUser, "alice", 10, ts.URL+"/users/alice/repos?page=2")
	if err != nil {
		t.Fatalf("GetAPIResponse() error: %v", err)
	}
	if gotURI != "/users/alice/repos?page=2" {
		t.Errorf("request URI = %q, want the explicit page URL", gotURI)
	}
}

func TestGetAPIResponseFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/org/old", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "99")
		http.Redirect(w, r, "/repos/org/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/repos/org/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "98")
		w.Write([]byte(`{"full_name":"org/new"}`))
	})
	c, _ := newTestClient(t, mux)

	resp, rem, err := c.GetAPIResponse(context.Background(), CategoryMetadata, "org/old", 10, "")
	if err != nil {
		t.Fatalf("GetAPIResponse() error: %v", err)
	}
	if resp == nil {
		t.Fatal("GetAPIResponse() returned nil after redirect")
	}
	var repo Repo
	if err := resp.JSON(&repo); err != nil {
		t.Fatalf("decoding repo: %v", err)
	}
	if repo.FullName != "org/new" {
		t.Errorf("full_name = %q, want the redirect target's document", repo.FullName)
	}
	if rem != 98 {
		t.Errorf("remaining = %d, want 98 from the final response", rem)
	}
}

func TestGetAPIResponseNon200IsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "17")
		w.WriteHeader(http.StatusNotFound)
	})
	c, _ := newTestClient(t, mux)

	resp, rem, err := c.GetAPIResponse(context.Background(), CategoryMetadata, "org/gone", 10, "")
	if err != nil {
		t.Fatalf("GetAPIResponse() error: %v", err)
	}
	if resp != nil {
		t.Errorf("response = %+v, want nil for 404", resp)
	}
	if rem != 17 {
		t.Errorf("remaining = %d, want 17 from header", rem)
	}
}

func TestGetAPIResponseMissingQuotaHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	c, _ := newTestClient(t, mux)

	_, rem, err := c.GetAPIResponse(context.Background(), CategoryMetadata, "org/repo", 10, "")
	if err != nil {
		t.Fatalf("GetAPIResponse() error: %v", err)
	}
	if rem != quota.UnknownRemaining {
		t.Errorf("remaining = %d, want unknown sentinel without the header", rem)
	}
}

func TestGetAPIResponseUnknownCategory(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux())
	_, _, err := c.GetAPIResponse(context.Background(), Category("bogus"), "org/repo", 10, "")
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
}
