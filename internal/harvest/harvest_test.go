// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/pdiddy/rs-harvester/internal/github"
	"github.com/pdiddy/rs-harvester/internal/quota"
	"github.com/pdiddy/rs-harvester/internal/store"
	"github.com/pdiddy/rs-harvester/pkg/types"
)

func init() {
	// Politeness delays are calibrated for the live API, not for tests.
	sleep = func(ctx context.Context, d time.Duration) error { return nil }
}

type fakeLedger struct {
	done map[string]bool
}

func newFakeLedger() *fakeLedger { return &fakeLedger{done: map[string]bool{}} }

func (f *fakeLedger) Done(term, window string) (bool, error) {
	return f.done[term+"|"+window], nil
}

func (f *fakeLedger) MarkDone(term, window string) error {
	f.done[term+"|"+window] = true
	return nil
}

// newTestRunner serves the mux plus a well-stocked rate-limit endpoint and
// wires a runner against it. The returned base URL lets handlers build
// absolute pagination links.
func newTestRunner(t *testing.T, mux *http.ServeMux, cfg types.HarvestConfig, ledger Checkpoints) (*Runner, store.DocumentStore, string) {
	t.Helper()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resources":{"search":{"remaining":30,"reset":0},"core":{"remaining":5000,"reset":0}}}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	tracker := quota.NewTracker(ts.Client(), ts.URL+"/rate_limit", nil, true, nil)
	client := github.NewClient(ts.Client(), tracker, ts.URL, "tok")

	docs := store.OpenMemory()
	names := types.CollectionNames{
		Repositories:   "repositories",
		RsRepositories: "rs_repositories",
		Publications:   "rs_publications",
	}
	return NewRunner(client, store.New(docs, names), ledger, cfg, nil), docs, ts.URL
}

func singleDayConfig(enrich bool) types.HarvestConfig {
	return types.HarvestConfig{
		SearchTerms: []string{"fmri"},
		Start:       "2020-01-01",
		End:         "2020-01-01",
		Interval:    "daily",
		Enrich:      enrich,
		Group:       "keyword_search",
	}
}

func TestRunHarvestsAndCheckpoints(t *testing.T) {
	var searchCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		w.Write([]byte(`{"total_count":2,"items":[
			{"id":1,"full_name":"org/alpha","language":"Python"},
			{"id":2,"full_name":"org/beta","language":"R"}]}`))
	})
	ledger := newFakeLedger()
	runner, docs, _ := newTestRunner(t, mux, singleDayConfig(false), ledger)

	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 1, searchCalls)

	n, err := docs.Count(context.Background(), "repositories", bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	doc, err := docs.FindOne(context.Background(), "repositories", bson.M{"id": int64(1)})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, []any{"fmri"}, doc["keywords"])
	assert.Equal(t, "github", doc["source"])

	// A second pass finds the window checkpointed and spends no quota.
	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 1, searchCalls)
}

func TestRunPaginatesSearch(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.Write([]byte(`{"total_count":2,"items":[{"id":2,"full_name":"org/beta"}]}`))
			return
		}
		next := base + "/search/repositories?q=fmri&page=2"
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="last"`, next, next))
		w.Header().Set("X-Ratelimit-Remaining", "29")
		w.Write([]byte(`{"total_count":2,"items":[{"id":1,"full_name":"org/alpha"}]}`))
	})
	runner, docs, url := newTestRunner(t, mux, singleDayConfig(false), newFakeLedger())
	base = url

	require.NoError(t, runner.Run(context.Background()))

	n, err := docs.Count(context.Background(), "repositories", bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "both pages must be persisted")
}

func TestRunPausesAfterEverySearchCall(t *testing.T) {
	var pauses, searchCalls int
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		pauses++
		return nil
	}
	t.Cleanup(func() { sleep = orig })

	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		w.Write([]byte(`{"total_count":1,"items":[{"id":1,"full_name":"org/alpha"}]}`))
	})
	cfg := singleDayConfig(false)
	cfg.End = "2020-01-02"
	runner, _, _ := newTestRunner(t, mux, cfg, newFakeLedger())

	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 2, searchCalls, "one single-page search per daily window")
	assert.Equal(t, searchCalls, pauses,
		"back-to-back windows must not skip the pause after a window's last page")
}

func TestRunSkipsWindowWithoutData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	ledger := newFakeLedger()
	runner, docs, _ := newTestRunner(t, mux, singleDayConfig(false), ledger)

	require.NoError(t, runner.Run(context.Background()), "a dataless window must not abort the pass")

	n, err := docs.Count(context.Background(), "repositories", bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	done, err := ledger.Done("fmri", "2020-01-01")
	require.NoError(t, err)
	assert.True(t, done, "the window still completes")
}

func TestRunEnrichesResearchSoftware(t *testing.T) {
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_count":2,"items":[
			{"id":1,"full_name":"org/alpha","description":"analysis toolkit"},
			{"id":2,"full_name":"org/beta","language":"R"}]}`))
	})
	mux.HandleFunc("/repos/org/alpha/contents", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "400")
		w.Write([]byte(`[{"name":"README.md"},{"name":"main.py"}]`))
	})
	mux.HandleFunc("/repos/org/beta/contents", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "400")
		w.Write([]byte(`[{"name":"README.md"},{"name":"LICENSE"}]`))
	})
	mux.HandleFunc("/repos/org/alpha/commits", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "399")
		if r.URL.Query().Get("page") == "40" {
			w.Write([]byte(`[{"commit":{"author":{"date":"2018-01-01T00:00:00Z"}}}]`))
			return
		}
		last := base + "/repos/org/alpha/commits?per_page=1&page=40"
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="last"`, last))
		w.Write([]byte(`[{"commit":{"author":{"date":"2021-01-01T00:00:00Z"}}}]`))
	})
	mux.HandleFunc("/repositories/1/readme", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "398")
		w.Write([]byte("# alpha\n\nCite us: 10.5281/zenodo.4242 thanks"))
	})
	mux.HandleFunc("/repos/org/alpha/languages", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "397")
		w.Write([]byte(`{"Python":1000,"Shell":10}`))
	})

	runner, docs, url := newTestRunner(t, mux, singleDayConfig(true), newFakeLedger())
	base = url

	require.NoError(t, runner.Run(context.Background()))
	ctx := context.Background()

	// org/alpha became a research-software record with the readme DOI.
	rs, err := docs.FindOne(ctx, "rs_repositories", bson.M{"id": int64(1)})
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, "org/alpha", rs["full_name"])
	assert.Equal(t, []any{"keyword_search"}, rs["group"])
	assert.Equal(t, "Python", rs["language"])
	assert.Equal(t, []any{bson.M{"id": "10.5281/zenodo.4242", "mode": "doi"}}, rs["references"])

	// org/beta is boilerplate-only and stays unclassified.
	n, err := docs.Count(ctx, "rs_repositories", bson.M{"id": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// The publication is keyed by the DOI and linked back to the repo.
	pub, err := docs.FindOne(ctx, "rs_publications", bson.M{"identifier.id": "10.5281/zenodo.4242"})
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.Equal(t, []any{"org/alpha"}, pub["repos"])

	// The commit timeline landed on the harvested repository record.
	repo, err := docs.FindOne(ctx, "repositories", bson.M{"id": int64(1)})
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "2018-01-01T00:00:00Z", repo["first_commit"])
	assert.Equal(t, "2021-01-01T00:00:00Z", repo["last_commit"])
}
