// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pdiddy/rs-harvester/internal/httputil"
	"github.com/pdiddy/rs-harvester/internal/quota"
)

// CommitSpan holds the author dates of the oldest and newest commit of a
// repository, as reported by the API (RFC 3339 strings).
type CommitSpan struct {
	First string
	Last  string
}

type commitEntry struct {
	Commit struct {
		Author struct {
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// FirstCommit derives the first and last commit dates of a repository. It
// requests the most recent commit on a single-entry page, then follows the
// rel="last" pagination link to reach the oldest commit; server errors on
// that follow-up are retried a bounded number of times with a fixed delay.
// A nil span means the timeline is unavailable (missing repository,
// single-page history without link metadata, or malformed commit JSON) and
// is not an error.
func (c *Client) FirstCommit(ctx context.Context, name string, remaining int) (*CommitSpan, int, error) {
	resp, rem, err := c.GetAPIResponse(ctx, CategoryCommit, name, remaining, "")
	if err != nil {
		return nil, rem, err
	}
	if resp == nil {
		return nil, rem, nil
	}

	lastURL := LastPage(resp.Header)
	if lastURL == "" {
		return nil, rem, nil
	}

	if err := c.quota.CheckAndWait(ctx, quota.PoolCore, rem); err != nil {
		return nil, rem, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lastURL, nil)
	if err != nil {
		return nil, rem, err
	}
	for k, vs := range c.headerRequest {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	first, err := httputil.DoWithRetry(ctx, c.http, req, 6)
	if err != nil {
		return nil, rem, err
	}
	defer first.Body.Close()

	if first.StatusCode != http.StatusOK {
		return nil, rem, nil
	}
	firstBody, err := io.ReadAll(first.Body)
	if err != nil {
		return nil, rem, err
	}

	lastDate, ok := commitDate(resp.Body)
	if !ok {
		return nil, rem, nil
	}
	firstDate, ok := commitDate(firstBody)
	if !ok {
		return nil, rem, nil
	}
	return &CommitSpan{First: firstDate, Last: lastDate}, rem, nil
}

// commitDate validates that body is an array-shaped commit listing and
// extracts commit.author.date from its first entry.
func commitDate(body []byte) (string, bool) {
	var entries []commitEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return "", false
	}
	if len(entries) == 0 || entries[0].Commit.Author.Date == "" {
		return "", false
	}
	return entries[0].Commit.Author.Date, true
}
