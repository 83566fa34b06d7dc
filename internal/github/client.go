// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package github issues the rate-limited, paginated GitHub REST calls of a
// harvesting pass: keyword searches over date windows, and the categorized
// core endpoints used to enrich individual repositories. Every method
// consults the quota tracker before touching the network, and every
// non-200, non-redirect response surfaces as a nil result the caller skips
// over rather than crashing on.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/pdiddy/rs-harvester/internal/quota"
)

const (
	searchInfix = "search/repositories?q="
	// created-interval element of a search query
	searchCreated = "+created:"
	// number of results per search page
	searchSuffix = "&per_page=100"
)

// Client calls the GitHub REST API on behalf of the harvesting loop.
type Client struct {
	http    *http.Client
	quota   *quota.Tracker
	baseURL string

	// headerRequest asks for the v3 JSON media type; headerReadme asks for
	// raw readme content. Both carry the token when one is configured.
	headerRequest http.Header
	headerReadme  http.Header
}

// NewClient returns a client rooted at baseURL ("https://api.github.com"
// in production, an httptest server in tests). Redirects are not followed
// automatically; the client follows a 3xx Location exactly once per call,
// as the pagination contract requires.
func NewClient(hc *http.Client, tracker *quota.Tracker, baseURL, token string) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	// Copy so the redirect policy does not leak into the caller's client.
	c := *hc
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	headerRequest := http.Header{}
	headerRequest.Set("Accept", "application/vnd.github.v3+json")
	headerReadme := http.Header{}
	headerReadme.Set("Accept", "application/vnd.github.v3.raw")
	if token != "" {
		headerRequest.Set("Authorization", "token "+token)
		headerReadme.Set("Authorization", "token "+token)
	}

	return &Client{
		http:          &c,
		quota:         tracker,
		baseURL:       baseURL,
		headerRequest: headerRequest,
		headerReadme:  headerReadme,
	}
}

// Quota exposes the tracker so the harvesting loop can apply the per-pool
// politeness delays between calls.
func (c *Client) Quota() *quota.Tracker { return c.quota }

// Search performs one logical search call. With an empty cursor the URL is
// built from the term and the date window; otherwise the cursor is used
// verbatim (it already encodes the full next-page query). The search pool
// is checked first. A nil response means "no results for this call" and
// must not abort the pass.
func (c *Client) Search(ctx context.Context, remaining int, cursor, term, window string) (*Response, error) {
	url := cursor
	if url == "" {
		url = c.baseURL + "/" + searchInfix + term + searchCreated + window + searchSuffix
	}

	if err := c.quota.CheckAndWait(ctx, quota.PoolSearch, remaining); err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, url, c.headerRequest)
	if err != nil {
		return nil, err
	}

	if isRedirect(resp.StatusCode) {
		next := resp.Header.Get("Location")
		return c.get(ctx, next, c.headerRequest)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return resp, nil
}

// GetAPIResponse requests one core-pool endpoint. category selects the
// endpoint shape; an explicit url overrides construction and is used for
// pagination continuations. The second return value is the remaining core
// quota read from the response headers, fed back into the next call's
// remaining hint. A nil response with a nil error means no data is
// available this round.
func (c *Client) GetAPIResponse(ctx context.Context, category Category, name string, remaining int, url string) (*Response, int, error) {
	if err := c.quota.CheckAndWait(ctx, quota.PoolCore, remaining); err != nil {
		return nil, remaining, err
	}

	header := c.headerRequest
	if category == CategoryReadme {
		header = c.headerReadme
	}
	apiURL := url
	if apiURL == "" {
		apiURL = c.coreURL(category, name)
	}
	if apiURL == "" {
		return nil, remaining, fmt.Errorf("unknown api category %q", category)
	}

	resp, err := c.get(ctx, apiURL, header)
	if err != nil {
		return nil, remaining, err
	}

	if isRedirect(resp.StatusCode) {
		// Re-check the pool with the quota the redirect response reports
		// before spending another request on the Location follow-up.
		if err := c.quota.CheckAndWait(ctx, quota.PoolCore, RemainingQuota(resp.Header)); err != nil {
			return nil, RemainingQuota(resp.Header), err
		}
		next, err := c.get(ctx, resp.Header.Get("Location"), header)
		if err != nil {
			return nil, RemainingQuota(resp.Header), err
		}
		return next, RemainingQuota(next.Header), nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, RemainingQuota(resp.Header), nil
	}
	return resp, RemainingQuota(resp.Header), nil
}

// coreURL constructs the endpoint for a category, or "" for an unknown one.
func (c *Client) coreURL(category Category, name string) string {
	switch category {
	case CategoryUser:
		return c.baseURL + "/users/" + name + "/repos"
	case CategoryMetadata:
		return c.baseURL + "/repos/" + name
	case CategoryContent:
		return c.baseURL + "/repos/" + name + "/contents"
	case CategoryCommit:
		return c.baseURL + "/repos/" + name + "/commits?per_page=1"
	case CategoryReadme:
		return c.baseURL + "/repositories/" + name + "/readme"
	case CategoryLanguage:
		return c.baseURL + "/repos/" + name + "/languages"
	}
	return ""
}

// get performs a single GET and reads the full body.
func (c *Client) get(ctx context.Context, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// RemainingQuota reads the X-Ratelimit-Remaining header, falling back to
// the unknown sentinel when the header is absent or malformed.
func RemainingQuota(h http.Header) int {
	n, err := strconv.Atoi(h.Get("X-Ratelimit-Remaining"))
	if err != nil {
		return quota.UnknownRemaining
	}
	return n
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect:
		return true
	}
	return false
}
