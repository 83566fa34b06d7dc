// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv harvests publication metadata from the arXiv Atom API and
// persists one record per publication.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/rs-harvester/internal/quota"
	"github.com/pdiddy/rs-harvester/pkg/types"
)

// apiBase is the arXiv search endpoint. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query?search_query=all:"

// PublicationStore is the persistence surface the harvest needs.
type PublicationStore interface {
	HasPublication(ctx context.Context, arxivID string) (bool, error)
	SavePublication(ctx context.Context, pub types.Publication) error
}

// Harvester pages through arXiv search results. The API caps a single
// call at 2000 entries and asks for no more than one request every three
// seconds, so pages are requested sequentially with a pause in between.
type Harvester struct {
	client *http.Client
	store  PublicationStore
	logger *log.Logger

	start    int
	pageSize int
	wait     time.Duration
}

// NewHarvester returns a harvester configured per cfg, persisting into
// store. Zero-valued config fields fall back to their defaults.
func NewHarvester(client *http.Client, store PublicationStore, cfg types.ArxivConfig, logger *log.Logger) *Harvester {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	wait := cfg.Wait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &Harvester{
		client:   client,
		store:    store,
		logger:   logger,
		start:    cfg.Start,
		pageSize: pageSize,
		wait:     wait,
	}
}

// Harvest pages through every publication matching the query and saves
// the ones not yet on record. The result count is read from a one-entry
// probe call before paging starts.
func (h *Harvester) Harvest(ctx context.Context, query string) error {
	probe, err := h.fetch(ctx, query, 0, 1)
	if err != nil {
		return err
	}
	total := probe.TotalResults
	h.logger.Info("starting arXiv harvest", "query", query, "total", total)
	if err := quota.Sleep(ctx, h.wait); err != nil {
		return err
	}

	for i := h.start; i < total; i += h.pageSize {
		feed, err := h.fetch(ctx, query, i, h.pageSize)
		if err != nil {
			return err
		}
		h.logger.Info("harvested page", "from", i, "entries", len(feed.Entries))

		for _, entry := range feed.Entries {
			pub := entry.publication()
			if pub.ArxivID == "" {
				continue
			}
			seen, err := h.store.HasPublication(ctx, pub.ArxivID)
			if err != nil {
				return err
			}
			if seen {
				continue
			}
			if err := h.store.SavePublication(ctx, pub); err != nil {
				return err
			}
		}

		if err := quota.Sleep(ctx, h.wait); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harvester) fetch(ctx context.Context, query string, start, maxResults int) (*feed, error) {
	url := fmt.Sprintf("%s%s&start=%d&max_results=%d", apiBase, query, start, maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating arXiv request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &f, nil
}

// arXiv Atom feed XML structures.
type feed struct {
	TotalResults int     `xml:"totalResults"`
	Entries      []entry `xml:"entry"`
}

type entry struct {
	ID         string     `xml:"id"`
	Title      string     `xml:"title"`
	Published  string     `xml:"published"`
	Updated    string     `xml:"updated"`
	Summary    string     `xml:"summary"`
	Comment    string     `xml:"comment"`
	JournalRef string     `xml:"journal_ref"`
	Links      []link     `xml:"link"`
	Categories []category `xml:"category"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type category struct {
	Term string `xml:"term,attr"`
}

// publication flattens one feed entry into its stored record form.
func (e entry) publication() types.Publication {
	pub := types.Publication{
		Source:        "arxiv",
		RequestDate:   time.Now(),
		ArxivID:       extractID(e.ID),
		Title:         strings.TrimSpace(e.Title),
		Published:     e.Published,
		Updated:       e.Updated,
		URL:           e.ID,
		Summary:       strings.TrimSpace(e.Summary),
		SummaryDetail: strings.TrimSpace(e.Summary),
		Comment:       strings.TrimSpace(e.Comment),
		JournalRef:    e.JournalRef,
	}
	if pub.JournalRef == "" {
		pub.JournalRef = "No journal ref found"
	}

	for _, l := range e.Links {
		switch l.Title {
		case "pdf":
			pub.PDFURL = l.Href
		case "doi":
			pub.DOIURL = l.Href
			if _, after, found := strings.Cut(l.Href, "doi.org/"); found {
				pub.DOI = after
			}
		}
	}

	terms := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		terms = append(terms, c.Term)
	}
	if len(terms) > 0 {
		pub.PrimaryCategory = terms[0]
	}
	pub.AllCategories = strings.Join(terms, ", ")

	return pub
}

// extractID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041v1").
func extractID(idURL string) string {
	const prefix = "arxiv.org/abs/"
	idx := strings.LastIndex(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}
