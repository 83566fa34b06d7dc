// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest drives a full harvesting pass: for every search term and
// every date window of the configured period it pages through the search
// results, persists each hit, and optionally enriches hits with content
// classification, commit timeline, readme DOI extraction, and language
// lookup. Completed (term, window) pairs are checkpointed so an
// interrupted pass resumes behind the last finished window.
package harvest

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/rs-harvester/internal/github"
	"github.com/pdiddy/rs-harvester/internal/interval"
	"github.com/pdiddy/rs-harvester/internal/quota"
	"github.com/pdiddy/rs-harvester/internal/reference"
	"github.com/pdiddy/rs-harvester/pkg/types"
)

// sleep pauses between API calls. Declared as a var so tests skip the
// politeness delays.
var sleep = quota.Sleep

const source = "github"

// RecordStore is the persistence surface of a pass.
type RecordStore interface {
	UpsertRepository(ctx context.Context, repo github.Repo, keyword, source string, date time.Time) error
	UpsertRsRepo(ctx context.Context, id int64, name string, refs []types.ReferenceEntry, source, group, language string) error
	UpsertPublication(ctx context.Context, refs []types.ReferenceEntry, repoName string) error
	SetCommitDates(ctx context.Context, id int64, first, last string) error
}

// Checkpoints records which (term, window) pairs are fully processed.
type Checkpoints interface {
	Done(term, window string) (bool, error)
	MarkDone(term, window string) error
}

// Runner executes one harvesting pass.
type Runner struct {
	client *github.Client
	store  RecordStore
	ledger Checkpoints
	logger *log.Logger
	cfg    types.HarvestConfig
}

// NewRunner wires a pass from its collaborators.
func NewRunner(client *github.Client, store RecordStore, ledger Checkpoints, cfg types.HarvestConfig, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		client: client,
		store:  store,
		ledger: ledger,
		logger: logger,
		cfg:    cfg,
	}
}

// Run harvests every configured term over every window of the period.
// Windows already checkpointed for a term are skipped.
func (r *Runner) Run(ctx context.Context) error {
	granularity, err := interval.ParseGranularity(r.cfg.Interval)
	if err != nil {
		return err
	}

	for _, term := range r.cfg.SearchTerms {
		gen, err := interval.New(r.cfg.Start, r.cfg.End, granularity, time.Now())
		if err != nil {
			if errors.Is(err, interval.ErrInvalidRange) {
				r.logger.Warn("search period yields no windows", "term", term,
					"start", r.cfg.Start, "end", r.cfg.End)
				return nil
			}
			return err
		}

		for {
			window, ok := gen.Next()
			if !ok {
				break
			}
			done, err := r.ledger.Done(term, window)
			if err != nil {
				return err
			}
			if done {
				r.logger.Debug("window already harvested", "term", term, "window", window)
				continue
			}

			if err := r.harvestWindow(ctx, term, window); err != nil {
				return err
			}
			if err := r.ledger.MarkDone(term, window); err != nil {
				return err
			}
		}
	}
	return nil
}

// harvestWindow pages through one (term, window) search and persists every
// hit. The remaining-quota hint from each page's headers feeds the next
// page's rate check.
func (r *Runner) harvestWindow(ctx context.Context, term, window string) error {
	cursor := ""
	remaining := quota.UnknownRemaining

	for {
		resp, err := r.client.Search(ctx, remaining, cursor, term, window)
		if err != nil {
			return err
		}
		// One politeness delay per search call, the window's last page
		// included, so consecutive windows and terms keep the pool's pace.
		if err := sleep(ctx, r.client.Quota().SearchDelay()); err != nil {
			return err
		}
		if resp == nil {
			r.logger.Warn("search returned no data", "term", term, "window", window)
			return nil
		}

		var page github.SearchResult
		if err := resp.JSON(&page); err != nil {
			r.logger.Warn("skipping unparseable search page", "term", term,
				"window", window, "err", err)
			return nil
		}
		r.logger.Info("harvested search page", "term", term, "window", window,
			"hits", len(page.Items), "total", page.TotalCount)

		date := time.Now()
		for _, repo := range page.Items {
			if err := r.store.UpsertRepository(ctx, repo, term, source, date); err != nil {
				return err
			}
			if r.cfg.Enrich {
				if err := r.enrich(ctx, repo); err != nil {
					return err
				}
			}
		}

		cursor = github.NextPage(resp.Header)
		if cursor == "" {
			return nil
		}
		remaining = github.RemainingQuota(resp.Header)
	}
}

// enrich runs the core-pool follow-ups for one search hit. Repositories
// whose content listing shows no source code are left unclassified; the
// rest gain a commit timeline and, when the readme or description carries
// a DOI, a research-software record linked to its publications.
func (r *Runner) enrich(ctx context.Context, repo github.Repo) error {
	noSource, rem, err := r.client.HasNoSourceCode(ctx, repo.FullName, quota.UnknownRemaining)
	if err != nil {
		return err
	}
	if err := sleep(ctx, r.client.Quota().CoreDelay()); err != nil {
		return err
	}
	if noSource {
		r.logger.Debug("no source code", "repo", repo.FullName)
		return nil
	}

	span, rem, err := r.client.FirstCommit(ctx, repo.FullName, rem)
	if err != nil {
		return err
	}
	if err := sleep(ctx, r.client.Quota().CoreDelay()); err != nil {
		return err
	}
	if span != nil {
		if err := r.store.SetCommitDates(ctx, repo.ID, span.First, span.Last); err != nil {
			return err
		}
	}

	readme, rem, err := r.client.GetAPIResponse(ctx, github.CategoryReadme,
		strconv.FormatInt(repo.ID, 10), rem, "")
	if err != nil {
		return err
	}
	if err := sleep(ctx, r.client.Quota().CoreDelay()); err != nil {
		return err
	}

	text := repo.Description
	if readme != nil {
		text += "\n" + string(readme.Body)
	}
	dois := dedupe(reference.ExtractDOIs(text))
	if len(dois) == 0 {
		return nil
	}

	language := repo.Language
	if language == "" {
		language, _, err = r.dominantLanguage(ctx, repo.FullName, rem)
		if err != nil {
			return err
		}
	}

	refs := make([]types.ReferenceEntry, 0, len(dois))
	for _, doi := range dois {
		refs = append(refs, types.ReferenceEntry{ID: doi, Mode: types.RefDOI})
	}
	if err := r.store.UpsertRsRepo(ctx, repo.ID, repo.FullName, refs, source, r.cfg.Group, language); err != nil {
		return err
	}
	return r.store.UpsertPublication(ctx, refs, repo.FullName)
}

// dominantLanguage resolves the language breakdown and picks the one with
// the most bytes. Search items list repositories without a primary
// language when the hit predates language detection.
func (r *Runner) dominantLanguage(ctx context.Context, name string, remaining int) (string, int, error) {
	resp, rem, err := r.client.GetAPIResponse(ctx, github.CategoryLanguage, name, remaining, "")
	if err != nil {
		return "", rem, err
	}
	if err := sleep(ctx, r.client.Quota().CoreDelay()); err != nil {
		return "", rem, err
	}
	if resp == nil {
		return "", rem, nil
	}

	var breakdown map[string]int64
	if err := resp.JSON(&breakdown); err != nil {
		return "", rem, nil
	}
	var best string
	var bestBytes int64
	for lang, n := range breakdown {
		if n > bestBytes || (n == bestBytes && strings.Compare(lang, best) < 0) {
			best, bestBytes = lang, n
		}
	}
	return best, rem, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
