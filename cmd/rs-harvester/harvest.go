// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rs-harvester/internal/checkpoint"
	"github.com/pdiddy/rs-harvester/internal/github"
	"github.com/pdiddy/rs-harvester/internal/harvest"
	"github.com/pdiddy/rs-harvester/internal/quota"
	"github.com/pdiddy/rs-harvester/internal/secrets"
	"github.com/pdiddy/rs-harvester/internal/store"
)

const (
	apiBaseURL       = "https://api.github.com"
	rateLimitURL     = apiBaseURL + "/rate_limit"
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "rs-harvester/0.1"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [search terms...]",
	Short: "Harvest repositories matching search terms over date windows",
	Long: `Harvest pages through repository searches for every configured term over
every window of the search period, persisting deduplicated records.
Completed windows are checkpointed; re-running an interrupted harvest
resumes behind the last finished window.

Search terms given as arguments override the configured ones.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("start", "", "search period start (YYYY-MM-DD)")
	harvestCmd.Flags().String("end", "", "search period end (YYYY-MM-DD)")
	harvestCmd.Flags().String("interval", "", `window granularity: "daily" or a delta such as "months=6"`)
	harvestCmd.Flags().Bool("enrich", false, "classify hits and resolve commit timelines and readme DOIs")
	harvestCmd.Flags().String("group", "", "evaluation group label for research-software records")
	harvestCmd.Flags().Bool("dry-run", false, "harvest into an in-memory store, persist nothing")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Harvest.SearchTerms = args
	}
	if v, _ := cmd.Flags().GetString("start"); v != "" {
		cfg.Harvest.Start = v
	}
	if v, _ := cmd.Flags().GetString("end"); v != "" {
		cfg.Harvest.End = v
	}
	if v, _ := cmd.Flags().GetString("interval"); v != "" {
		cfg.Harvest.Interval = v
	}
	if cmd.Flags().Changed("enrich") {
		cfg.Harvest.Enrich, _ = cmd.Flags().GetBool("enrich")
	}
	if v, _ := cmd.Flags().GetString("group"); v != "" {
		cfg.Harvest.Group = v
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if len(cfg.Harvest.SearchTerms) == 0 {
		return fmt.Errorf("no search terms configured")
	}
	if cfg.Harvest.Interval == "" {
		cfg.Harvest.Interval = "daily"
	}
	if cfg.Harvest.Group == "" {
		cfg.Harvest.Group = "keyword_search"
	}
	if cfg.Harvest.CheckpointPath == "" {
		cfg.Harvest.CheckpointPath = "harvest.db"
	}
	timeout := cfg.Harvest.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	ctx := cmd.Context()
	httpClient := &http.Client{Timeout: timeout}

	token := secrets.GitHubToken(cfg.Harvest.Token, ".secrets/")
	authenticated := quota.ValidToken(ctx, httpClient, rateLimitURL, token)
	if !authenticated {
		token = ""
		logger.Warn("no valid API token, using the unauthenticated rate limits")
	}

	header := http.Header{}
	header.Set("Accept", "application/vnd.github.v3+json")
	header.Set("User-Agent", defaultUserAgent)
	if token != "" {
		header.Set("Authorization", "token "+token)
	}
	tracker := quota.NewTracker(httpClient, rateLimitURL, header, authenticated, logger)
	client := github.NewClient(httpClient, tracker, apiBaseURL, token)

	var records *store.Store
	if dryRun {
		records = store.New(store.OpenMemory(), cfg.Database.Collections)
		logger.Info("dry run, records stay in memory")
	} else {
		records, err = store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
	}
	defer records.Close(ctx)

	ledgerPath := cfg.Harvest.CheckpointPath
	if dryRun {
		ledgerPath = ":memory:"
	}
	ledger, err := checkpoint.Open(ledgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runner := harvest.NewRunner(client, records, ledger, cfg.Harvest, logger)
	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}

	if dryRun {
		n, err := records.CountRsRepos(ctx, nil)
		if err == nil {
			logger.Info("dry run complete", "research_software_records", n)
		}
	}
	return nil
}
