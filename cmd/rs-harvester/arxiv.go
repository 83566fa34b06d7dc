// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rs-harvester/internal/arxiv"
	"github.com/pdiddy/rs-harvester/internal/store"
)

var arxivCmd = &cobra.Command{
	Use:   "arxiv <query>",
	Short: "Harvest publication metadata from the arXiv API",
	Long: `Arxiv pages through every publication matching the query and stores one
record per publication. Publications already on record are skipped, so an
interrupted harvest can be re-run.`,
	Args: cobra.ExactArgs(1),
	RunE: runArxiv,
}

func init() {
	arxivCmd.Flags().Int("start", 0, "index of the first publication to request")
	arxivCmd.Flags().Int("page-size", 0, "entries per API call (default 1000, capped at 2000)")
	arxivCmd.Flags().Duration("wait", 0, "pause between two API calls (default 5s)")
	arxivCmd.Flags().Bool("dry-run", false, "harvest into an in-memory store, persist nothing")

	rootCmd.AddCommand(arxivCmd)
}

func runArxiv(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("start"); v != 0 {
		cfg.Arxiv.Start = v
	}
	if v, _ := cmd.Flags().GetInt("page-size"); v != 0 {
		cfg.Arxiv.PageSize = v
	}
	if v, _ := cmd.Flags().GetDuration("wait"); v != 0 {
		cfg.Arxiv.Wait = v
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	timeout := cfg.Arxiv.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	ctx := cmd.Context()
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

	h := arxiv.NewHarvester(&http.Client{Timeout: timeout}, records, cfg.Arxiv, logger)
	if err := h.Harvest(ctx, args[0]); err != nil {
		return fmt.Errorf("arXiv harvest failed: %w", err)
	}
	return nil
}
