// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rs-harvester/internal/reference"
	"github.com/pdiddy/rs-harvester/internal/store"
	"github.com/pdiddy/rs-harvester/pkg/types"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <repo> <bad-doi>",
	Short: "Remove a misextracted DOI from a research-software record",
	Long: `Reconcile removes the reference entry for a DOI that turned out not to
resolve to a real publication, in both the given form and its junk-trimmed
form. When a replacement identifier is given, the best available one
(DOI over arXiv ID over title) is union-inserted in its place.`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().String("replacement-doi", "", "DOI of the replacement publication")
	reconcileCmd.Flags().String("replacement-arxiv", "", "arXiv ID of the replacement publication")
	reconcileCmd.Flags().String("replacement-title", "", "title of the replacement publication")

	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, badDOI := args[0], args[1]

	doi, _ := cmd.Flags().GetString("replacement-doi")
	arxivID, _ := cmd.Flags().GetString("replacement-arxiv")
	title, _ := cmd.Flags().GetString("replacement-title")
	replacement := replacementEntry(doi, arxivID, title)

	ctx := cmd.Context()
	records, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer records.Close(ctx)

	for _, name := range doiVariants(badDOI) {
		if err := records.ReconcileDOI(ctx, repo, name, replacement); err != nil {
			return fmt.Errorf("reconciling %s: %w", repo, err)
		}
	}
	logger.Info("reconciled", "repo", repo, "removed", badDOI)
	return nil
}

// replacementEntry builds the replacement identifier from whichever flags
// were given, preferring a DOI over an arXiv ID over a title. Nil when no
// flag was set.
func replacementEntry(doi, arxivID, title string) *types.ReferenceEntry {
	entry, ok := reference.NewEntry(types.Publication{DOI: doi, ArxivID: arxivID, Title: title}, "", true)
	if !ok {
		return nil
	}
	return &entry
}

// doiVariants returns the bad DOI as given plus its junk-trimmed form.
// Misextracted DOIs land in the store in either shape, and pulling an
// absent variant is a no-op.
func doiVariants(doi string) []string {
	variants := []string{doi}
	if trimmed, ok := reference.TrimNameSuffix(doi); ok && trimmed != "" {
		variants = append(variants, trimmed)
	}
	return variants
}
