// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/rs-harvester/internal/store"
	"github.com/pdiddy/rs-harvester/pkg/types"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <subjects.yaml>",
	Short: "Attach discipline subjects to research-software records",
	Long: `Annotate reads a YAML file mapping repository names to their discipline
hierarchy and merges each entry into the corresponding research-software
record. The first annotation of a record sets its subject fields; later
annotations union-insert, so reclassification accumulates.

The file has one entry per repository:

    org/tool:
      supergroup: [Life Sciences]
      groups: [Neuroscience]
      subgroups: [Neuroimaging]`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading subjects file: %w", err)
	}
	var subjects map[string]types.Subject
	if err := yaml.Unmarshal(data, &subjects); err != nil {
		return fmt.Errorf("parsing subjects file: %w", err)
	}
	if len(subjects) == 0 {
		return fmt.Errorf("subjects file %s has no entries", args[0])
	}

	ctx := cmd.Context()
	records, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer records.Close(ctx)

	var failed int
	for name, subject := range subjects {
		if err := records.AnnotateSubject(ctx, name, subject); err != nil {
			logger.Error("annotation failed", "repo", name, "err", err)
			failed++
			continue
		}
		logger.Info("annotated", "repo", name, "supergroup", subject.Supergroup)
	}
	if failed > 0 {
		return fmt.Errorf("%d annotation(s) failed", failed)
	}
	return nil
}
