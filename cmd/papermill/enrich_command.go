package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"papermill/internal/logging"
	"papermill/internal/metadata"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "enrich <path>",
		Short: "Recompute a document's hash, tags, and content statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			manager := metadata.NewManager(logging.NewNop())
			doc, err := manager.ReadDocument(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			enriched := metadata.EnrichMetadata(doc.Metadata, doc.Content, metadata.EnrichOptions{
				UpdateHash:     true,
				ExtractTags:    true,
				MaxTags:        cfg.Enrich.MaxTags,
				MinWordLength:  cfg.Enrich.MinWordLength,
				Stats:          true,
				WordsPerMinute: cfg.Enrich.WordsPerMinute,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Hash:    %s\n", enriched.Hash)
			fmt.Fprintf(out, "Tags:    %s\n", strings.Join(enriched.Tags, ", "))
			if enriched.Stats != nil {
				fmt.Fprintf(out, "Words:   %d\n", enriched.Stats.Words)
				fmt.Fprintf(out, "Lines:   %d\n", enriched.Stats.Lines)
				fmt.Fprintf(out, "Reading: %d min\n", enriched.Stats.ReadingMinutes)
			}

			if dryRun {
				return nil
			}
			doc.Metadata = enriched
			if err := manager.WriteDocument(args[0], doc); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
			fmt.Fprintf(out, "Updated %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the enrichment without rewriting the file")
	return cmd
}
