package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"papermill/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent journaled pipeline events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Ledger.Enabled {
				return fmt.Errorf("the ledger is disabled in configuration")
			}

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Tail(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read ledger: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No events recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				stage := string(entry.Stage)
				if entry.NextStage != "" {
					stage = fmt.Sprintf("%s -> %s", entry.Stage, entry.NextStage)
				}
				rows = append(rows, []string{
					entry.RecordedAt.Format("2006-01-02 15:04:05"),
					string(entry.Kind),
					string(entry.EventType),
					stage,
					entry.Path,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Recorded", "Kind", "Type", "Stage", "Path"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	return cmd
}
