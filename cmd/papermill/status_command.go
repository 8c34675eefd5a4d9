package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"papermill/internal/document"
	"papermill/internal/ledger"
	"papermill/internal/logging"
	"papermill/internal/metadata"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-stage document counts and recorded activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			manager := metadata.NewManager(logging.NewNop())
			stats := manager.Statistics(cfg.StageDirs())

			var activity map[document.Stage]int
			if cfg.Ledger.Enabled {
				store, err := ledger.Open(cfg.LedgerPath())
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
				defer func() { _ = store.Close() }()
				activity, err = store.StageCounts(cmd.Context())
				if err != nil {
					return fmt.Errorf("read ledger: %w", err)
				}
			}

			const timeLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(document.AllStages()))
			for _, stage := range document.AllStages() {
				stat := stats[stage]
				oldest, newest := "-", "-"
				if !stat.Oldest.IsZero() {
					oldest = stat.Oldest.Format(timeLayout)
				}
				if !stat.Newest.IsZero() {
					newest = stat.Newest.Format(timeLayout)
				}
				rows = append(rows, []string{
					string(stage),
					strconv.Itoa(stat.Documents),
					strconv.FormatInt(stat.Bytes, 10),
					oldest,
					newest,
					strconv.Itoa(activity[stage]),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workspace: %s\n", cfg.Paths.WorkspaceDir)
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Docs", "Bytes", "Oldest", "Newest", "Events"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
