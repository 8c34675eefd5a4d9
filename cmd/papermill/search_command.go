package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"papermill/internal/document"
	"papermill/internal/logging"
	"papermill/internal/metadata"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		stageFlag    string
		authorFlag   string
		platformFlag string
		modeFlag     string
		tagFlag      string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find documents by metadata across the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			criteria := metadata.SearchCriteria{
				Author:   authorFlag,
				Platform: platformFlag,
				Mode:     modeFlag,
				Tag:      tagFlag,
			}

			dirs := cfg.StageDirs()
			if stageFlag != "" {
				stage, ok := document.ParseStage(stageFlag)
				if !ok {
					return fmt.Errorf("unknown stage %q", stageFlag)
				}
				dir, ok := dirs[stage]
				if !ok {
					return fmt.Errorf("no directory configured for stage %s", stage)
				}
				criteria.Stage = stage
				dirs = map[document.Stage]string{stage: dir}
			}

			manager := metadata.NewManager(logging.NewNop())
			var rows [][]string
			for _, stage := range document.AllStages() {
				dir, ok := dirs[stage]
				if !ok {
					continue
				}
				matches, err := manager.Search(dir, criteria)
				if err != nil {
					return fmt.Errorf("search %s: %w", dir, err)
				}
				for _, match := range matches {
					rows = append(rows, []string{
						string(stage),
						match.Document.Metadata.ID,
						match.Document.Metadata.Author,
						match.Path,
					})
				}
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No documents matched")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "ID", "Author", "Path"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&stageFlag, "stage", "", "Restrict the search to one stage")
	cmd.Flags().StringVar(&authorFlag, "author", "", "Match the author field exactly")
	cmd.Flags().StringVar(&platformFlag, "platform", "", "Match the platform field exactly")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Match the mode field exactly")
	cmd.Flags().StringVar(&tagFlag, "tag", "", "Match documents carrying this tag")
	return cmd
}
