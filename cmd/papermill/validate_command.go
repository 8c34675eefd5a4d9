package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"papermill/internal/document"
	"papermill/internal/logging"
	"papermill/internal/metadata"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check a document's metadata against its stage contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			manager := metadata.NewManager(logging.NewNop())
			doc, err := manager.ReadDocument(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			stage := doc.Metadata.Stage
			if stageFlag != "" {
				parsed, ok := document.ParseStage(stageFlag)
				if !ok {
					return fmt.Errorf("unknown stage %q", stageFlag)
				}
				stage = parsed
			}
			if !stage.Valid() {
				return fmt.Errorf("document has no stage; pass --stage to pick one")
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(cmd.OutOrStdout())
			if metadata.ValidateMetadata(doc.Metadata, stage) {
				fmt.Fprintln(out, statusLine("valid for stage "+string(stage), true, colorize))
				return nil
			}
			fmt.Fprintln(out, statusLine("incomplete for stage "+string(stage), false, colorize))
			for _, missing := range metadata.MissingFields(doc.Metadata, stage) {
				fmt.Fprintf(out, "  missing: %s\n", missing)
			}
			return fmt.Errorf("document failed validation")
		},
	}

	cmd.Flags().StringVar(&stageFlag, "stage", "", "Validate against this stage instead of the document's own")
	return cmd
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func statusLine(message string, ok bool, colorize bool) string {
	label := "FAIL"
	color := ansiRed
	if ok {
		label = "OK"
		color = ansiGreen
	}
	line := fmt.Sprintf("[%s] %s", label, message)
	if colorize {
		return color + line + ansiReset
	}
	return line
}
