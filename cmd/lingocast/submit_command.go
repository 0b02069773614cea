package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lingocast/internal/ipc"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var languagesFlag []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "submit <path>",
		Short: "Submit a media asset for transcription and translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			languages := splitLanguages(languagesFlag)
			if len(languages) == 0 {
				if cfg := ctx.configValue(); cfg != nil {
					languages = cfg.Languages.DefaultTargets
				}
			}
			if len(languages) == 0 {
				return fmt.Errorf("at least one output language is required (use --language)")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(args[0], languages)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job %s submitted (%s)\n", resp.Job.ID, resp.Job.AssetName)
				fmt.Fprintf(out, "Languages: %s\n", strings.Join(languageCodes(resp.Job.Languages), ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&languagesFlag, "language", "l", nil, "Output language code (repeatable, or comma separated)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func splitLanguages(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
