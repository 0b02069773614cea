package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lingocast/internal/ipc"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	languagesCmd := &cobra.Command{
		Use:   "languages",
		Short: "Manage a job's output languages",
	}
	languagesCmd.AddCommand(newLanguagesAddCommand(ctx))
	return languagesCmd
}

func newLanguagesAddCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "add <job-id> <code>...",
		Short: "Add output languages to a job",
		Long: "Add output languages to a tracked job. Adding a language to a job that " +
			"already finished re-enters transcription for the new languages only; " +
			"completed languages stay playable throughout.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AddLanguages(args[0], args[1:])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job %s languages: %s\n", resp.Job.ID, strings.Join(languageCodes(resp.Job.Languages), ", "))
				fmt.Fprintf(out, "Stage: %s (%.0f%%)\n", resp.Job.Stage, resp.Job.DisplayedPercent)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
