package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lingocast/internal/api"
	"lingocast/internal/ipc"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect tracked jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all known jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobList()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					rows = append(rows, []string{
						job.ID,
						job.AssetName,
						colorStage(job.Stage, colorize),
						fmt.Sprintf("%.0f%%", job.DisplayedPercent),
						strings.Join(languageCodes(job.Languages), ","),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Asset", "Stage", "Progress", "Languages"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobDescribe(args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				printJobDetail(cmd, resp.Job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func printJobDetail(cmd *cobra.Command, job api.Job) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"ID", job.ID},
		{"Asset", job.AssetName},
		{"Stage", colorStage(job.Stage, shouldColorize(out))},
		{"Progress", fmt.Sprintf("%.1f%%", job.DisplayedPercent)},
	}
	if job.SourceLanguage != "" {
		rows = append(rows, []string{"Source language", job.SourceLanguage})
	}
	if job.Message != "" {
		rows = append(rows, []string{"Message", job.Message})
	}
	if job.ErrorMessage != "" {
		rows = append(rows, []string{"Error", job.ErrorMessage})
	}
	if job.DirectPlayURI != "" {
		rows = append(rows, []string{"Direct play", job.DirectPlayURI})
	}
	for _, language := range job.Languages {
		state := "pending"
		if language.Complete {
			state = "complete"
		}
		rows = append(rows, []string{"Language " + language.Code, fmt.Sprintf("%s (%s)", language.Label, state)})
	}
	if job.UpdatedAt != "" {
		rows = append(rows, []string{"Updated", job.UpdatedAt})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
}

func languageCodes(languages []api.JobLanguage) []string {
	out := make([]string, 0, len(languages))
	for _, language := range languages {
		out = append(out, language.Code)
	}
	return out
}
