package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lingocast/internal/ipc"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "tracks <job-id>",
		Short: "List a job's caption tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Tracks(args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Tracks) == 0 {
					fmt.Fprintln(out, "No caption tracks yet")
					return nil
				}
				rows := make([][]string, 0, len(resp.Tracks))
				for _, track := range resp.Tracks {
					formats := make([]string, 0, len(track.Formats))
					for format := range track.Formats {
						formats = append(formats, format)
					}
					sort.Strings(formats)
					rows = append(rows, []string{
						track.Language,
						track.Label,
						yesNo(track.Original),
						strings.Join(formats, ","),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Language", "Label", "Original", "Formats"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
