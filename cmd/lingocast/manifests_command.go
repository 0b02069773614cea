package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lingocast/internal/ipc"
)

func newManifestsCommand(ctx *commandContext) *cobra.Command {
	manifestsCmd := &cobra.Command{
		Use:   "manifests",
		Short: "Inspect and select streaming manifests",
	}
	manifestsCmd.AddCommand(newManifestsListCommand(ctx))
	manifestsCmd.AddCommand(newManifestsSelectCommand(ctx))
	return manifestsCmd
}

func newManifestsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list <job-id>",
		Short: "List a job's discovered manifests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Manifests(args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Manifests) == 0 {
					fmt.Fprintln(out, "No manifests discovered yet")
					return nil
				}
				rows := make([][]string, 0, len(resp.Manifests))
				for _, manifest := range resp.Manifests {
					rows = append(rows, []string{manifest.Protocol, manifest.URI})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Protocol", "Manifest"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newManifestsSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <job-id> <protocol>",
		Short: "Switch playback to a discovered protocol",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SelectProtocol(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Playback switched to %s\n", resp.Protocol)
				return nil
			})
		},
	}
}
