package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shothook/internal/ipc"
)

func newStatusesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "Show how named task statuses resolved against the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Statuses()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(stdout, "Status catalog not resolved yet")
					return nil
				}
				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, []string{entry.Name, entry.HostName, entry.ID, entry.Source})
				}
				fmt.Fprintln(stdout, renderTable([]column{col("Name"), col("Host status"), col("ID"), col("Source")}, rows))
				return nil
			})
		},
	}
}

func newViewersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewers",
		Short: "List the image viewer installations the daemon discovered",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Viewers()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Viewers) == 0 {
					fmt.Fprintln(stdout, "No viewers discovered")
					return nil
				}
				rows := make([][]string, 0, len(resp.Viewers))
				for _, v := range resp.Viewers {
					rows = append(rows, []string{v.Identifier, v.Label, v.Variant, v.Path})
				}
				fmt.Fprintln(stdout, renderTable([]column{col("Identifier"), col("Label"), col("Variant"), wideCol("Path")}, rows))
				return nil
			})
		},
	}
}
