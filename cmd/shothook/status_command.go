package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shothook/internal/daemonctl"
	"shothook/internal/host/ftrack"
	"shothook/internal/logging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, readiness and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pinger := ftrack.NewFromConfig(cfg, logging.NewNop())
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg, pinger)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonLines(snap.Status, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Readiness", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range checkLines(snap.Checks, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			if rows := buildSubscriptionRows(snap.Status); len(rows) > 0 {
				for _, line := range renderSectionHeader("Subscriptions", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprint(stdout, renderTable([]column{col("Handler"), wideCol("Expression"), numCol("Calls")}, rows))
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout)
			}

			for _, line := range renderSectionHeader("Jobs", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if snap.Status.LedgerTarget != "" {
				fmt.Fprintln(stdout, renderStatusLine("Ledger", statusInfo, snap.Status.LedgerTarget, colorize))
			}
			if len(snap.Status.Jobs) > 0 {
				fmt.Fprintln(stdout, renderStatusLine("In flight", statusInfo, fmt.Sprintf("%d", len(snap.Status.Jobs)), colorize))
			}
			rows := buildJobTotalRows(snap.Status.JobTotals)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No jobs recorded")
				return nil
			}
			fmt.Fprint(stdout, renderTable([]column{col("Status"), numCol("Count")}, rows))
			fmt.Fprintln(stdout)
			return nil
		},
	}
}
