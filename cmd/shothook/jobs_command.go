package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shothook/internal/ipc"
	"shothook/internal/ledger"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var status string
	var kind string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List background job history",
		Long: "List background copy, mail and upload jobs from the job ledger, newest first.\n" +
			"The ledger is read directly when the daemon is not running.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.JobListRequest{
				Limit:  limit,
				Status: strings.ToLower(strings.TrimSpace(status)),
				Kind:   strings.TrimSpace(kind),
			}
			records, err := listJobs(cmd.Context(), ctx, req)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(stdout, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(
				[]column{col("Started"), col("Kind"), col("Status"), numCol("Duration"), col("User"), wideCol("Detail")},
				buildJobRows(records, time.Now()),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (running, succeeded, failed, canceled, abandoned)")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by job kind (transfer, notify, upload)")
	return cmd
}

// listJobs asks the daemon first and falls back to opening the ledger.
func listJobs(cmdCtx context.Context, ctx *commandContext, req ipc.JobListRequest) ([]ipc.JobRecord, error) {
	client, err := ipc.Dial(ctx.socketPath())
	if err == nil {
		defer client.Close()
		resp, callErr := client.JobList(req)
		if callErr != nil {
			return nil, callErr
		}
		return resp.Jobs, nil
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return nil, cfgErr
	}
	store, openErr := ledger.Open(cfg)
	if openErr != nil {
		return nil, fmt.Errorf("open job ledger: %w", openErr)
	}
	defer store.Close()
	records, listErr := store.List(cmdCtx, ledger.ListOptions{
		Limit:  req.Limit,
		Status: ledger.Status(req.Status),
		Kind:   req.Kind,
	})
	if listErr != nil {
		return nil, listErr
	}
	out := make([]ipc.JobRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, ipc.FromRecord(rec))
	}
	return out, nil
}

func buildJobRows(records []ipc.JobRecord, now time.Time) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		end := now
		if rec.FinishedAt != nil {
			end = *rec.FinishedAt
		}
		detail := rec.Detail
		if rec.ErrorMessage != "" {
			detail = rec.ErrorMessage
		}
		rows = append(rows, []string{
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Kind,
			rec.Status,
			end.Sub(rec.StartedAt).Round(time.Millisecond).String(),
			rec.User,
			truncate(detail, 60),
		})
	}
	return rows
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
