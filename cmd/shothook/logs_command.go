package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shothook/internal/ipc"
	"shothook/internal/logging"
	"shothook/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var action string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log events",
		Long: "Show recent daemon log events from the running daemon's log stream.\n" +
			"When the daemon is not running the current run log file is tailed instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ipc.Dial(ctx.socketPath())
			if err != nil {
				cfg, cfgErr := ctx.ensureConfig()
				if cfgErr != nil {
					return cfgErr
				}
				return tailLogFile(cmd.Context(), cmd.OutOrStdout(), filepath.Join(cfg.Paths.LogDir, "shothook.log"), lines, follow)
			}
			defer client.Close()

			stdout := cmd.OutOrStdout()
			initial := ipc.LogTailRequest{}
			if strings.TrimSpace(action) == "" && lines > 0 {
				initial.Limit = lines
			}
			resp, err := client.LogTail(initial)
			if err != nil {
				return err
			}
			events := filterLogEvents(resp.Events, action)
			if lines > 0 && len(events) > lines {
				events = events[len(events)-lines:]
			}
			printLogEvents(stdout, events)
			if !follow {
				return nil
			}

			offset := resp.Offset
			for {
				if err := cmd.Context().Err(); err != nil {
					return nil
				}
				next, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Follow: true, WaitMillis: 2000})
				if err != nil {
					return err
				}
				printLogEvents(stdout, filterLogEvents(next.Events, action))
				offset = next.Offset
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new events")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent events to show (0 for all buffered)")
	cmd.Flags().StringVar(&action, "action", "", "Only show events for this action identifier")
	return cmd
}

func tailLogFile(ctx context.Context, w io.Writer, path string, lines int, follow bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if lines <= 0 {
		lines = math.MaxInt32
	}
	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	for _, line := range result.Lines {
		fmt.Fprintln(w, line)
	}
	for follow {
		result, err = logs.Tail(ctx, path, logs.TailOptions{Offset: result.Offset, Follow: true, Wait: 2 * time.Second})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, line := range result.Lines {
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

func printLogEvents(w io.Writer, events []logging.LogEvent) {
	for _, ev := range events {
		fmt.Fprintln(w, formatLogEvent(ev))
	}
}

func filterLogEvents(events []logging.LogEvent, action string) []logging.LogEvent {
	action = strings.TrimSpace(action)
	if action == "" {
		return events
	}
	out := events[:0:0]
	for _, ev := range events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}

func formatLogEvent(ev logging.LogEvent) string {
	var b strings.Builder
	b.WriteString(ev.Timestamp.Local().Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(ev.Level))
	if ev.Component != "" {
		b.WriteString(" [")
		b.WriteString(ev.Component)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(ev.Message)

	keys := make([]string, 0, len(ev.Fields))
	for k := range ev.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, ev.Fields[k])
	}
	return b.String()
}
