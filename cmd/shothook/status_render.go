package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"shothook/internal/ipc"
	"shothook/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func daemonLines(status *ipc.StatusResponse, colorize bool) []string {
	if status == nil || !status.Running {
		lines := []string{renderStatusLine("Daemon", statusError, "Not running", colorize)}
		if status != nil && status.LastError != "" {
			lines = append(lines, renderStatusLine("Last error", statusWarn, status.LastError, colorize))
		}
		return lines
	}
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize),
	}
	if !status.StartedAt.IsZero() {
		lines = append(lines, renderStatusLine("Started", statusInfo, status.StartedAt.Local().Format("2006-01-02 15:04:05"), colorize))
	}
	lines = append(lines, renderStatusLine("Viewers", statusInfo, strconv.Itoa(status.Viewers), colorize))
	hubKind := statusOK
	hubDetail := fmt.Sprintf("%d events, %d replies, %d errors", status.Hub.Events, status.Hub.Replies, status.Hub.Errors)
	if status.Hub.Errors > 0 {
		hubKind = statusWarn
		if status.Hub.LastError != "" {
			hubDetail += "; last: " + status.Hub.LastError
		}
	}
	lines = append(lines, renderStatusLine("Event hub", hubKind, hubDetail, colorize))
	if status.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, status.LastError, colorize))
	}
	return lines
}

func checkLines(checks []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(checks))
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}

func buildJobTotalRows(totals map[string]int) [][]string {
	if len(totals) == 0 {
		return nil
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.Itoa(totals[k])})
	}
	return rows
}

func buildSubscriptionRows(status *ipc.StatusResponse) [][]string {
	if status == nil {
		return nil
	}
	rows := make([][]string, 0, len(status.Subscriptions))
	for _, sub := range status.Subscriptions {
		rows = append(rows, []string{sub.Name, sub.Expression, strconv.FormatInt(sub.Calls, 10)})
	}
	return rows
}
