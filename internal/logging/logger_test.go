package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shothook/internal/config"
	"shothook/internal/logging"
	"shothook/internal/services"
)

func TestNewWritesFileAndStream(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run", "shothook-1.log")
	hub := logging.NewStreamHub(8)
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}, Stream: hub})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", logging.String("file", "a.mov"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("expected log file under a created directory: %v", err)
	}
	if !strings.Contains(string(content), "hello") {
		t.Fatalf("log file missing message: %q", content)
	}
	if events, _ := hub.Tail(1); len(events) != 1 || events[0].Fields["file"] != "a.mov" {
		t.Fatalf("expected streamed event, got %+v", events)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithAction(context.Background(), "sde_output_manager")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "uploader"))
	logger.Info("upload started", logging.String("file", "shot010.mov"), logging.String(logging.FieldEventType, "upload_started"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	for _, fragment := range []string{"INFO [uploader] sde_output_manager", "upload started", "- File: shot010.mov", "- Event: upload_started"} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in %q", fragment, text)
		}
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("careful", logging.Error(errors.New("boom")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "careful" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	hub := logging.NewStreamHub(10)
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{filepath.Join(t.TempDir(), "w.log")}, Stream: hub})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "component missing", "component_missing")

	events, _ := hub.Tail(1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	fields := events[0].Fields
	if fields[logging.FieldEventType] != "component_missing" {
		t.Fatalf("expected event type, got %v", fields)
	}
	if fields[logging.FieldErrorHint] == "" || fields[logging.FieldImpact] == "" {
		t.Fatalf("expected hint and impact defaults, got %v", fields)
	}
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "corr")
	ctx = services.WithUser(ctx, "artist")
	ctx = services.WithJobID(ctx, "job")

	fields := logging.ContextFields(ctx)
	keys := make(map[string]string, len(fields))
	for _, f := range fields {
		keys[f.Key] = f.Value.String()
	}
	if keys[logging.FieldCorrelationID] != "corr" || keys[logging.FieldUser] != "artist" || keys[logging.FieldJobID] != "job" {
		t.Fatalf("unexpected context fields %v", keys)
	}
	if logging.ContextFields(nil) != nil {
		t.Fatal("expected nil fields for nil context")
	}
}

func TestPruneRunLogsKeepsCurrentAndRecent(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "shothook-old.log")
	currentPath := filepath.Join(dir, "shothook-current.log")
	newPath := filepath.Join(dir, "shothook-new.log")
	keepPath := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldPath, currentPath, newPath, keepPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, p := range []string{oldPath, currentPath, keepPath} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	cfg := config.Default()
	cfg.Paths.LogDir = dir
	cfg.Logging.RetentionDays = 3
	if removed := logging.PruneRunLogs(logging.NewNop(), &cfg, currentPath); removed != 1 {
		t.Fatalf("expected one pruned log, got %d", removed)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, p := range []string{currentPath, newPath, keepPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to remain: %v", p, err)
		}
	}

	cfg.Logging.RetentionDays = 0
	if removed := logging.PruneRunLogs(logging.NewNop(), &cfg, ""); removed != 0 {
		t.Fatalf("zero retention should keep everything, removed %d", removed)
	}
}

func TestFormatSubject(t *testing.T) {
	if got := logging.FormatSubject("sde_transferFile", "0123456789abcdef"); got != "sde_transferFile · job 01234567" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := logging.FormatSubject("", ""); got != "" {
		t.Fatalf("expected empty subject, got %q", got)
	}
}
