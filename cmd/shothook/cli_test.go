package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shothook/internal/ledger"
	"shothook/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestStatusesAndViewersCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"statuses"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	requireContains(t, out, "FOR_REVIEW")
	requireContains(t, out, "st-for-review")

	out, _, err = runCLI(t, []string{"viewers"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("viewers: %v", err)
	}
	requireContains(t, out, "djv_view_1.1.0")
}

func TestJobsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	started := time.Now().Add(-time.Minute)
	testsupport.StartJob(t, env.store, "job-ok", "transfer", started)
	testsupport.StartJob(t, env.store, "job-bad", "notify", started)
	if err := env.store.Finish(t.Context(), "job-bad", ledger.StatusFailed, "dial smtp: refused", "external", time.Now()); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "transfer")
	requireContains(t, out, "dial smtp: refused")

	out, _, err = runCLI(t, []string{"jobs", "--status", "failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs --status: %v", err)
	}
	if strings.Contains(out, "transfer") {
		t.Fatalf("expected only failed jobs, got %q", out)
	}
}

func TestJobsCommandReadsLedgerWhenDaemonStopped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", testsupport.BaseDir(cfg))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "shothook.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenLedger(t, cfg)
	testsupport.StartJob(t, store, "job-1", "upload", time.Now())
	store.Close()

	out, _, err := runCLI(t, []string{"jobs"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "upload")
}

func TestEmitCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"emit", "--topic", "ftrack.action.discover", "--user", testsupport.EventUser,
		"--data", `{"selection":[]}`,
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	requireContains(t, out, "Published event")

	if _, _, err := runCLI(t, []string{"emit", "--topic", "x", "--data", "[1, 2]"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected non-mapping data to fail")
	}
}

func TestTestNotifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify", "--to", "ana@example.com"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "mail not enabled")

	if _, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected missing --to to fail")
	}
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs", "--lines", "0"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "shothook daemon started")
}

func TestStatusCommandRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "== Readiness ==")
	requireContains(t, out, "statussync")
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "shothook.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"stop"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestDialErrorMentionsStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "shothook.toml")
	writeTestConfig(t, configPath, cfg)

	_, _, err := runCLI(t, []string{"statuses"}, cfg.SocketPath(), configPath)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	requireContains(t, err.Error(), "shothook start")
}

func TestLogsCommandTailsFileWhenDaemonStopped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "shothook.toml")
	writeTestConfig(t, configPath, cfg)
	logPath := filepath.Join(cfg.Paths.LogDir, "shothook.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "2"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
