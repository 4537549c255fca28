package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"shothook/internal/testsupport"
)

func TestQueryDaemonWithoutDaemon(t *testing.T) {
	pid, running, err := queryDaemon(filepath.Join(t.TempDir(), "missing.sock"))
	if err != nil {
		t.Fatalf("queryDaemon: %v", err)
	}
	if running || pid != 0 {
		t.Fatalf("expected no daemon, got running=%v pid=%d", running, pid)
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := StopAndTerminate(cfg.SocketPath(), cfg, 0)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "shothook.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := forceKill(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill the current process")
	}
}

func TestForceKillWithoutPID(t *testing.T) {
	if _, err := forceKill(filepath.Join(t.TempDir(), "none.pid"), "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
}

func TestReadPIDFile(t *testing.T) {
	dir := t.TempDir()
	if pid, err := readPIDFile(filepath.Join(dir, "missing.pid")); err != nil || pid != 0 {
		t.Fatalf("missing file: pid=%d err=%v", pid, err)
	}
	good := filepath.Join(dir, "good.pid")
	if err := os.WriteFile(good, []byte("4242\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if pid, err := readPIDFile(good); err != nil || pid != 4242 {
		t.Fatalf("good file: pid=%d err=%v", pid, err)
	}
	bad := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(bad, []byte("shothook"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readPIDFile(bad); err == nil {
		t.Fatal("expected error for garbage pid file")
	}
}

func TestPollStopsOnDoneErrorOrTimeout(t *testing.T) {
	calls := 0
	if err := poll(time.Second, func() (bool, error) { calls++; return calls == 2, nil }); err != nil || calls != 2 {
		t.Fatalf("expected done on second call, calls=%d err=%v", calls, err)
	}
	boom := errors.New("boom")
	if err := poll(time.Second, func() (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected check error, got %v", err)
	}
	if err := poll(0, func() (bool, error) { return false, nil }); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	store := testsupport.MustOpenLedger(t, cfg)
	testsupport.StartJob(t, store, "job-1", "transfer", time.Now())
	store.Close()

	snap, err := BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg, testsupport.NewFakeHost())
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.Status.Running {
		t.Fatal("expected offline status")
	}
	// Running records left by a dead daemon are reported as abandoned.
	if snap.Status.JobTotals["abandoned"] != 1 {
		t.Fatalf("unexpected totals %v", snap.Status.JobTotals)
	}
	if len(snap.Checks) == 0 {
		t.Fatal("expected preflight checks")
	}
}
