package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shothook/internal/config"
	"shothook/internal/daemonrun"
	"shothook/internal/ipc"
)

// ErrDaemonNotRunning is returned when nothing answers on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult reports how the daemon went away.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// StopAndTerminate asks the daemon to stop and kills it when the socket is
// still answering after grace. grace should cover jobs.drain_timeout_seconds.
func StopAndTerminate(socketPath string, cfg *config.Config, grace time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if unreachable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	var result StopResult
	if status, err := client.Status(); err == nil {
		result.PID = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return result, err
	}
	result.StopAcknowledged = resp.Stopped

	gone := poll(grace, func() (bool, error) {
		_, up, _ := queryDaemon(socketPath)
		return !up, nil
	})
	if gone == nil {
		return result, nil
	}

	pid, err := forceKill(daemonrun.PIDPath(cfg), cfg.LockPath(), result.PID)
	if err != nil {
		return result, fmt.Errorf("daemon ignored stop after %s: %w", grace, err)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = pid
	return result, nil
}

// forceKill sends SIGKILL to the pid recorded in pidPath, or fallback when
// the file is absent, then removes the pid and lock files.
func forceKill(pidPath, lockPath string, fallback int) (int, error) {
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		pid = fallback
	}
	switch {
	case pid <= 0:
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	case pid == os.Getpid():
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pid, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// readPIDFile returns 0 when the file is missing or empty.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %q holds %q", path, text)
	}
	return pid, nil
}
