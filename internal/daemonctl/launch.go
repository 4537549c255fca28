package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"shothook/internal/ipc"
)

const pollInterval = 200 * time.Millisecond

// LaunchOptions are passed through to the background `shothook run`.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult reports what EnsureStarted did.
type StartResult struct {
	State StartState
	PID   int
}

// EnsureStarted launches the daemon unless one already answers on
// socketPath, then waits up to wait for it to report Running.
func EnsureStarted(socketPath, executable string, opts LaunchOptions, wait time.Duration) (StartResult, error) {
	if pid, up, err := queryDaemon(socketPath); err == nil && up {
		return StartResult{State: StartStateAlreadyRunning, PID: pid}, nil
	}
	if err := launch(executable, opts); err != nil {
		return StartResult{}, err
	}

	// The socket is served before actions are registered, so a reachable
	// daemon is not yet a started one.
	var pid int
	err := poll(wait, func() (bool, error) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return false, nil
		}
		defer client.Close()
		status, err := client.Status()
		if err != nil {
			return false, err
		}
		pid = status.PID
		return status.Running, nil
	})
	if err != nil {
		return StartResult{}, fmt.Errorf("daemon did not finish starting (check shothook.log): %w", err)
	}
	return StartResult{State: StartStateStarted, PID: pid}, nil
}

func launch(executable string, opts LaunchOptions) error {
	if strings.TrimSpace(executable) == "" {
		return errors.New("resolve executable: executable path is empty")
	}
	args := []string{"run"}
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	cmd := exec.Command(executable, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return cmd.Process.Release()
}

// queryDaemon reports whether a daemon answers on socketPath and its pid.
// A missing socket or refused connection is "not running", not an error.
func queryDaemon(socketPath string) (pid int, running bool, err error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if unreachable(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	defer client.Close()
	status, err := client.Status()
	if err != nil {
		return 0, true, err
	}
	return status.PID, true, nil
}

// poll calls check every pollInterval until it reports done, returns an
// error, or timeout passes.
func poll(timeout time.Duration, check func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timed out after %s", timeout)
		}
		time.Sleep(pollInterval)
	}
}

func unreachable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
