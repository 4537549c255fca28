package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shothook/internal/daemonctl"
	"shothook/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the shothook daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	return cmd
}

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the shothook daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx, startLogLevel), 15*time.Second)
			if err != nil {
				return err
			}
			printStartResult(stdout, result, "Daemon started")
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Log level for the launched daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the shothook daemon (waits for background jobs to drain)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := stopDaemon(ctx)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			printStopResult(stdout, result)
			return nil
		},
	}

	var restartLogLevel string
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the shothook daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := stopDaemon(ctx)
			switch {
			case errors.Is(err, daemonctl.ErrDaemonNotRunning):
			case err != nil:
				return err
			default:
				printStopResult(stdout, result)
			}
			start, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx, restartLogLevel), 15*time.Second)
			if err != nil {
				return err
			}
			printStartResult(stdout, start, "Daemon restarted")
			return nil
		},
	}
	restartCmd.Flags().StringVar(&restartLogLevel, "log-level", "", "Log level for the launched daemon")

	return []*cobra.Command{startCmd, stopCmd, restartCmd, newStatusCommand(ctx)}
}

// stopDaemon allows the configured drain window plus a margin before
// force-killing the process.
func stopDaemon(ctx *commandContext) (daemonctl.StopResult, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return daemonctl.StopResult{}, err
	}
	return daemonctl.StopAndTerminate(ctx.socketPath(), cfg, cfg.DrainTimeout()+5*time.Second)
}

func printStartResult(stdout io.Writer, result daemonctl.StartResult, started string) {
	switch result.State {
	case daemonctl.StartStateAlreadyRunning:
		fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
	default:
		fmt.Fprintf(stdout, "%s (pid %d)\n", started, result.PID)
	}
}

func printStopResult(stdout io.Writer, result daemonctl.StopResult) {
	if result.StopAcknowledged {
		fmt.Fprintln(stdout, "Stopping daemon, draining background jobs...")
	} else {
		fmt.Fprintln(stdout, "Stop request sent")
	}
	if result.ForcedKill && result.PID > 0 {
		fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
	}
	fmt.Fprintln(stdout, "Daemon stopped")
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		ConfigPath: ctx.configPath(),
		LogLevel:   strings.TrimSpace(logLevel),
	}
}
