package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shothook/internal/config"
	"shothook/internal/daemon"
	"shothook/internal/eventhub"
	"shothook/internal/host/ftrack"
	"shothook/internal/ipc"
	"shothook/internal/ledger"
	"shothook/internal/logging"
	"shothook/internal/notifications"
	"shothook/internal/preflight"
	"shothook/internal/sessions"
	"shothook/internal/viewer"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the shothook daemon runtime loop and blocks until a signal or
// an IPC stop request arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("shothook-%s.log", runID))
	logHub := logging.NewStreamHub(4096)

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		Stream:           logHub,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update shothook.log link: %v\n", err)
	}
	if pruned := logging.PruneRunLogs(logger, cfg, logPath); pruned > 0 {
		logger.Info("pruned old run logs", logging.Int("count", pruned), logging.Int("retention_days", cfg.Logging.RetentionDays))
	}

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	client := ftrack.NewFromConfig(cfg, logger)
	transport, err := OpenTransport(cfg, logger)
	if err != nil {
		logger.Error("open event transport", logging.Error(err))
		return err
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		transport.Close()
		logger.Error("open job ledger", logging.Error(err))
		return err
	}

	sessionStore, err := sessions.Open(cfg)
	if err != nil {
		transport.Close()
		store.Close()
		logger.Error("open session store", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, daemon.Dependencies{
		Client:    client,
		Transport: transport,
		Ledger:    store,
		Sessions:  sessionStore,
		Notifier:  notifications.NewService(cfg),
		Viewers:   viewer.Discover(cfg.Viewer.Globs, cfg.Viewer.Label, logger),
		LogStream: logHub,
	}, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, cfg, client)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "actions depending on this check will fail"),
		)
	}

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check host credentials, status names and the lock file"),
		)
		return err
	}

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("shothook daemon shutting down",
		logging.Duration("drain_timeout", cfg.DrainTimeout()),
	)
	return nil
}

// OpenTransport builds the event transport selected by cfg.EventHub.Driver.
func OpenTransport(cfg *config.Config, logger *slog.Logger) (eventhub.Transport, error) {
	switch cfg.EventHub.Driver {
	case config.EventHubAMQP:
		return eventhub.NewAMQPTransport(eventhub.AMQPConfig{
			URL:      cfg.EventHub.URL,
			Exchange: cfg.EventHub.Exchange,
			Queue:    cfg.EventHub.Queue,
			Prefetch: cfg.EventHub.Prefetch,
		}, logger)
	case config.EventHubMemory, "":
		return eventhub.NewMemoryTransport(0), nil
	default:
		return nil, fmt.Errorf("unknown event hub driver %q", cfg.EventHub.Driver)
	}
}

// PIDPath returns where the running daemon records its process id.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "shothook.pid")
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "shothook.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("host", cfg.Host.ServerURL),
		logging.Bool("api_key_present", strings.TrimSpace(cfg.Host.APIKey) != ""),
		logging.String("event_hub", preflight.DescribeEventHub(cfg)),
		logging.String("sessions", cfg.Sessions.Driver),
		logging.String("ledger", cfg.Ledger.Driver),
		logging.Bool("output_manager", cfg.Actions.OutputManager),
		logging.Bool("transfer_file", cfg.Actions.TransferFile),
		logging.Bool("viewer", cfg.Actions.Viewer),
		logging.Bool("status_sync", cfg.Actions.StatusSync),
		logging.Bool("mail", cfg.Mail.Enabled),
		logging.Strings("task_names", cfg.Actions.TaskNames),
	)
}
