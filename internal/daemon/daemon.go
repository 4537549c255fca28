package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"shothook/internal/actions"
	"shothook/internal/config"
	"shothook/internal/eventhub"
	"shothook/internal/host"
	"shothook/internal/jobs"
	"shothook/internal/ledger"
	"shothook/internal/logging"
	"shothook/internal/notifications"
	"shothook/internal/sessions"
	"shothook/internal/statuses"
	"shothook/internal/statussync"
	"shothook/internal/transfer"
	"shothook/internal/uploader"
	"shothook/internal/viewer"
)

// Dependencies are the collaborators the daemon wires into its handlers.
// Client and Transport are required; the rest fall back to config driven
// defaults.
type Dependencies struct {
	Client    host.Client
	Transport eventhub.Transport
	Ledger    *ledger.Store
	Sessions  sessions.Store
	Notifier  notifications.Service
	Viewers   *viewer.Store
	Starter   viewer.Starter
	LogStream *logging.StreamHub
}

// Daemon owns the event hub, the background job runner and the single
// instance lock.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	client    host.Client
	transport eventhub.Transport
	ledger    *ledger.Store
	sessions  sessions.Store
	notifier  notifications.Service
	viewers   *viewer.Store
	starter   viewer.Starter
	logStream *logging.StreamHub

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	hub       *eventhub.Hub
	runner    *jobs.Runner
	catalog   *statuses.Catalog
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	lastError string

	running      atomic.Bool
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	LockFilePath  string
	LedgerTarget  string
	Jobs          []jobs.Info
	JobTotals     map[ledger.Status]int
	Subscriptions []eventhub.SubscriptionInfo
	Hub           eventhub.Stats
	Viewers       int
	LastError     string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Client == nil || deps.Transport == nil {
		return nil, errors.New("daemon requires config, host client, and event transport")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Sessions == nil {
		deps.Sessions = sessions.NewMemoryStore(cfg.SessionTTL())
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	if deps.Viewers == nil {
		deps.Viewers = viewer.Discover(cfg.Viewer.Globs, cfg.Viewer.Label, logger)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		client:    deps.Client,
		transport: deps.Transport,
		ledger:    deps.Ledger,
		sessions:  deps.Sessions,
		notifier:  deps.Notifier,
		viewers:   deps.Viewers,
		starter:   deps.Starter,
		logStream: deps.LogStream,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		shutdown:  make(chan struct{}),
	}, nil
}

// Start acquires the daemon lock, resolves the status catalog, registers the
// enabled handlers and begins consuming events.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shothook daemon instance is already running")
	}

	catalog, err := statuses.Resolve(ctx, d.client, d.cfg.Statuses.IDs)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("resolve statuses: %w", err)
	}

	var recorder jobs.Recorder
	if d.ledger != nil {
		recorder = d.ledger
	}
	runner := jobs.New(recorder, d.logger)
	hub := eventhub.New(d.transport, d.cfg.EventHub.ReplyTopic, d.logger)
	if err := d.register(hub, runner, catalog); err != nil {
		runner.Stop()
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.mu.Lock()
	d.hub = hub
	d.runner = runner
	d.catalog = catalog
	d.cancel = cancel
	d.done = done
	d.startedAt = time.Now()
	d.mu.Unlock()

	go func() {
		defer close(done)
		if err := hub.Run(runCtx); err != nil {
			d.setLastError(err)
			logging.ErrorWithContext(d.logger, "event hub stopped unexpectedly", "event_hub_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "host events are no longer handled"),
				logging.String(logging.FieldErrorHint, "check the event_hub settings and broker availability"),
			)
			d.RequestShutdown()
		}
	}()

	d.running.Store(true)
	d.logger.Info("shothook daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("subscriptions", len(hub.Subscriptions())),
		logging.Int("viewers", len(d.viewers.Applications())),
	)
	return nil
}

func (d *Daemon) register(hub *eventhub.Hub, runner *jobs.Runner, catalog *statuses.Catalog) error {
	var handlers []actions.Action
	if d.cfg.Actions.OutputManager {
		handlers = append(handlers, uploader.New(d.cfg, d.client, d.sessions, runner, d.logger))
	}
	if d.cfg.Actions.TransferFile {
		handlers = append(handlers, transfer.New(d.cfg, d.client, d.sessions, runner, d.notifier, d.logger))
	}
	if d.cfg.Actions.Viewer {
		handlers = append(handlers, viewer.NewAction(d.cfg.Viewer.Identifier, d.cfg.Viewer.Label, d.viewers, d.client, d.starter, d.logger))
	}
	for _, action := range handlers {
		if err := actions.Register(hub, action, d.cfg.Host.Username, d.logger); err != nil {
			return err
		}
	}
	if d.cfg.Actions.StatusSync {
		if err := statussync.New(d.client, catalog, d.logger).Register(hub); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops consuming events, drains background jobs and releases the
// daemon lock. Jobs still running after the drain timeout are cancelled.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel, done, runner := d.cancel, d.done, d.runner
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if runner != nil {
		ctx, stop := context.WithTimeout(context.Background(), d.cfg.DrainTimeout())
		if pending := runner.InFlight(); pending > 0 {
			d.logger.Info("waiting for background jobs", logging.Int("jobs", pending))
		}
		if err := runner.Drain(ctx); err != nil {
			logging.WarnWithContext(d.logger, "background jobs did not finish before shutdown", "jobs_drain_timeout",
				logging.Error(err),
				logging.String(logging.FieldImpact, "running jobs are cancelled and recorded as failed"),
				logging.String(logging.FieldErrorHint, "raise jobs.drain_timeout_seconds for large transfers"),
			)
		}
		stop()
		runner.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
		)
	}
	d.running.Store(false)
	d.logger.Info("shothook daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.transport != nil {
		errs = append(errs, d.transport.Close())
	}
	if d.sessions != nil {
		errs = append(errs, d.sessions.Close())
	}
	if d.ledger != nil {
		errs = append(errs, d.ledger.Close())
	}
	return errors.Join(errs...)
}

// RequestShutdown asks the hosting process to exit.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdown) })
}

// ShutdownRequested is closed once RequestShutdown has been called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Publish hands ev to the running event hub.
func (d *Daemon) Publish(ctx context.Context, ev eventhub.Event) error {
	d.mu.Lock()
	hub := d.hub
	d.mu.Unlock()
	if hub == nil || !d.running.Load() {
		return errors.New("daemon not running")
	}
	return hub.Publish(ctx, ev)
}

// TestNotification sends a test mail to the given address.
func (d *Daemon) TestNotification(ctx context.Context, to string) (bool, string, error) {
	if !d.notifier.Enabled() {
		return false, "mail not enabled", nil
	}
	if err := d.notifier.TestNotification(ctx, to); err != nil {
		return false, "failed to send test mail", err
	}
	return true, "test mail sent", nil
}

// Jobs lists ledger records, newest first.
func (d *Daemon) Jobs(ctx context.Context, opts ledger.ListOptions) ([]ledger.Record, error) {
	if d.ledger == nil {
		return nil, errors.New("job ledger unavailable")
	}
	return d.ledger.List(ctx, opts)
}

// Statuses returns the resolved status catalog, or nil before Start.
func (d *Daemon) Statuses() []statuses.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.catalog == nil {
		return nil
	}
	return d.catalog.Entries()
}

// Viewers returns the discovered viewer installations.
func (d *Daemon) Viewers() []viewer.Application {
	return d.viewers.Applications()
}

// LogStream returns the in-memory log buffer, or nil when not configured.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logStream
}

func (d *Daemon) setLastError(err error) {
	d.mu.Lock()
	d.lastError = err.Error()
	d.mu.Unlock()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	hub, runner := d.hub, d.runner
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		LockFilePath: d.lockPath,
		Viewers:      len(d.viewers.Applications()),
		LastError:    d.lastError,
	}
	d.mu.Unlock()

	if runner != nil {
		status.Jobs = runner.Snapshot()
	}
	if hub != nil {
		status.Subscriptions = hub.Subscriptions()
		status.Hub = hub.Stats()
		if status.LastError == "" {
			status.LastError = status.Hub.LastError
		}
	}
	if d.ledger != nil {
		status.LedgerTarget = d.ledger.Target()
		totals, err := d.ledger.Stats(ctx)
		if err != nil {
			d.logger.Debug("ledger stats unavailable", logging.Error(err))
		} else {
			status.JobTotals = totals
		}
	}
	return status
}
