package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"shothook/internal/actions"
	"shothook/internal/config"
	"shothook/internal/fileutil"
	"shothook/internal/host"
	"shothook/internal/jobs"
	"shothook/internal/logging"
	"shothook/internal/notifications"
	"shothook/internal/services"
	"shothook/internal/sessions"
	"shothook/internal/shotpath"
)

const (
	// Identifier is the action identifier registered with the host.
	Identifier = "sde_transferFile"
	// Label is the menu label.
	Label = "Transfer File"
	// FieldTransferFile is the form field holding the chosen file.
	FieldTransferFile = "transfer_file"
	// FieldTransferFolder is the read-only listing of the destination.
	FieldTransferFolder = "transfer_folder"

	// JobKindCopy tags copy jobs in the ledger.
	JobKindCopy = "transfer"
	// JobKindNotify tags notification jobs in the ledger.
	JobKindNotify = "notify"

	introText = "Transfers a file to the editorial server. WARNING: Currently overwrites existing files!"
	noneText  = "None selected."
)

// Submitter starts background jobs.
type Submitter interface {
	Submit(ctx context.Context, job jobs.Job) (*jobs.Handle, error)
}

// Session is what the first launch phase remembers for the form submission.
type Session struct {
	TaskID          string     `json:"task_id"`
	TaskName        string     `json:"task_name"`
	ProjectID       string     `json:"project_id"`
	ShotName        string     `json:"shot_name"`
	SourcePath      string     `json:"source_path"`
	Destination     string     `json:"destination"`
	DestinationPath string     `json:"destination_path"`
	Files           []string   `json:"files"`
	Recipients      Recipients `json:"recipients"`
}

// Action copies a shot output to the editorial transfer area and tells the
// assistant editors about it.
type Action struct {
	client      host.Client
	sessions    sessions.Store
	jobs        Submitter
	notifier    notifications.Service
	gate        actions.TaskGate
	source      shotpath.Disk
	destination shotpath.Disk
	outDir      string
	strategies  []shotpath.Strategy
	statusIndex int
	logger      *slog.Logger
}

var _ actions.Action = (*Action)(nil)

// New constructs the transfer action from configuration.
func New(cfg *config.Config, client host.Client, store sessions.Store, runner Submitter, notifier notifications.Service, logger *slog.Logger) *Action {
	return &Action{
		client:      client,
		sessions:    store,
		jobs:        runner,
		notifier:    notifier,
		gate:        actions.TaskGate{Names: cfg.Actions.TaskNames, Tasks: client},
		source:      shotpath.NewLocalDisk(cfg.Paths.ProjectRoot),
		destination: shotpath.NewLocalDisk(cfg.Paths.TransferRoot),
		outDir:      cfg.Paths.OutputDirName,
		strategies:  shotpath.DefaultStrategies,
		statusIndex: cfg.Actions.TransferStatusIndex,
		logger:      logging.NewComponentLogger(logger, "transfer"),
	}
}

func (a *Action) Identifier() string { return Identifier }

func (a *Action) Label() string { return Label }

// Discover shows the action for a single gated task.
func (a *Action) Discover(ctx context.Context, req actions.Request) ([]actions.DiscoverItem, error) {
	_, ok, err := a.gate.Admit(ctx, req.Selection)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "task lookup failed during discover", "discover_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "action hidden from menu"),
		)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return []actions.DiscoverItem{{ActionIdentifier: Identifier, Label: Label}}, nil
}

// Launch shows the transfer form on the first call and starts the copy on
// form submission.
func (a *Action) Launch(ctx context.Context, req actions.Request) (map[string]any, error) {
	if req.HasValues() {
		return a.submit(ctx, req)
	}
	return a.prepare(ctx, req)
}

func (a *Action) prepare(ctx context.Context, req actions.Request) (map[string]any, error) {
	logger := logging.WithContext(ctx, a.logger)
	task, ok, err := a.gate.Admit(ctx, req.Selection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	shot, project, err := shotpath.Load(ctx, a.client, task)
	if err != nil {
		return nil, err
	}
	recipients, err := LoadRecipients(ctx, a.client, task, project, logger)
	if err != nil {
		return nil, err
	}

	res := shotpath.Resolve(a.source, shot, a.outDir, a.strategies)
	if msg, bad := actions.ResolutionProblem(res); bad {
		logger.Info("output folder unavailable",
			logging.String("task_id", task.ID),
			logging.String("reason", msg),
			logging.Strings("missing", shot.Missing()),
		)
		return actions.Labels(msg), nil
	}
	files, err := a.source.List(res.Selected.Relative)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "transfer", "list output folder", res.Selected.Path, err)
	}
	destination := shotpath.EditorialDestination(shot)
	existing, err := a.destination.List(destination)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "transfer", "list transfer folder", a.destination.Path(destination), err)
	}

	session := Session{
		TaskID:          task.ID,
		TaskName:        task.Name,
		ProjectID:       task.ProjectID,
		ShotName:        shot.ShotName(),
		SourcePath:      res.Selected.Path,
		Destination:     destination,
		DestinationPath: a.destination.Path(destination),
		Files:           files,
		Recipients:      recipients,
	}
	if err := a.sessions.Save(ctx, req.CorrelationID, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	logger.Debug("transfer form prepared",
		logging.String("strategy", res.Selected.Strategy),
		logging.String("source", session.SourcePath),
		logging.String("destination", session.DestinationPath),
		logging.Int("files", len(files)),
	)

	return actions.Items(
		actions.Label(introText),
		actions.Label("Current shot: "+session.ShotName),
		actions.Enumerator(FieldTransferFile, "File", files),
		actions.Label(""),
		actions.Label("Destination: "+session.DestinationPath),
		actions.TextArea(FieldTransferFolder, "Transfer folder:", strings.Join(existing, "\n")),
		actions.Label(""),
		actions.Label("Notification send to assistant editors: "+joinNames(recipients.Editors, " and ")),
		actions.Label("Copies sent to artist(s) and supervisor(s): "+joinNames(recipients.Copies(), " and ")),
	), nil
}

func (a *Action) submit(ctx context.Context, req actions.Request) (map[string]any, error) {
	logger := logging.WithContext(ctx, a.logger)
	file, _ := req.Value(FieldTransferFile)
	file = strings.TrimSpace(file)

	var session Session
	found, err := a.sessions.Load(ctx, req.CorrelationID, &session)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		logger.Info("transfer submitted without session", logging.String("file", file))
		return actions.Labels(actions.MessageSessionExpired), nil
	}
	if file == "" {
		return copyingLabels(noneText, session.Destination), nil
	}
	if !slices.Contains(session.Files, file) {
		return nil, services.Wrap(services.ErrValidation, "transfer", "submit",
			fmt.Sprintf("%q is not in the output folder listing", file), nil)
	}

	src := filepath.Join(session.SourcePath, file)
	dst := filepath.Join(session.DestinationPath, file)
	copyJob, err := a.jobs.Submit(ctx, jobs.Job{
		Kind:   JobKindCopy,
		Key:    dst,
		Detail: src + " -> " + dst,
		Run: func(ctx context.Context) error {
			return a.copy(ctx, src, dst)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start copy: %w", err)
	}

	task := host.Task{ID: session.TaskID, Name: session.TaskName, ProjectID: session.ProjectID}
	status, err := actions.SetWorkflowStatus(ctx, a.client, task, a.statusIndex)
	if err != nil {
		return nil, err
	}

	a.notify(ctx, logger, session, file)
	if err := a.sessions.Delete(ctx, req.CorrelationID); err != nil {
		logger.Debug("session delete failed", logging.Error(err))
	}
	logger.Info("transfer started",
		logging.String(logging.FieldJobID, copyJob.ID()),
		logging.String("source", src),
		logging.String("destination", dst),
		logging.String("status", status.Name),
	)
	return copyingLabels(file, session.Destination), nil
}

func (a *Action) copy(ctx context.Context, src, dst string) error {
	n, err := fileutil.ReplaceFile(ctx, src, dst)
	if err != nil {
		return services.Wrap(services.ErrExternal, "transfer", "copy", dst, err)
	}
	logging.WithContext(ctx, a.logger).Info("file transferred",
		logging.String("destination", dst),
		logging.Int64("bytes", n),
	)
	return nil
}

// notify queues the transfer notice independently of the copy.
func (a *Action) notify(ctx context.Context, logger *slog.Logger, session Session, file string) {
	if a.notifier == nil || !a.notifier.Enabled() {
		logger.Debug("mail disabled, transfer notice skipped")
		return
	}
	if len(session.Recipients.Editors) == 0 {
		logger.Info("no assistant editors configured, transfer notice skipped",
			logging.String("file", file),
		)
		return
	}
	notice := notifications.Transfer{
		File:        file,
		Destination: session.DestinationPath,
		Editors:     session.Recipients.Editors,
		Contacts:    session.Recipients.Assignees,
		Copies:      session.Recipients.Copies(),
	}
	_, err := a.jobs.Submit(ctx, jobs.Job{
		Kind:   JobKindNotify,
		Key:    "notify:" + filepath.Join(session.DestinationPath, file),
		Detail: file,
		Run: func(ctx context.Context) error {
			return a.notifier.NotifyTransfer(ctx, notice)
		},
	})
	if err != nil {
		logging.WarnWithContext(logger, "transfer notice not queued", "notify_submit_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "editors will not be emailed"),
		)
	}
}

func copyingLabels(file, destination string) map[string]any {
	return actions.Labels("Copying file:", "File: "+file, "Destination: "+destination)
}
