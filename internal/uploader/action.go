package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"shothook/internal/actions"
	"shothook/internal/config"
	"shothook/internal/host"
	"shothook/internal/jobs"
	"shothook/internal/logging"
	"shothook/internal/services"
	"shothook/internal/sessions"
	"shothook/internal/shotpath"
)

const (
	// Identifier is the action identifier registered with the host.
	Identifier = "sde_output_manager"
	// Label is the menu label.
	Label = "Output Manager"
	// FieldOutputFile is the form field holding the chosen file.
	FieldOutputFile = "output_file"
	// JobKind tags upload jobs in the ledger.
	JobKind = "upload"

	introText   = "Upload manager creates a web viewable preview and links it back to the server."
	noneText    = "None selected."
	waitingText = "This may take a few minutes."
	headerText  = "Currently uploading:"
)

// Submitter starts background jobs.
type Submitter interface {
	Submit(ctx context.Context, job jobs.Job) (*jobs.Handle, error)
}

// Session is what the first launch phase remembers for the form submission.
type Session struct {
	TaskID     string   `json:"task_id"`
	TaskName   string   `json:"task_name"`
	ProjectID  string   `json:"project_id"`
	ParentID   string   `json:"parent_id"`
	ShotName   string   `json:"shot_name"`
	OutputPath string   `json:"output_path"`
	Files      []string `json:"files"`
}

// Action publishes files from a shot's output folder as reviewable versions.
type Action struct {
	client      host.Client
	sessions    sessions.Store
	jobs        Submitter
	gate        actions.TaskGate
	disk        shotpath.Disk
	outDir      string
	strategies  []shotpath.Strategy
	statusIndex int
	logger      *slog.Logger
}

var _ actions.Action = (*Action)(nil)

// New constructs the uploader from configuration.
func New(cfg *config.Config, client host.Client, store sessions.Store, runner Submitter, logger *slog.Logger) *Action {
	return &Action{
		client:      client,
		sessions:    store,
		jobs:        runner,
		gate:        actions.TaskGate{Names: cfg.Actions.TaskNames, Tasks: client},
		disk:        shotpath.NewLocalDisk(cfg.Paths.ProjectRoot),
		outDir:      cfg.Paths.OutputDirName,
		strategies:  shotpath.DefaultStrategies,
		statusIndex: cfg.Actions.UploadStatusIndex,
		logger:      logging.NewComponentLogger(logger, "uploader"),
	}
}

// WithDisk replaces the storage accessor.
func (a *Action) WithDisk(disk shotpath.Disk) *Action {
	a.disk = disk
	return a
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

// Launch lists the output folder on the first call and starts the upload on
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
	shot, _, err := shotpath.Load(ctx, a.client, task)
	if err != nil {
		return nil, err
	}
	res := shotpath.Resolve(a.disk, shot, a.outDir, a.strategies)
	if msg, bad := actions.ResolutionProblem(res); bad {
		logger.Info("output folder unavailable",
			logging.String("task_id", task.ID),
			logging.String("reason", msg),
			logging.Strings("missing", shot.Missing()),
		)
		return actions.Labels(msg), nil
	}

	files, err := a.disk.List(res.Selected.Relative)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "uploader", "list output folder", res.Selected.Path, err)
	}
	session := Session{
		TaskID:     task.ID,
		TaskName:   task.Name,
		ProjectID:  task.ProjectID,
		ParentID:   task.ParentID,
		ShotName:   shot.ShotName(),
		OutputPath: res.Selected.Path,
		Files:      files,
	}
	if err := a.sessions.Save(ctx, req.CorrelationID, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	logger.Debug("output folder listed",
		logging.String("strategy", res.Selected.Strategy),
		logging.String("path", res.Selected.Path),
		logging.Int("files", len(files)),
	)
	return actions.Items(
		actions.Label(introText),
		actions.Label("Current shot: "+session.ShotName),
		actions.Enumerator(FieldOutputFile, "Output file", files),
	), nil
}

func (a *Action) submit(ctx context.Context, req actions.Request) (map[string]any, error) {
	logger := logging.WithContext(ctx, a.logger)
	file, _ := req.Value(FieldOutputFile)
	file = strings.TrimSpace(file)
	if file == "" {
		return actions.Labels(headerText, noneText, waitingText), nil
	}

	var session Session
	found, err := a.sessions.Load(ctx, req.CorrelationID, &session)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		logger.Info("upload submitted without session", logging.String("file", file))
		return actions.Labels(actions.MessageSessionExpired), nil
	}
	if !slices.Contains(session.Files, file) {
		return nil, services.Wrap(services.ErrValidation, "uploader", "submit",
			fmt.Sprintf("%q is not in the output folder listing", file), nil)
	}

	path := filepath.Join(session.OutputPath, file)
	handle, err := a.jobs.Submit(ctx, jobs.Job{
		Kind:   JobKind,
		Key:    session.TaskID + "/" + file,
		Detail: path,
		Run: func(ctx context.Context) error {
			return a.upload(ctx, session, file, path)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start upload: %w", err)
	}

	task := host.Task{ID: session.TaskID, Name: session.TaskName, ProjectID: session.ProjectID}
	status, err := actions.SetWorkflowStatus(ctx, a.client, task, a.statusIndex)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Delete(ctx, req.CorrelationID); err != nil {
		logger.Debug("session delete failed", logging.Error(err))
	}
	logger.Info("upload started",
		logging.String(logging.FieldJobID, handle.ID()),
		logging.String("file", path),
		logging.String("status", status.Name),
	)
	return actions.Labels(headerText, file, waitingText), nil
}
