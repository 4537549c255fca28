package viewer

import (
	"context"
	"log/slog"

	"shothook/internal/actions"
	"shothook/internal/eventhub"
	"shothook/internal/logging"
)

// Action opens asset versions in an image viewer.
type Action struct {
	identifier string
	label      string
	store      *Store
	client     VersionReader
	starter    Starter
	logger     *slog.Logger
}

var _ actions.Action = (*Action)(nil)

// NewAction constructs the launcher action.
func NewAction(identifier, label string, store *Store, client VersionReader, starter Starter, logger *slog.Logger) *Action {
	if starter == nil {
		starter = NewStarter()
	}
	return &Action{
		identifier: identifier,
		label:      label,
		store:      store,
		client:     client,
		starter:    starter,
		logger:     logging.NewComponentLogger(logger, "viewer"),
	}
}

func (a *Action) Identifier() string { return a.identifier }

func (a *Action) Label() string { return a.label }

// Discover lists every installation when exactly one asset version is
// selected.
func (a *Action) Discover(_ context.Context, req actions.Request) ([]actions.DiscoverItem, error) {
	if _, ok := actions.Single(req.Selection, actions.EntityAssetVersion); !ok {
		return nil, nil
	}
	apps := a.store.Applications()
	items := make([]actions.DiscoverItem, 0, len(apps))
	for _, app := range apps {
		items = append(items, actions.DiscoverItem{
			ActionIdentifier:      a.identifier,
			Label:                 app.Label,
			Variant:               app.Variant,
			Description:           app.Description,
			Icon:                  app.Icon,
			ApplicationIdentifier: app.Identifier,
		})
	}
	return items, nil
}

// Launch starts the chosen installation, opening the selected image sequence
// when its server link can be found. Later subscribers do not see the event.
func (a *Action) Launch(ctx context.Context, req actions.Request) (map[string]any, error) {
	eventhub.Stop(ctx)
	logger := logging.WithContext(ctx, a.logger)

	appID := req.ApplicationIdentifier()
	app, ok := a.store.Get(appID)
	if !ok {
		logger.Warn("unknown viewer requested",
			logging.String("application", appID),
			logging.String(logging.FieldEventType, "viewer_unknown"),
			logging.String(logging.FieldErrorHint, "the viewer may have been removed since discovery"),
		)
		return actions.Result(false, "No application found matching identifier "+appID), nil
	}

	file := a.selectedFile(ctx, logger, req)
	argv := Command(app, file)
	if err := a.starter.Start(ctx, argv[0], argv[1:]...); err != nil {
		logging.ErrorWithContext(logger, "viewer launch failed", "viewer_launch_failed",
			logging.String("application", app.Identifier),
			logging.Error(err),
		)
		return actions.Result(false, "Could not launch "+app.Label+": "+err.Error()), nil
	}
	logger.Info("viewer launched",
		logging.String("application", app.Identifier),
		logging.String("file", file),
	)
	return actions.Result(true, "Launched "+app.Label), nil
}

func (a *Action) selectedFile(ctx context.Context, logger *slog.Logger, req actions.Request) string {
	entity, ok := actions.Single(req.Selection, actions.EntityAssetVersion)
	if !ok || a.client == nil {
		return ""
	}
	lookup, applicable := LookupServerLink(ctx, a.client, entity.ID)
	if !applicable {
		return ""
	}
	switch lookup.Kind {
	case Found:
		return lookup.Component.FilesystemPath
	case NotFound:
		logging.WarnWithContext(logger, "no server link on version", "viewer_component_missing",
			logging.String("version_id", entity.ID),
			logging.String(logging.FieldImpact, "viewer opens without a file"),
		)
	default:
		logging.WarnWithContext(logger, "server link lookup failed", "viewer_component_lookup_failed",
			logging.String("version_id", entity.ID),
			logging.Error(lookup.Reason),
			logging.String(logging.FieldImpact, "viewer opens without a file"),
		)
	}
	return ""
}
