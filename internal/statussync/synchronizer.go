package statussync

import (
	"context"
	"fmt"
	"log/slog"

	"shothook/internal/actions"
	"shothook/internal/eventhub"
	"shothook/internal/host"
	"shothook/internal/logging"
	"shothook/internal/statuses"
)

// Client is the host API surface the synchronizer uses.
type Client interface {
	Task(ctx context.Context, id string) (host.Task, error)
	TaskAssignees(ctx context.Context, taskID string) ([]host.User, error)
	SetTaskStatus(ctx context.Context, taskID, statusID string) error
	AssetVersion(ctx context.Context, id string) (host.AssetVersion, error)
}

// Change is one entry of an update event's data.entities.
type Change struct {
	EntityID   string
	EntityType string
	Action     string
}

// Synchronizer keeps task statuses in step with assignment and review
// activity.
type Synchronizer struct {
	client  Client
	catalog *statuses.Catalog
	logger  *slog.Logger
}

// New constructs a synchronizer.
func New(client Client, catalog *statuses.Catalog, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		client:  client,
		catalog: catalog,
		logger:  logging.NewComponentLogger(logger, "statussync"),
	}
}

// Register subscribes the synchronizer to update events.
func (s *Synchronizer) Register(hub *eventhub.Hub) error {
	_, err := hub.Subscribe("topic="+eventhub.TopicUpdate, s.Handle,
		eventhub.WithoutReply(), eventhub.WithName("statussync"))
	return err
}

// Handle applies the status rules to every entity in an update event.
func (s *Synchronizer) Handle(ctx context.Context, ev eventhub.Event) (map[string]any, error) {
	return nil, s.Apply(ctx, ParseChanges(ev))
}

// ParseChanges reads data.entities from ev.
func ParseChanges(ev eventhub.Event) []Change {
	raw, ok := ev.Lookup("data.entities")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	changes := make([]Change, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := Change{}
		c.EntityID, _ = m["entityId"].(string)
		c.EntityType, _ = m["entityType"].(string)
		c.Action, _ = m["action"].(string)
		if c.EntityID == "" {
			continue
		}
		changes = append(changes, c)
	}
	return changes
}

// Apply runs the rules for each change in order. The first host failure stops
// processing and is returned.
func (s *Synchronizer) Apply(ctx context.Context, changes []Change) error {
	logger := logging.WithContext(ctx, s.logger)
	for _, change := range changes {
		if change.Action != "update" {
			continue
		}
		entity := actions.Entity{ID: change.EntityID, Type: change.EntityType}
		var err error
		switch {
		case entity.Is(actions.EntityTask):
			err = s.syncAssignment(ctx, logger, change.EntityID)
		case entity.Is(actions.EntityAssetVersion):
			err = s.syncReview(ctx, logger, change.EntityID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Synchronizer) syncAssignment(ctx context.Context, logger *slog.Logger, taskID string) error {
	task, err := s.client.Task(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task %s: %w", taskID, err)
	}
	if s.catalog.Is(task.StatusID, statuses.OnHold) || s.catalog.Is(task.StatusID, statuses.Omitted) {
		logger.Debug("task status frozen", logging.String("task_id", taskID))
		// Only this task is skipped. An update event batches unrelated
		// entities, so a frozen task must not block the others in it.
		return nil
	}
	assignees, err := s.client.TaskAssignees(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load assignees of %s: %w", taskID, err)
	}

	notStarted := s.catalog.Is(task.StatusID, statuses.NotStarted)
	switch {
	case notStarted && len(assignees) > 0:
		return s.setStatus(ctx, logger, task, statuses.Assigned, "task assigned")
	case !notStarted && len(assignees) == 0:
		return s.setStatus(ctx, logger, task, statuses.NotStarted, "task unassigned")
	}
	return nil
}

func (s *Synchronizer) syncReview(ctx context.Context, logger *slog.Logger, versionID string) error {
	version, err := s.client.AssetVersion(ctx, versionID)
	if err != nil {
		return fmt.Errorf("load asset version %s: %w", versionID, err)
	}
	if version.TaskID == "" {
		logger.Debug("asset version has no task", logging.String("version_id", versionID))
		return nil
	}
	task, err := s.client.Task(ctx, version.TaskID)
	if err != nil {
		return fmt.Errorf("load task %s: %w", version.TaskID, err)
	}
	if s.catalog.Is(task.StatusID, statuses.ForReview) {
		return nil
	}
	return s.setStatus(ctx, logger, task, statuses.ForReview, "new version for review")
}

func (s *Synchronizer) setStatus(ctx context.Context, logger *slog.Logger, task host.Task, name statuses.Name, reason string) error {
	id, ok := s.catalog.ID(name)
	if !ok {
		return fmt.Errorf("status %s is not resolved", name)
	}
	if err := s.client.SetTaskStatus(ctx, task.ID, id); err != nil {
		return fmt.Errorf("set %s on task %s: %w", name, task.ID, err)
	}
	logger.Info(reason,
		logging.String("task_id", task.ID),
		logging.String("task", task.Name),
		logging.String("status", string(name)),
	)
	return nil
}
