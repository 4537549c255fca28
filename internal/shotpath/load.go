package shotpath

import (
	"context"
	"fmt"

	"shothook/internal/host"
)

// HierarchyReader is the host surface needed to name a task's shot.
type HierarchyReader interface {
	TaskAncestors(ctx context.Context, taskID string) ([]host.Link, error)
	Project(ctx context.Context, id string) (host.Project, error)
}

// Load reads the ancestors and project of task and builds its context.
func Load(ctx context.Context, r HierarchyReader, task host.Task) (Context, host.Project, error) {
	ancestors, err := r.TaskAncestors(ctx, task.ID)
	if err != nil {
		return Context{}, host.Project{}, fmt.Errorf("load ancestors of %s: %w", task.ID, err)
	}
	project, err := r.Project(ctx, task.ProjectID)
	if err != nil {
		return Context{}, host.Project{}, fmt.Errorf("load project %s: %w", task.ProjectID, err)
	}
	return FromHierarchy(task, ancestors, project), project, nil
}
