package actions

import (
	"context"
	"slices"

	"shothook/internal/host"
)

// TaskGetter fetches tasks by id.
type TaskGetter interface {
	Task(ctx context.Context, id string) (host.Task, error)
}

// TaskGate admits selections of exactly one task whose name is in Names.
type TaskGate struct {
	Names []string
	Tasks TaskGetter
}

// Admit returns the selected task when the gate passes. Lookup errors are
// returned as-is.
func (g TaskGate) Admit(ctx context.Context, selection []Entity) (host.Task, bool, error) {
	entity, ok := Single(selection, EntityTask)
	if !ok {
		return host.Task{}, false, nil
	}
	task, err := g.Tasks.Task(ctx, entity.ID)
	if err != nil {
		return host.Task{}, false, err
	}
	if !slices.Contains(g.Names, task.Name) {
		return task, false, nil
	}
	return task, true, nil
}
