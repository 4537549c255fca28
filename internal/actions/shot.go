package actions

import (
	"context"
	"fmt"

	"shothook/internal/host"
	"shothook/internal/services"
	"shothook/internal/shotpath"
)

// Menu text for shot folders that cannot be used.
const (
	MessageIncompleteContext = "Not enough variables to map current project."
	MessageFolderMissing     = "Output folder does not exist"
	MessageFolderAmbiguous   = "Output folder is ambiguous: both naming conventions exist"
	MessageSessionExpired    = "This menu has expired. Please launch the action again."
)

// ResolutionProblem returns the menu text for a resolution that did not select
// a folder.
func ResolutionProblem(res shotpath.Resolution) (string, bool) {
	switch res.Kind {
	case shotpath.Selected:
		return "", false
	case shotpath.Incomplete:
		return MessageIncompleteContext, true
	case shotpath.Ambiguous:
		return MessageFolderAmbiguous, true
	default:
		return MessageFolderMissing, true
	}
}

// WorkflowClient reads a project's task workflow and writes task statuses.
type WorkflowClient interface {
	ProjectTaskStatuses(ctx context.Context, projectID string) ([]host.Status, error)
	SetTaskStatus(ctx context.Context, taskID, statusID string) error
}

// SetWorkflowStatus moves task to the status at index in its project's
// workflow.
func SetWorkflowStatus(ctx context.Context, client WorkflowClient, task host.Task, index int) (host.Status, error) {
	workflow, err := client.ProjectTaskStatuses(ctx, task.ProjectID)
	if err != nil {
		return host.Status{}, fmt.Errorf("load workflow of project %s: %w", task.ProjectID, err)
	}
	if index < 0 || index >= len(workflow) {
		return host.Status{}, services.Wrap(services.ErrConfiguration, "actions", "set workflow status",
			fmt.Sprintf("workflow has %d statuses, index %d requested", len(workflow), index), nil)
	}
	status := workflow[index]
	if err := client.SetTaskStatus(ctx, task.ID, status.ID); err != nil {
		return host.Status{}, fmt.Errorf("set status %s on task %s: %w", status.Name, task.ID, err)
	}
	return status, nil
}
