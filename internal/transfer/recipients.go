package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shothook/internal/host"
	"shothook/internal/logging"
	"shothook/internal/notifications"
)

// Project custom attributes naming the assistant editors.
const (
	EditorNameAttribute    = "ae_name"
	EditorAddressAttribute = "ae_address"
)

// Recipients groups the people told about a transfer.
type Recipients struct {
	Editors   []notifications.Recipient `json:"editors"`
	Assignees []notifications.Recipient `json:"assignees"`
	Managers  []notifications.Recipient `json:"managers"`
}

// Copies returns assignees followed by managers.
func (r Recipients) Copies() []notifications.Recipient {
	out := make([]notifications.Recipient, 0, len(r.Assignees)+len(r.Managers))
	out = append(out, r.Assignees...)
	return append(out, r.Managers...)
}

// PeopleReader is the host surface needed to find a task's people.
type PeopleReader interface {
	TaskAssignees(ctx context.Context, taskID string) ([]host.User, error)
	TaskManagers(ctx context.Context, taskID string) ([]host.User, error)
}

// LoadRecipients resolves the editors of project and the people on task.
func LoadRecipients(ctx context.Context, r PeopleReader, task host.Task, project host.Project, logger *slog.Logger) (Recipients, error) {
	var out Recipients
	out.Editors = ParseEditors(project, logger)

	assignees, err := r.TaskAssignees(ctx, task.ID)
	if err != nil {
		return Recipients{}, fmt.Errorf("load assignees of %s: %w", task.ID, err)
	}
	managers, err := r.TaskManagers(ctx, task.ID)
	if err != nil {
		return Recipients{}, fmt.Errorf("load managers of %s: %w", task.ID, err)
	}
	out.Assignees = fromUsers(assignees)
	out.Managers = fromUsers(managers)
	return out, nil
}

// ParseEditors pairs the comma separated names and addresses stored on
// project by position. A missing attribute or the value "None" yields no
// editors. Lists of different length are padded to the longer one and the
// mismatch is logged.
func ParseEditors(project host.Project, logger *slog.Logger) []notifications.Recipient {
	rawNames, okNames := project.Attribute(EditorNameAttribute)
	rawAddresses, okAddresses := project.Attribute(EditorAddressAttribute)
	if !okNames || !okAddresses || unset(rawNames) || unset(rawAddresses) {
		return nil
	}
	names := splitList(rawNames)
	addresses := splitList(rawAddresses)
	if len(names) != len(addresses) && logger != nil {
		logging.WarnWithContext(logger, "assistant editor lists differ in length", "editor_list_mismatch",
			logging.String("project", project.Name),
			logging.Int("names", len(names)),
			logging.Int("addresses", len(addresses)),
			logging.String(logging.FieldErrorHint, "fix the ae_name and ae_address project attributes"),
		)
	}
	count := max(len(names), len(addresses))
	out := make([]notifications.Recipient, 0, count)
	for i := 0; i < count; i++ {
		var r notifications.Recipient
		if i < len(names) {
			r.Name = names[i]
		}
		if i < len(addresses) {
			r.Email = addresses[i]
		}
		out = append(out, r)
	}
	return out
}

func unset(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, "none")
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fromUsers(users []host.User) []notifications.Recipient {
	out := make([]notifications.Recipient, 0, len(users))
	for _, u := range users {
		out = append(out, notifications.Recipient{Name: u.DisplayName(), Email: u.Email})
	}
	return out
}

func joinNames(list []notifications.Recipient, sep string) string {
	names := make([]string, 0, len(list))
	for _, r := range list {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return strings.Join(names, sep)
}
