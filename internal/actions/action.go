package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shothook/internal/eventhub"
	"shothook/internal/logging"
	"shothook/internal/services"
)

// Request is the decoded form of a discover or launch event.
type Request struct {
	Event         eventhub.Event
	Selection     []Entity
	Values        map[string]any
	User          string
	CorrelationID string
}

// NewRequest decodes ev for the action identified by actionID.
func NewRequest(actionID string, ev eventhub.Event) Request {
	req := Request{
		Event:     ev,
		Selection: ParseSelection(ev),
		User:      ev.Username(),
	}
	if raw, ok := ev.Lookup("data.values"); ok {
		if values, ok := raw.(map[string]any); ok {
			req.Values = values
		}
	}
	req.CorrelationID = CorrelationKey(actionID, req.User, req.Selection)
	return req
}

// HasValues reports whether the user submitted a form.
func (r Request) HasValues() bool {
	return r.Values != nil
}

// Value returns the submitted value for name.
func (r Request) Value(name string) (string, bool) {
	if r.Values == nil {
		return "", false
	}
	raw, ok := r.Values[name]
	if !ok || raw == nil {
		return "", ok
	}
	if s, ok := raw.(string); ok {
		return s, true
	}
	return fmt.Sprint(raw), true
}

// ApplicationIdentifier returns data.applicationIdentifier.
func (r Request) ApplicationIdentifier() string {
	return r.Event.String("data.applicationIdentifier")
}

// Action is a two-phase menu command.
type Action interface {
	Identifier() string
	Label() string
	// Discover returns menu entries for the selection, or none to stay hidden.
	Discover(ctx context.Context, req Request) ([]DiscoverItem, error)
	// Launch handles both the initial launch and form submissions.
	Launch(ctx context.Context, req Request) (map[string]any, error)
}

// Register subscribes action to discover and launch events. A non-empty
// username limits both subscriptions to events raised by that user.
func Register(hub *eventhub.Hub, action Action, username string, logger *slog.Logger) error {
	if hub == nil || action == nil {
		return fmt.Errorf("register action: hub and action are required")
	}
	id := action.Identifier()
	logger = logging.NewComponentLogger(logger, "action."+id)

	userClause := ""
	if u := strings.TrimSpace(username); u != "" {
		userClause = " and source.user.username=" + u
	}

	discover := func(ctx context.Context, ev eventhub.Event) (map[string]any, error) {
		req := NewRequest(id, ev)
		ctx = services.WithAction(ctx, id)
		items, err := action.Discover(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			out = append(out, item.payload())
		}
		return map[string]any{"items": out}, nil
	}
	launch := func(ctx context.Context, ev eventhub.Event) (map[string]any, error) {
		req := NewRequest(id, ev)
		ctx = services.WithAction(ctx, id)
		ctx = services.WithRequestID(ctx, req.CorrelationID)
		logging.WithContext(ctx, logger).Info("action launched",
			logging.Int("selection", len(req.Selection)),
			logging.Bool("submitted", req.HasValues()),
		)
		return action.Launch(ctx, req)
	}

	if _, err := hub.Subscribe("topic="+eventhub.TopicDiscover+userClause, discover,
		eventhub.WithName(id+".discover")); err != nil {
		return fmt.Errorf("register %s discover: %w", id, err)
	}
	if _, err := hub.Subscribe("topic="+eventhub.TopicLaunch+" and data.actionIdentifier="+id+userClause, launch,
		eventhub.WithName(id+".launch")); err != nil {
		return fmt.Errorf("register %s launch: %w", id, err)
	}
	logger.Debug("action registered", logging.String("label", action.Label()))
	return nil
}
