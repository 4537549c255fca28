package testsupport

import (
	"shothook/internal/eventhub"
)

// EventUser is the username attached to events built by this package.
const EventUser = "ana"

// Selected is one entry of an event selection.
type Selected struct {
	ID   string
	Type string
}

// LaunchEvent builds an action launch event. A nil values map produces the
// first phase of a two-phase action.
func LaunchEvent(actionID string, values map[string]any, selection ...Selected) eventhub.Event {
	data := map[string]any{
		"actionIdentifier": actionID,
		"selection":        selectionList(selection),
	}
	if values != nil {
		data["values"] = values
	}
	ev := eventhub.NewEvent(eventhub.TopicLaunch, data)
	ev.Source = map[string]any{"id": "client-1", "user": map[string]any{"username": EventUser}}
	return ev
}

// DiscoverEvent builds an action discover event.
func DiscoverEvent(selection ...Selected) eventhub.Event {
	ev := eventhub.NewEvent(eventhub.TopicDiscover, map[string]any{"selection": selectionList(selection)})
	ev.Source = map[string]any{"id": "client-1", "user": map[string]any{"username": EventUser}}
	return ev
}

func selectionList(selection []Selected) []any {
	list := make([]any, 0, len(selection))
	for _, s := range selection {
		list = append(list, map[string]any{"entityId": s.ID, "entityType": s.Type})
	}
	return list
}
