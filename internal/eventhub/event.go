package eventhub

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well known topics.
const (
	TopicDiscover = "ftrack.action.discover"
	TopicLaunch   = "ftrack.action.launch"
	TopicUpdate   = "ftrack.update"
	TopicReply    = "ftrack.meta.reply"
)

// SubscribedTopics are the topics the daemon's handlers listen on. Replies
// are published, never consumed.
var SubscribedTopics = []string{TopicDiscover, TopicLaunch, TopicUpdate}

// consumable reports whether a transport should hand ev to the hub. Replies,
// including the daemon's own, are skipped.
func consumable(ev Event) bool {
	return ev.Topic != TopicReply
}

// Event is a message on the host event bus.
type Event struct {
	ID             string         `json:"id"`
	Topic          string         `json:"topic"`
	Data           map[string]any `json:"data"`
	Source         map[string]any `json:"source,omitempty"`
	Target         string         `json:"target,omitempty"`
	InReplyToEvent string         `json:"inReplyToEvent,omitempty"`
	Sent           *time.Time     `json:"sent,omitempty"`
}

// NewEvent builds an event with a fresh id.
func NewEvent(topic string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{ID: uuid.NewString(), Topic: topic, Data: data}
}

// Lookup resolves a dotted path such as "data.actionIdentifier" or
// "source.user.username" against the event.
func (e Event) Lookup(path string) (any, bool) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	if len(parts) == 0 || parts[0] == "" {
		return nil, false
	}
	var current any
	switch parts[0] {
	case "id":
		return e.ID, len(parts) == 1
	case "topic":
		return e.Topic, len(parts) == 1
	case "target":
		return e.Target, len(parts) == 1
	case "inReplyToEvent":
		return e.InReplyToEvent, len(parts) == 1
	case "data":
		current = e.Data
	case "source":
		current = e.Source
	default:
		return nil, false
	}
	for _, key := range parts[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the value at path rendered as a string, or "" when absent.
func (e Event) String(path string) string {
	value, ok := e.Lookup(path)
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// Username returns source.user.username.
func (e Event) Username() string {
	return e.String("source.user.username")
}

// SourceID returns source.id, the address replies are sent to.
func (e Event) SourceID() string {
	return e.String("source.id")
}

// Reply builds the reply event carrying payload for e.
func (e Event) Reply(topic string, payload map[string]any) Event {
	reply := NewEvent(topic, payload)
	reply.InReplyToEvent = e.ID
	if id := e.SourceID(); id != "" {
		reply.Target = fmt.Sprintf("id=%s", id)
	}
	return reply
}
