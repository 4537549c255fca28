package actions

import (
	"sort"
	"strings"

	"shothook/internal/eventhub"
)

// Normalized entity types.
const (
	EntityTask         = "task"
	EntityAssetVersion = "assetversion"
)

// Entity is one selected host object.
type Entity struct {
	ID   string
	Type string
}

// NormalizeType lowercases t and drops separators so "AssetVersion",
// "asset_version" and "assetversion" compare equal.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(t)
}

// Is reports whether the entity has the normalized type t.
func (e Entity) Is(t string) bool {
	return NormalizeType(e.Type) == NormalizeType(t)
}

// ParseSelection reads data.selection from ev.
func ParseSelection(ev eventhub.Event) []Entity {
	raw, ok := ev.Lookup("data.selection")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Entity, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["entityId"].(string)
		typ, _ := m["entityType"].(string)
		if strings.TrimSpace(id) == "" {
			continue
		}
		out = append(out, Entity{ID: id, Type: typ})
	}
	return out
}

// Single returns the only selected entity when it has type t.
func Single(selection []Entity, t string) (Entity, bool) {
	if len(selection) != 1 || !selection[0].Is(t) {
		return Entity{}, false
	}
	return selection[0], true
}

// CorrelationKey identifies a two-phase interaction: the same user running the
// same action on the same selection maps to the same key.
func CorrelationKey(actionID, user string, selection []Entity) string {
	ids := make([]string, 0, len(selection))
	for _, e := range selection {
		ids = append(ids, NormalizeType(e.Type)+"/"+e.ID)
	}
	sort.Strings(ids)
	return actionID + ":" + user + ":" + strings.Join(ids, ",")
}
