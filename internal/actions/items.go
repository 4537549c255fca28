package actions

// Item is one widget in an action menu reply.
type Item map[string]any

// Option is one choice of an enumerator.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Label renders a read-only line of text.
func Label(value string) Item {
	return Item{"type": "label", "value": value}
}

// Enumerator renders a drop-down whose choices use the same string for label
// and value.
func Enumerator(name, label string, values []string) Item {
	options := make([]Option, 0, len(values))
	for _, v := range values {
		options = append(options, Option{Label: v, Value: v})
	}
	return Item{"type": "enumerator", "name": name, "label": label, "data": options}
}

// TextArea renders a multi-line text block.
func TextArea(name, label, value string) Item {
	return Item{"type": "textarea", "name": name, "label": label, "value": value}
}

// Items wraps widgets into a reply payload.
func Items(items ...Item) map[string]any {
	if items == nil {
		items = []Item{}
	}
	return map[string]any{"items": items}
}

// Labels is shorthand for a reply made only of labels.
func Labels(values ...string) map[string]any {
	items := make([]Item, 0, len(values))
	for _, v := range values {
		items = append(items, Label(v))
	}
	return Items(items...)
}

// Result is the launch acknowledgement shape.
func Result(success bool, message string) map[string]any {
	return map[string]any{"success": success, "message": message}
}

// DiscoverItem is one entry in a discover reply.
type DiscoverItem struct {
	ActionIdentifier      string `json:"actionIdentifier"`
	Label                 string `json:"label"`
	Variant               string `json:"variant,omitempty"`
	Description           string `json:"description,omitempty"`
	Icon                  string `json:"icon,omitempty"`
	ApplicationIdentifier string `json:"applicationIdentifier,omitempty"`
}

func (d DiscoverItem) payload() map[string]any {
	out := map[string]any{
		"actionIdentifier": d.ActionIdentifier,
		"label":            d.Label,
	}
	if d.Variant != "" {
		out["variant"] = d.Variant
	}
	if d.Description != "" {
		out["description"] = d.Description
	}
	if d.Icon != "" {
		out["icon"] = d.Icon
	}
	if d.ApplicationIdentifier != "" {
		out["applicationIdentifier"] = d.ApplicationIdentifier
	}
	return out
}
