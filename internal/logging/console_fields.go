package logging

import "strings"

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

// infoHighlightKeys are promoted to the top of info output in this order.
var infoHighlightKeys = []string{
	FieldEventType,
	FieldTopic,
	FieldJobKind,
	"status",
	"file",
	"destination",
	"path",
	"application",
	"outcome",
	FieldErrorKind,
	FieldErrorHint,
	FieldImpact,
	"error",
}

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
// A limit of zero or less returns every visible field.
func selectInfoFields(attrs []kv, limit int) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make(map[string]struct{}, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	push := func(attr kv) {
		used[attr.key] = struct{}{}
		if limit > 0 && len(result) >= limit {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: formatValue(attr.value)})
	}

	for _, key := range infoHighlightKeys {
		for _, attr := range attrs {
			if attr.key == key {
				push(attr)
			}
		}
	}
	for _, attr := range attrs {
		if _, ok := used[attr.key]; ok {
			continue
		}
		if skipInfoKey(attr.key) {
			continue
		}
		push(attr)
	}
	return result, hidden
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldAction, FieldJobID, FieldCorrelationID, FieldEventID, FieldUser:
		return true
	}
	return false
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldErrorKind:
		return "Error Kind"
	case FieldJobKind:
		return "Job"
	}
	return titleizeKey(key)
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '.' || r == '-'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	if value == "" {
		return value
	}
	first := value[0]
	if first >= 'a' && first <= 'z' {
		first -= 'a' - 'A'
	}
	return string(first) + value[1:]
}
