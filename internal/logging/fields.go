package logging

import (
	"log/slog"
	"strings"
)

// kv is a flattened attribute; group names are joined into the key with dots.
type kv struct {
	key   string
	value slog.Value
}

func flattenAttrs(dst *[]kv, groups []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, groups, attr)
	}
}

func flattenAttr(dst *[]kv, groups []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = appendPrefix(groups, attr.Key)
		}
		flattenAttrs(dst, inner, value.Group())
		return
	}
	parts := groups
	if attr.Key != "" {
		parts = appendPrefix(groups, attr.Key)
	}
	if len(parts) == 0 {
		return
	}
	*dst = append(*dst, kv{key: strings.Join(parts, "."), value: value})
}

// dedupeKVsByKey keeps the first position of each key and the last value,
// so call-site attrs override logger attrs without reordering output.
func dedupeKVsByKey(attrs []kv) []kv {
	index := make(map[string]int, len(attrs))
	out := attrs[:0:0]
	for _, attr := range attrs {
		if i, seen := index[attr.key]; seen {
			out[i].value = attr.value
			continue
		}
		index[attr.key] = len(out)
		out = append(out, attr)
	}
	return out
}

func appendPrefix(prefix []string, value string) []string {
	return append(prefix[:len(prefix):len(prefix)], value)
}
