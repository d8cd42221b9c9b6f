package reqconfig

import "fmt"

// IsMapping reports whether v is a plain mapping.
func IsMapping(v any) bool {
	switch v.(type) {
	case map[string]any, RequestConfig, map[string]string:
		return true
	}
	return false
}

// AsMapping returns v viewed as a map[string]any without copying when possible.
// A map[string]string is copied into a new map. Non-mappings yield nil.
func AsMapping(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case RequestConfig:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out
	}
	return nil
}

// Clone deep-copies plain mappings and sequences. Any other value (numbers, strings, functions,
// pointers, structs, typed slices other than []string) is returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case RequestConfig:
		return RequestConfig(cloneMap(t))
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = cloneMap(e)
		}
		return out
	}
	return v
}

// CloneConfig deep-copies a configuration. A nil input yields an empty configuration.
func CloneConfig(c RequestConfig) RequestConfig {
	if c == nil {
		return RequestConfig{}
	}
	return RequestConfig(cloneMap(c))
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// MergeInto merges source into target one level deep. For every key of source, when the target value
// is a plain mapping the source value's keys are shallow-assigned into it; otherwise the target value is
// replaced. Grandchildren of a merged mapping are replaced wholesale, never merged further.
func MergeInto(target, source map[string]any) {
	if target == nil {
		return
	}
	for key, value := range source {
		current, ok := target[key]
		if !ok || !IsMapping(current) {
			target[key] = value
			continue
		}
		incoming := AsMapping(value)
		if incoming == nil {
			// nothing to assign, the mapping stays as it is
			continue
		}
		dst, promoted := writableMapping(current)
		for k, v := range incoming {
			dst[k] = v
		}
		if promoted {
			target[key] = dst
		}
	}
}

// writableMapping returns a map[string]any that writes land in. A nil mapping is replaced by a fresh
// one, and map[string]string values are promoted to a new map[string]any since arbitrary values cannot
// be stored in them.
func writableMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		if m == nil {
			return map[string]any{}, true
		}
		return m, false
	case RequestConfig:
		if m == nil {
			return map[string]any{}, true
		}
		return m, false
	}
	return AsMapping(v), true
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
