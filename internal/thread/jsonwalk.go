package thread

import "sort"

// maxSearchDepth bounds the embedded-state traversal. The page state is a
// deep but finite tree; anything past this depth is noise.
const maxSearchDepth = 20

// findPostObjects walks a decoded JSON value with an explicit stack and
// calls visit for every object that looks like a post record. Values are
// the encoding/json sum: nil, bool, float64, string, []any, map[string]any.
// Traversal order is deterministic (array order, sorted object keys) so
// thread positions are stable across runs.
func findPostObjects(root any, visit func(map[string]any)) {
	type frame struct {
		value any
		depth int
	}

	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxSearchDepth {
			continue
		}

		switch v := f.value.(type) {
		case map[string]any:
			if looksLikePost(v) {
				visit(v)
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, frame{v[keys[i]], f.depth + 1})
			}
		case []any:
			for i := len(v) - 1; i >= 0; i-- {
				stack = append(stack, frame{v[i], f.depth + 1})
			}
		}
	}
}

// looksLikePost checks for the minimal shape of a post record: a string id
// plus text either directly or under the legacy wrapper.
func looksLikePost(obj map[string]any) bool {
	_, hasIDStr := obj["id_str"].(string)
	_, hasRestID := obj["rest_id"].(string)
	if !hasIDStr && !hasRestID {
		return false
	}

	if _, ok := obj["full_text"].(string); ok {
		return true
	}
	if _, ok := obj["text"].(string); ok {
		return true
	}
	_, hasLegacy := obj["legacy"]
	return hasLegacy
}

// nested resolves a path of object keys, returning nil when any step is
// absent or not an object.
func nested(v any, path ...string) any {
	for _, key := range path {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[key]
	}
	return v
}

func stringAt(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
