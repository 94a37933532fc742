package cli

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matzehuels/widgetgrid/pkg/errors"
)

// parseInts parses args as integers named by names, for error messages.
func parseInts(args []string, names ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			name := "argument"
			if i < len(names) {
				name = names[i]
			}
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", name, a)
		}
		out[i] = n
	}
	return out, nil
}

// parseAssignments parses key=value pairs. Values that are valid JSON are
// decoded (numbers, booleans, objects, ...); anything else is a string.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "expected key=value, got %q", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

// mergeSettings returns a copy of base, when it is an object, with updates
// applied. A nil update value deletes the key.
func mergeSettings(base any, updates map[string]any) map[string]any {
	out := map[string]any{}
	if m, ok := base.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	for k, v := range updates {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
