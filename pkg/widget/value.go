package widget

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/matzehuels/widgetgrid/pkg/errors"
)

// maxValueDepth bounds nesting so that cyclic maps and slices are rejected
// instead of recursing forever.
const maxValueDepth = 256

// IsSerializable reports whether v is plain serializable data: nil, a bool, a
// string, a finite number, or a []any / map[string]any whose elements are
// themselves serializable. Typed slices and maps ([]string, map[string]int,
// ...) are accepted as well since they encode the same way.
func IsSerializable(v any) bool {
	return isSerializable(v, 0)
}

func isSerializable(v any, depth int) bool {
	if depth > maxValueDepth {
		return false
	}
	switch x := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
	case float64:
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	case []any:
		for _, e := range x {
			if !isSerializable(e, depth+1) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, e := range x {
			if !isSerializable(e, depth+1) {
				return false
			}
		}
		return true
	case []string, []bool, []int, []float64, map[string]string, map[string]int, map[string]float64, map[string]bool:
		return true
	}
	return false
}

// Normalize returns v in the canonical form produced by decoding JSON:
// numbers become float64, typed slices become []any and typed maps become
// map[string]any. Two values are equal after normalization exactly when
// they persist identically.
func Normalize(v any) (any, error) {
	if !IsSerializable(v) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "value of type %T is not serializable", v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode value")
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode value")
	}
	return out, nil
}
