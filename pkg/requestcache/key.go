package requestcache

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Key builds a deterministic cache key from a prefix and a parameter map.
// Nil-valued parameters are dropped and the remaining keys are serialized in
// sorted order, so the same logical parameters always produce the same key
// regardless of how the map was assembled.
func Key(base string, params map[string]any) string {
	filtered := make(map[string]any, len(params))
	for k, v := range params {
		if isNil(v) {
			continue
		}
		filtered[k] = v
	}

	// encoding/json emits map keys in sorted order.
	encoded, err := json.Marshal(filtered)
	if err != nil {
		return fmt.Sprintf("%s:unserializable:%v", base, err)
	}
	return base + ":" + string(encoded)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
