package common

import (
	"fmt"
	"math"
)

// --------------------------------------------------------------------------
// Wire value helpers
// --------------------------------------------------------------------------

// The serializers do not agree on the Go types they decode into: json yields
// float64 and string, msgpack yields int64/uint64 and []byte, the binary
// format keeps whatever was sent. The helpers below accept all of them.

// AsBytes converts a string or []byte wire value to bytes
func AsBytes(v any) ([]byte, bool) {
	switch t := v.(type) {
	case []byte:
		return t, true
	case string:
		return []byte(t), true
	default:
		return nil, false
	}
}

// AsString converts a string or []byte wire value to a string
func AsString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}

// AsInt converts any integer wire value (or an integral float64) to int64
func AsInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return uintToInt(uint64(t))
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return uintToInt(t)
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt64 || t < math.MinInt64 {
			return 0, false
		}
		return int64(t), true
	default:
		return 0, false
	}
}

func uintToInt(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// AsList converts a sequence wire value to []any
func AsList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		list := make([]any, len(t))
		for i, s := range t {
			list[i] = s
		}
		return list, true
	case [][]byte:
		list := make([]any, len(t))
		for i, b := range t {
			list[i] = b
		}
		return list, true
	default:
		return nil, false
	}
}

// AsMap converts a mapping wire value to map[string]any
func AsMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := AsString(k)
			if !ok {
				key = fmt.Sprint(k)
			}
			m[key] = val
		}
		return m, true
	default:
		return nil, false
	}
}

// TypeName returns a short name for the Go type of a wire value
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
