package content

import (
	"fmt"
	"time"
)

// Record is one section's editable content tree.
type Record = map[string]interface{}

// Normalize converts a decoded tree into the shape encoding/json would produce:
// string-keyed maps, []interface{} slices and float64 numbers. YAML and TOML
// decoders hand back map[interface{}]interface{}, typed slices, ints and times.
func Normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[key] = Normalize(inner)
		}
		return normalized
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = Normalize(inner)
		}
		return normalized
	case map[string]string:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[key] = inner
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = Normalize(v[i])
		}
		return slice
	case []map[string]interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = Normalize(v[i])
		}
		return slice
	case []string:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = v[i]
		}
		return slice
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

// NormalizeRecord is Normalize for a top-level record. Nil stays nil.
func NormalizeRecord(r map[string]interface{}) Record {
	if r == nil {
		return nil
	}
	return Normalize(r).(map[string]interface{})
}

// Clone deep-copies maps and slices. Scalars are shared.
func Clone(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			out[key] = Clone(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = Clone(v[i])
		}
		return out
	default:
		return v
	}
}

// CloneRecord deep-copies a record.
func CloneRecord(r Record) Record {
	if r == nil {
		return nil
	}
	return Clone(r).(map[string]interface{})
}

// Walk calls fn for every string leaf and stores its return value in place.
// It is meant for freshly decoded trees the caller owns.
func Walk(value interface{}, fn func(string) string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, inner := range v {
			v[key] = Walk(inner, fn)
		}
		return v
	case []interface{}:
		for i := range v {
			v[i] = Walk(v[i], fn)
		}
		return v
	case string:
		return fn(v)
	default:
		return v
	}
}
