package content

import "strings"

type mergeConfig struct {
	emptyStringUnset bool
}

// MergeOption tunes MergeWithDefaults.
type MergeOption func(*mergeConfig)

// KeepEmptyStrings makes a stored "" win over the default.
func KeepEmptyStrings() MergeOption {
	return func(c *mergeConfig) { c.emptyStringUnset = false }
}

// MergeWithDefaults fills the gaps of a stored record from a complete default.
//
// A nil loaded record returns defaults itself. Otherwise the result has exactly
// the key set of defaults at every object level: nested objects recurse, arrays
// are taken whole from loaded when non-empty, and any other value comes from
// loaded when present and non-nil. Blank strings count as unset unless
// KeepEmptyStrings is given.
func MergeWithDefaults(loaded, defaults Record, opts ...MergeOption) Record {
	if loaded == nil {
		return defaults
	}
	cfg := mergeConfig{emptyStringUnset: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return mergeObject(loaded, defaults, cfg)
}

func mergeObject(loaded, defaults map[string]interface{}, cfg mergeConfig) map[string]interface{} {
	out := make(map[string]interface{}, len(defaults))
	for key, def := range defaults {
		val, present := loaded[key]
		out[key] = mergeValue(val, present, def, cfg)
	}
	return out
}

func mergeValue(val interface{}, present bool, def interface{}, cfg mergeConfig) interface{} {
	if !present || val == nil {
		return def
	}
	switch d := def.(type) {
	case map[string]interface{}:
		if m, ok := val.(map[string]interface{}); ok {
			return mergeObject(m, d, cfg)
		}
		return def
	case []interface{}:
		if list, ok := val.([]interface{}); ok && len(list) > 0 {
			return list
		}
		return def
	case string:
		s, ok := val.(string)
		if !ok {
			return val
		}
		if cfg.emptyStringUnset && strings.TrimSpace(s) == "" {
			return def
		}
		return s
	default:
		return val
	}
}
