package content

import "strings"

// SetPath returns a copy of record with value stored at the dotted path.
//
// Every object level on the path is shallow-copied, so subtrees off the path
// keep their identity. Missing or non-object intermediates are replaced with
// empty objects. A path with an empty segment ("", "a.", "a..b") yields a plain
// shallow copy of record. The input is never modified.
func SetPath(record Record, path string, value interface{}) Record {
	out := shallowCopy(record)
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return out
		}
	}

	cur := out
	for _, seg := range segments[:len(segments)-1] {
		child, ok := cur[seg].(map[string]interface{})
		if ok {
			child = shallowCopy(child)
		} else {
			child = make(map[string]interface{})
		}
		cur[seg] = child
		cur = child
	}
	cur[segments[len(segments)-1]] = value
	return out
}

// GetPath reads the value at a dotted path.
func GetPath(record Record, path string) (interface{}, bool) {
	if record == nil || path == "" {
		return nil, false
	}
	var cur interface{} = record
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok || seg == "" {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func shallowCopy(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
