package list

import (
	"strconv"

	json "github.com/goccy/go-json"

	"site-admin/pkg/content"
	"site-admin/pkg/staging"
)

// Item is one entry of a repeatable collection (FAQ entry, card, timeline step).
// It marshals flat as {"id": ..., <fields>}; File never leaves the process.
type Item struct {
	ID     string
	Fields map[string]interface{}
	File   *staging.File
}

// Get reads a field. "id" reads the item ID.
func (it Item) Get(field string) interface{} {
	if field == "id" {
		return it.ID
	}
	return it.Fields[field]
}

// With returns a shallow copy with field set.
func (it Item) With(field string, value interface{}) Item {
	if field == "id" {
		it.ID = idString(value)
		return it
	}
	fields := make(map[string]interface{}, len(it.Fields)+1)
	for k, v := range it.Fields {
		fields[k] = v
	}
	fields[field] = value
	it.Fields = fields
	return it
}

// Value is the JSON-shaped form sent over the wire.
func (it Item) Value() map[string]interface{} {
	out := make(map[string]interface{}, len(it.Fields)+1)
	for k, v := range it.Fields {
		out[k] = v
	}
	out["id"] = it.ID
	return out
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(it.Value())
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*it = FromValue(raw)
	return nil
}

// FromValue builds an Item from a decoded object. Numeric ids are kept as
// their decimal text.
func FromValue(v map[string]interface{}) Item {
	it := Item{Fields: make(map[string]interface{}, len(v))}
	for k, inner := range v {
		if k == "id" {
			it.ID = idString(inner)
			continue
		}
		it.Fields[k] = inner
	}
	return it
}

// FromValues converts a decoded array. Non-object elements are skipped.
func FromValues(values []interface{}) []Item {
	items := make([]Item, 0, len(values))
	for _, v := range values {
		if m, ok := v.(map[string]interface{}); ok {
			items = append(items, FromValue(m))
		}
	}
	return items
}

// Values is the inverse of FromValues.
func Values(items []Item) []interface{} {
	out := make([]interface{}, len(items))
	for i, it := range items {
		out[i] = it.Value()
	}
	return out
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(id)
		return string(b)
	}
}

func cloneFields(template map[string]interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(template))
	for k, v := range template {
		if k == "id" {
			continue
		}
		fields[k] = content.Clone(v)
	}
	return fields
}
