package models

import "time"

// Block is a stored content record.
type Block struct {
	ID        string      `json:"id"`
	Subtype   string      `json:"subtype"`
	Mode      string      `json:"mode"`
	Key       string      `json:"key"`
	Values    interface{} `json:"values,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
