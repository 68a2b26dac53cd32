package models

const (
	DeleteSingle = "single"
	DeleteAll    = "all"
)

// DeleteRequest is a pending destructive confirmation. It is cleared after
// confirm or cancel.
type DeleteRequest struct {
	IsOpen      bool   `json:"is_open"`
	Type        string `json:"type" binding:"required,oneof=single all"`
	Title       string `json:"title"`
	TargetIndex *int   `json:"target_index,omitempty" binding:"required_if=Type single"`
}
