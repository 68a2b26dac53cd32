package models

import "site-admin/pkg/list"

// Mode selects the API family a section is stored under.
const (
	ModeJSON = "json" // /api/<subtype>/json/<key>, values is an object
	ModeForm = "form" // /api/<subtype>/form/<type>, values is an item array
)

// SectionsConfig is the root of a sections file.
type SectionsConfig struct {
	PlanType string    `yaml:"plan_type" toml:"plan_type" json:"plan_type"`
	Sections []Section `yaml:"sections" toml:"sections" json:"sections" validate:"required,min=1,dive"`
}

// Section describes one editable content block and the page that edits it.
type Section struct {
	Name     string                 `yaml:"name" toml:"name" json:"name" validate:"required"`
	Label    string                 `yaml:"label" toml:"label" json:"label"`
	Subtype  string                 `yaml:"subtype" toml:"subtype" json:"subtype" validate:"required"`
	Mode     string                 `yaml:"mode" toml:"mode" json:"mode" validate:"omitempty,oneof=json form"`
	Key      string                 `yaml:"key" toml:"key" json:"key" validate:"required"`
	Defaults map[string]interface{} `yaml:"defaults" toml:"defaults" json:"defaults"`
	Required []string               `yaml:"required" toml:"required" json:"required,omitempty"`
	List     *ListConfig            `yaml:"list" toml:"list" json:"list,omitempty"`
}

// ListConfig configures the repeatable collection of a section. In json mode
// Path locates the array inside the record; form sections are the array.
type ListConfig struct {
	Path       string                 `yaml:"path" toml:"path" json:"path,omitempty"`
	Template   map[string]interface{} `yaml:"template" toml:"template" json:"template"`
	Required   []string               `yaml:"required" toml:"required" json:"required,omitempty"`
	Searchable []string               `yaml:"searchable" toml:"searchable" json:"searchable,omitempty"`
	Renumber   bool                   `yaml:"renumber" toml:"renumber" json:"renumber,omitempty"`
	OrderField string                 `yaml:"order_field" toml:"order_field" json:"order_field,omitempty"`
	SortField  string                 `yaml:"sort_field" toml:"sort_field" json:"sort_field,omitempty"`
	FileField  string                 `yaml:"file_field" toml:"file_field" json:"file_field,omitempty"`
}

// IsForm reports whether the section stores a bare item array.
func (s Section) IsForm() bool { return s.Mode == ModeForm }

// ListOptions builds controller options for the section's list.
func (s Section) ListOptions(plan string) list.Options {
	if s.List == nil {
		return list.Options{Limit: list.LimitFor(plan)}
	}
	return list.Options{
		Template:   s.List.Template,
		Limit:      list.LimitFor(plan),
		Renumber:   s.List.Renumber,
		OrderField: s.List.OrderField,
		Searchable: s.List.Searchable,
		SortField:  s.List.SortField,
	}
}

// FileFieldName is the item field a staged upload's URL lands in.
func (s Section) FileFieldName() string {
	if s.List != nil && s.List.FileField != "" {
		return s.List.FileField
	}
	return "image"
}
