package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"site-admin/pkg/content"
	"site-admin/pkg/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseSections decodes a sections file. format is "yaml", "toml" or "json".
func ParseSections(data []byte, format string) (*models.SectionsConfig, error) {
	var cfg models.SectionsConfig
	var err error
	switch format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	case "json":
		err = json.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid sections: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Sections))
	for i := range cfg.Sections {
		s := &cfg.Sections[i]
		if seen[s.Name] {
			return nil, fmt.Errorf("invalid sections: duplicate section %q", s.Name)
		}
		seen[s.Name] = true
		if s.Mode == "" {
			s.Mode = models.ModeJSON
		}
		s.Defaults = content.NormalizeRecord(s.Defaults)
		if s.Defaults == nil {
			s.Defaults = content.Record{}
		}
		if s.List != nil {
			s.List.Template = content.NormalizeRecord(s.List.Template)
			if s.Mode == models.ModeJSON && s.List.Path == "" {
				return nil, fmt.Errorf("invalid sections: %s: list.path is required in json mode", s.Name)
			}
		}
	}
	return &cfg, nil
}

// LoadSections reads a sections file, picking the format from its extension.
func LoadSections(path string) (*models.SectionsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ParseSections(data, format)
}

var (
	sectionsMu     sync.Mutex
	sectionsCache  *models.SectionsConfig
	sectionsLoaded string
)

// GetSections returns the parsed sections file, reading it once per path.
func GetSections(path string) (*models.SectionsConfig, error) {
	sectionsMu.Lock()
	defer sectionsMu.Unlock()
	if sectionsCache != nil && sectionsLoaded == path {
		return sectionsCache, nil
	}
	cfg, err := LoadSections(path)
	if err != nil {
		return nil, err
	}
	sectionsCache, sectionsLoaded = cfg, path
	return cfg, nil
}

// FindSection looks a section up by name.
func FindSection(cfg *models.SectionsConfig, name string) (*models.Section, error) {
	for i := range cfg.Sections {
		if cfg.Sections[i].Name == name {
			return &cfg.Sections[i], nil
		}
	}
	return nil, fmt.Errorf("unknown section %q", name)
}

// SafeJoin joins target under root/sub, refusing paths that climb out.
func SafeJoin(root, sub, target string) string {
	cleanTarget := filepath.Clean(target)
	if strings.Contains(cleanTarget, "..") || filepath.IsAbs(cleanTarget) {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}
