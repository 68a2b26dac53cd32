// Package editor holds the state of one section while it is being edited:
// loaded on open, mutated on every edit, flushed on submit.
package editor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"site-admin/pkg/content"
	"site-admin/pkg/gateway"
	"site-admin/pkg/list"
	"site-admin/pkg/models"
	"site-admin/pkg/staging"
)

// Gateway is the persistence the session talks to. *gateway.Client
// implements it.
type Gateway interface {
	Get(ctx context.Context, ref gateway.Ref) (*gateway.Envelope, error)
	Save(ctx context.Context, ref gateway.Ref, method string, sr gateway.SaveRequest) (*gateway.Envelope, error)
	Delete(ctx context.Context, ref gateway.Ref, id string) error
}

var (
	ErrNoPendingDelete = errors.New("editor: no pending delete request")
	ErrNotRecord       = errors.New("editor: form sections have no record")
	ErrNoList          = errors.New("editor: section has no list")
)

// Status is the user-facing outcome of the last load, save or delete.
type Status struct {
	Busy    bool
	Message string
	Error   string
}

// ValidationError names the first required field that is missing. Index is
// -1 for record-level fields.
type ValidationError struct {
	Index int
	Field string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("item %d: %s is required", e.Index+1, e.Field)
}

type Session struct {
	section models.Section
	plan    string
	gw      Gateway
	logger  *zap.Logger

	id      string
	record  content.Record
	items   *list.Controller
	stager  *staging.Stager
	pending models.DeleteRequest
	status  Status
}

func New(section models.Section, plan string, gw Gateway, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if section.Mode == "" {
		section.Mode = models.ModeJSON
	}
	s := &Session{
		section: section,
		plan:    plan,
		gw:      gw,
		logger:  logger.With(zap.String("section", section.Name)),
		stager:  staging.NewStager(),
	}
	s.reset(nil, "")
	return s
}

func (s *Session) Ref() gateway.Ref {
	return gateway.Ref{Subtype: s.section.Subtype, Mode: s.section.Mode, Key: s.section.Key}
}

func (s *Session) Section() models.Section { return s.section }

// ID is the stored record id, empty until the first save.
func (s *Session) ID() string { return s.id }

func (s *Session) Status() Status { return s.status }

// Load fetches the record. A record that does not exist yet loads as the
// section defaults.
func (s *Session) Load(ctx context.Context) error {
	s.status = Status{Busy: true, Message: "Loading"}
	env, err := s.gw.Get(ctx, s.Ref())
	if errors.Is(err, gateway.ErrNotFound) {
		s.reset(nil, "")
		s.status = Status{Message: "Not created yet"}
		s.logger.Debug("section not stored yet")
		return nil
	}
	if err != nil {
		s.status = Status{Error: "Failed to load: " + err.Error()}
		return err
	}
	s.reset(env.Values, env.ID)
	s.status = Status{Message: "Loaded"}
	return nil
}

// reset replaces all state with values, releasing staged files.
func (s *Session) reset(values interface{}, id string) {
	if s.items != nil {
		s.items.Close()
	}
	s.stager.Close()
	s.pending = models.DeleteRequest{}
	s.id = id

	opts := s.section.ListOptions(s.plan)
	if s.section.IsForm() {
		raw, _ := content.Normalize(values).([]interface{})
		s.record = nil
		s.items = list.NewController(opts, list.FromValues(raw))
		return
	}

	loaded, _ := content.Normalize(values).(map[string]interface{})
	switch {
	case loaded == nil:
		s.record = content.CloneRecord(s.section.Defaults)
	case len(s.section.Defaults) == 0:
		// no declared shape to trim against
		s.record = loaded
	default:
		s.record = content.MergeWithDefaults(loaded, s.section.Defaults)
	}
	if s.record == nil {
		s.record = content.Record{}
	}

	s.items = nil
	if s.section.List != nil && s.section.List.Path != "" {
		raw, _ := content.GetPath(s.record, s.section.List.Path)
		arr, _ := raw.([]interface{})
		s.items = list.NewController(opts, list.FromValues(arr))
	}
}

// Record returns the current values with list items written back. Form
// sections return nil.
func (s *Session) Record() content.Record {
	if s.section.IsForm() {
		return nil
	}
	if s.items == nil {
		return s.record
	}
	return content.SetPath(s.record, s.section.List.Path, list.Values(s.items.Items()))
}

// Values is what Submit sends: the record in json mode, the item array in
// form mode.
func (s *Session) Values() interface{} {
	if s.section.IsForm() {
		return list.Values(s.items.Items())
	}
	return s.Record()
}

// Set assigns value at a dotted path of the record.
func (s *Session) Set(path string, value interface{}) error {
	if s.section.IsForm() {
		return ErrNotRecord
	}
	if s.items != nil && (path == s.section.List.Path || strings.HasPrefix(path, s.section.List.Path+".")) {
		// list writes go through Items so the controller stays the source of truth
		return fmt.Errorf("editor: %s is managed by the list", path)
	}
	s.record = content.SetPath(s.record, path, value)
	return nil
}

// Get reads a dotted path of the record.
func (s *Session) Get(path string) (interface{}, bool) {
	return content.GetPath(s.Record(), path)
}

// Items is the section's list, or nil when it has none.
func (s *Session) Items() *list.Controller { return s.items }

// StageFile stages an upload for a record field. It is sent as
// "file:<path>" and the stored URL replaces the field on save.
func (s *Session) StageFile(path string, f *staging.File) error {
	if s.section.IsForm() {
		f.Release()
		return ErrNotRecord
	}
	s.stager.Put(staging.PathSlot(path), f)
	return nil
}

// Validate checks required record paths, then required item fields.
func (s *Session) Validate() error {
	if !s.section.IsForm() {
		for _, path := range s.section.Required {
			v, _ := content.GetPath(s.Record(), path)
			staged := s.stager.Get(staging.PathSlot(path)) != nil
			if !staged && !list.Filled(v) {
				return &ValidationError{Index: -1, Field: path}
			}
		}
	}
	if s.items != nil && s.section.List != nil {
		for i, it := range s.items.Items() {
			for _, field := range s.section.List.Required {
				if field == s.section.FileFieldName() && it.File != nil {
					continue
				}
				if !list.IsComplete(it, []string{field}) {
					return &ValidationError{Index: i, Field: field}
				}
			}
		}
	}
	return nil
}

// Submit validates and saves. A failed validation sends nothing. On success
// the echoed record becomes the new state and staged files are released.
func (s *Session) Submit(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		s.status = Status{Error: err.Error()}
		return err
	}

	sr := gateway.SaveRequest{
		Values:    s.Values(),
		PathFiles: make(map[string]*staging.File),
		ItemFiles: make(map[int]*staging.File),
		FileField: s.section.FileFieldName(),
	}
	if !s.section.IsForm() && s.section.List != nil {
		sr.ListPath = s.section.List.Path
	}
	for slot, f := range s.stager.Slots(staging.PathSlot("")) {
		sr.PathFiles[strings.TrimPrefix(slot, staging.PathSlot(""))] = f
	}
	if s.items != nil {
		for i, it := range s.items.Items() {
			if it.File != nil {
				sr.ItemFiles[i] = it.File
			}
		}
	}

	method := http.MethodPut
	if s.id == "" {
		method = http.MethodPost
	}

	s.status = Status{Busy: true, Message: "Saving"}
	env, err := s.gw.Save(ctx, s.Ref(), method, sr)
	if err != nil {
		s.status = Status{Error: "Save failed: " + err.Error()}
		s.logger.Warn("save failed", zap.Error(err))
		return err
	}
	s.reset(env.Values, env.ID)
	s.status = Status{Message: "Saved"}
	s.logger.Info("section saved", zap.String("id", s.id), zap.String("method", method))
	return nil
}

// PendingDelete is the open delete confirmation, if any.
func (s *Session) PendingDelete() models.DeleteRequest { return s.pending }

// RequestDelete opens a confirmation. index is only used for single deletes.
func (s *Session) RequestDelete(kind string, index int, title string) error {
	switch kind {
	case models.DeleteAll:
		s.pending = models.DeleteRequest{IsOpen: true, Type: kind, Title: title}
	case models.DeleteSingle:
		if s.items == nil {
			return ErrNoList
		}
		if index < 0 || index >= s.items.Len() {
			return fmt.Errorf("editor: no item at index %d", index)
		}
		s.pending = models.DeleteRequest{IsOpen: true, Type: kind, Title: title, TargetIndex: &index}
	default:
		return fmt.Errorf("editor: unknown delete type %q", kind)
	}
	return nil
}

func (s *Session) CancelDelete() {
	s.pending = models.DeleteRequest{}
}

// ConfirmDelete executes the pending request. A single delete only changes
// local state until the next Submit; "all" deletes the stored record and
// resets to the defaults.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	req := s.pending
	if !req.IsOpen {
		return ErrNoPendingDelete
	}
	s.pending = models.DeleteRequest{}

	if req.Type == models.DeleteSingle {
		s.items.Remove(*req.TargetIndex)
		s.status = Status{Message: "Item removed"}
		return nil
	}

	if s.id != "" {
		s.status = Status{Busy: true, Message: "Deleting"}
		if err := s.gw.Delete(ctx, s.Ref(), s.id); err != nil {
			s.status = Status{Error: "Delete failed: " + err.Error()}
			return err
		}
	}
	s.logger.Info("section cleared", zap.String("id", s.id))
	s.reset(nil, "")
	s.status = Status{Message: "Deleted"}
	return nil
}

// Close releases every staged file.
func (s *Session) Close() {
	if s.items != nil {
		s.items.Close()
	}
	s.stager.Close()
}
