// Package staging holds locally selected files until they are uploaded.
//
// A staged File owns a temp copy on disk. That path is the preview handle and is
// released exactly once, either when a newer file replaces it or when the
// owning Stager is closed.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File is one staged binary.
type File struct {
	Name string // original file name, sent as the multipart filename
	Path string // temp copy; valid until Release
	Size int64

	once     sync.Once
	released bool
	mu       sync.Mutex
}

// NewFile copies r into a temp file under dir ("" uses os.TempDir).
func NewFile(dir, name string, r io.Reader) (*File, error) {
	base := filepath.Base(strings.ReplaceAll(name, " ", "_"))
	if base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	tmp, err := os.CreateTemp(dir, "staged_*_"+base)
	if err != nil {
		return nil, fmt.Errorf("staging: create temp file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("staging: copy %s: %w", name, err)
	}
	return &File{Name: name, Path: tmp.Name(), Size: n}, nil
}

// Open opens the staged copy for reading.
func (f *File) Open() (*os.File, error) {
	if f.Released() {
		return nil, fmt.Errorf("staging: %s already released", f.Name)
	}
	return os.Open(f.Path)
}

// Release removes the temp copy. Only the first call has an effect.
func (f *File) Release() {
	if f == nil {
		return
	}
	f.once.Do(func() {
		os.Remove(f.Path)
		f.mu.Lock()
		f.released = true
		f.mu.Unlock()
	})
}

// Released reports whether Release has run.
func (f *File) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// Stager tracks staged files by slot (an item id or "path:<field path>").
type Stager struct {
	mu    sync.Mutex
	files map[string]*File
}

func NewStager() *Stager {
	return &Stager{files: make(map[string]*File)}
}

// PathSlot is the slot key for a record-level field.
func PathSlot(path string) string { return "path:" + path }

// Put stages f in slot, releasing whatever was there before.
func (s *Stager) Put(slot string, f *File) {
	s.mu.Lock()
	prev := s.files[slot]
	if f == nil {
		delete(s.files, slot)
	} else {
		s.files[slot] = f
	}
	s.mu.Unlock()
	if prev != nil && prev != f {
		prev.Release()
	}
}

// Get returns the file staged in slot.
func (s *Stager) Get(slot string) *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[slot]
}

// Drop releases and forgets slot.
func (s *Stager) Drop(slot string) {
	s.Put(slot, nil)
}

// Slots returns the occupied slots with the given prefix.
func (s *Stager) Slots(prefix string) map[string]*File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*File)
	for k, f := range s.files {
		if strings.HasPrefix(k, prefix) {
			out[k] = f
		}
	}
	return out
}

// Close releases every staged file.
func (s *Stager) Close() {
	s.mu.Lock()
	files := s.files
	s.files = make(map[string]*File)
	s.mu.Unlock()
	for _, f := range files {
		f.Release()
	}
}
