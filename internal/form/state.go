// Package form holds the user-entered analysis form: the text fields, the
// enhanced-model checkbox and the optional selected message file.
package form

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Field names accepted by SetField
const (
	FieldSenderEmail  = "senderEmail"
	FieldEmailContent = "emailContent"
	FieldRawHeaders   = "rawHeaders"
	FieldUseEnhanced  = "useEnhanced"
)

// ErrUnknownField is returned by SetField for names outside the form
var ErrUnknownField = errors.New("unknown form field")

// Data is the text part of the form
type Data struct {
	SenderEmail  string `json:"senderEmail"`
	EmailContent string `json:"emailContent"`
	RawHeaders   string `json:"rawHeaders"`
	UseEnhanced  bool   `json:"useEnhanced"`
}

// File is an uploaded message file
type File struct {
	Name string
	Data []byte
}

// Snapshot is a point-in-time copy of the form
type Snapshot struct {
	Data Data
	File *File
}

// State is the single form state tree
type State struct {
	mu   sync.Mutex
	data Data
	file *File
	// picker identifies the file the native input currently holds
	picker string
}

// New creates an empty form
func New() *State {
	return &State{}
}

// SetField updates one field. The checkbox field stores a boolean.
func (s *State) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case FieldSenderEmail:
		s.data.SenderEmail = value
	case FieldEmailContent:
		s.data.EmailContent = value
	case FieldRawHeaders:
		s.data.RawHeaders = value
	case FieldUseEnhanced:
		s.data.UseEnhanced = parseCheckbox(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Update applies fn to the form data under the state lock
func (s *State) Update(fn func(d *Data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// Pick records a selection in the file picker. It reports false when the
// picker already holds the same file, since no change event fires then. A
// different file under the same name is new input.
func (s *State) Pick(name string, data []byte) bool {
	key := pickerKey(name, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.picker == key {
		return false
	}
	s.picker = key
	return true
}

// SetFile sets the selected file
func (s *State) SetFile(f *File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = f
}

// ClearFile drops the selected file but leaves the picker untouched
func (s *State) ClearFile() {
	s.SetFile(nil)
}

// Reset restores every field to empty, drops the file and clears the picker
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = Data{}
	s.file = nil
	s.picker = ""
}

// Snapshot copies the current form
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Data: s.data}
	if s.file != nil {
		data := make([]byte, len(s.file.Data))
		copy(data, s.file.Data)
		snap.File = &File{Name: s.file.Name, Data: data}
	}
	return snap
}

// Data returns a copy of the text fields
func (s *State) Data() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// FileName returns the selected file name, or "" when none is selected
func (s *State) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.file.Name
}

// pickerKey identifies a file by name and content
func pickerKey(name string, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%d:%x", name, len(data), sum)
}

func parseCheckbox(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "on" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
