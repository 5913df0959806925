// Package forms builds editable forms from declarative field descriptors and
// validates submitted values before they reach a handler. It owns no
// persistence: file fields carry the raw multipart header, and resolving a
// file to a stored URL is the caller's job.
package forms

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// FieldType enumerates the input kinds a descriptor may declare.
type FieldType string

const (
	Text     FieldType = "text"
	Email    FieldType = "email"
	URL      FieldType = "url"
	Date     FieldType = "date"
	Number   FieldType = "number"
	File     FieldType = "file"
	Textarea FieldType = "textarea"
)

// Field describes one input in a form.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Accept   string // file fields only, e.g. "image/*"
}

// maxMultipartMemory bounds in-memory parsing of multipart bodies.
const maxMultipartMemory = 32 << 20

// Form holds the descriptors plus the current input state of one submission.
type Form struct {
	Fields []Field
	Values map[string]string
	Files  map[string]*multipart.FileHeader
	Errors map[string]string

	general string
}

// New builds a Form from the given descriptors. A descriptor missing any of
// name, label, or type is malformed and dropped entirely.
func New(fields []Field) *Form {
	kept := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" || f.Label == "" || f.Type == "" {
			continue
		}
		kept = append(kept, f)
	}
	return &Form{
		Fields: kept,
		Values: make(map[string]string),
		Files:  make(map[string]*multipart.FileHeader),
		Errors: make(map[string]string),
	}
}

// Parse reads the submitted values for every declared field from r.
// Multipart bodies are parsed so file fields carry their header; a plain
// form body is accepted when no file was attached.
func (f *Form) Parse(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		if err != http.ErrNotMultipart {
			return err
		}
		if err := r.ParseForm(); err != nil {
			return err
		}
	}
	for _, field := range f.Fields {
		if field.Type == File {
			if r.MultipartForm == nil {
				continue
			}
			if headers := r.MultipartForm.File[field.Name]; len(headers) > 0 {
				f.Files[field.Name] = headers[0]
			}
			continue
		}
		f.Values[field.Name] = r.FormValue(field.Name)
	}
	return nil
}

// SetValues seeds the form with defaults, used when editing an existing record.
func (f *Form) SetValues(values map[string]string) {
	for k, v := range values {
		f.Values[k] = v
	}
}

// Validate checks every required field for a non-empty value. Violations are
// recorded per field name for inline display. Empty number fields default to
// "0". It returns true when the form may be submitted.
func (f *Form) Validate() bool {
	for _, field := range f.Fields {
		empty := strings.TrimSpace(f.Values[field.Name]) == ""
		if field.Type == File {
			empty = f.Files[field.Name] == nil && f.Values[field.Name] == ""
		}
		if empty && field.Type == Number {
			f.Values[field.Name] = "0"
			empty = false
		}
		if field.Required && empty {
			f.Errors[field.Name] = field.Label + " is required"
		}
	}
	return len(f.Errors) == 0
}

// Value returns the current input for name.
func (f *Form) Value(name string) string {
	return f.Values[name]
}

// File returns the selected file for name, or nil.
func (f *Form) File(name string) *multipart.FileHeader {
	return f.Files[name]
}

// IntValue coerces the input for name to an integer.
func (f *Form) IntValue(name string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(f.Values[name]))
}

// SetError records a validation message against one field.
func (f *Form) SetError(name, msg string) {
	f.Errors[name] = msg
}

// SetGeneral records a form-level error, e.g. a failed submit handler.
// The entered values stay intact so the user can correct and retry.
func (f *Form) SetGeneral(msg string) {
	f.general = msg
}

// General returns the form-level error message, if any.
func (f *Form) General() string {
	return f.general
}

// Reset clears all input state after a successful submission.
func (f *Form) Reset() {
	f.Values = make(map[string]string)
	f.Files = make(map[string]*multipart.FileHeader)
	f.Errors = make(map[string]string)
	f.general = ""
}
