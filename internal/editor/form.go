// Package editor owns the form lifecycle: defaults for new forms, the field
// operations of the designer, the save-time checks and the Manager that ties
// them to storage.
package editor

import (
	"sort"
	"strings"

	"github.com/lychee-technology/inquiry"
)

var defaultLabels = map[inquiry.FieldType]string{
	inquiry.FieldTypeText:     "Text",
	inquiry.FieldTypeTextarea: "Message",
	inquiry.FieldTypeSelect:   "Select",
	inquiry.FieldTypeRadio:    "Choice",
	inquiry.FieldTypeCheckbox: "Checkboxes",
}

// DefaultOptions seeds new choice fields.
var DefaultOptions = []string{"Option 1", "Option 2"}

// NewForm returns a form with schema defaults: boilerplate CSS, the local
// preview origin as the only allowed domain, auto reply off and uploads
// disabled at the maximum limits.
func NewForm(name string) *inquiry.Form {
	return &inquiry.Form{
		ID:     NewID(),
		Name:   strings.TrimSpace(name),
		Fields: []inquiry.FormField{},
		Styling: inquiry.Styling{
			CSS:   inquiry.DefaultCSS,
			Theme: inquiry.DefaultTheme,
		},
		Settings: inquiry.FormSettings{
			AutoReply: false,
			FileUpload: inquiry.FileUploadSettings{
				Enabled:     false,
				MaxFiles:    inquiry.MaxUploadFiles,
				MaxFileSize: inquiry.MaxUploadFileSize,
			},
			AllowedDomains:  []string{inquiry.DefaultAllowedDomain},
			RecipientEmails: []string{},
		},
	}
}

// AddField appends a new field of type t with default label and options.
// File fields are not supported per field; uploads use the form-level
// attachment block.
func AddField(form *inquiry.Form, t inquiry.FieldType) (inquiry.FormField, error) {
	if !t.IsValid() {
		return inquiry.FormField{}, inquiry.NewSchemaError(inquiry.ErrCodeUnknownFieldType, "",
			"unknown field type "+strings.TrimSpace(string(t)))
	}
	if t == inquiry.FieldTypeFile {
		return inquiry.FormField{}, unsupportedFileField("")
	}

	field := inquiry.FormField{
		ID:    NewID(),
		Type:  t,
		Label: defaultLabels[t],
	}
	if t.IsChoice() {
		field.Options = append([]string(nil), DefaultOptions...)
	}
	Densify(form)
	field.Order = len(form.Fields)
	form.Fields = append(form.Fields, field)
	return field, nil
}

// UpdateField applies fn to the field with the given id. The id and order
// cannot be changed through fn. Afterwards the field is normalised for its
// (possibly new) type.
func UpdateField(form *inquiry.Form, id string, fn func(*inquiry.FormField)) (inquiry.FormField, error) {
	i := form.FieldByID(id)
	if i < 0 {
		return inquiry.FormField{}, inquiry.NewNotFoundError("field", id)
	}

	updated := form.Fields[i].Clone()
	fn(&updated)
	updated.ID = form.Fields[i].ID
	updated.Order = form.Fields[i].Order

	if !updated.Type.IsValid() {
		return inquiry.FormField{}, inquiry.NewSchemaError(inquiry.ErrCodeUnknownFieldType, id,
			"unknown field type "+string(updated.Type))
	}
	if updated.Type == inquiry.FieldTypeFile {
		return inquiry.FormField{}, unsupportedFileField(id)
	}
	normalize(&updated)

	form.Fields[i] = updated
	return updated, nil
}

// DeleteField removes a field and re-densifies the order.
func DeleteField(form *inquiry.Form, id string) error {
	i := form.FieldByID(id)
	if i < 0 {
		return inquiry.NewNotFoundError("field", id)
	}
	form.Fields = append(form.Fields[:i], form.Fields[i+1:]...)
	Densify(form)
	return nil
}

// MoveField moves a field to position to in display order. Positions outside
// the form are clamped.
func MoveField(form *inquiry.Form, id string, to int) error {
	if form.FieldByID(id) < 0 {
		return inquiry.NewNotFoundError("field", id)
	}
	fields := form.SortedFields()
	from := 0
	for i, f := range fields {
		if f.ID == id {
			from = i
			break
		}
	}
	to = max(0, min(to, len(fields)-1))

	moved := fields[from]
	fields = append(fields[:from], fields[from+1:]...)
	fields = append(fields[:to], append([]inquiry.FormField{moved}, fields[to:]...)...)

	form.Fields = fields
	renumber(form.Fields)
	return nil
}

// DuplicateField inserts a copy of a field right after it under a new id.
func DuplicateField(form *inquiry.Form, id string) (inquiry.FormField, error) {
	if form.FieldByID(id) < 0 {
		return inquiry.FormField{}, inquiry.NewNotFoundError("field", id)
	}
	fields := form.SortedFields()
	var at int
	for i, f := range fields {
		if f.ID == id {
			at = i
			break
		}
	}

	dup := fields[at].Clone()
	dup.ID = NewID()
	dup.Label = strings.TrimSpace(dup.Label + " (copy)")

	fields = append(fields[:at+1], append([]inquiry.FormField{dup}, fields[at+1:]...)...)
	form.Fields = fields
	renumber(form.Fields)
	return form.Fields[at+1], nil
}

// Densify sorts fields by order and renumbers them 0..n-1.
func Densify(form *inquiry.Form) {
	sort.SliceStable(form.Fields, func(i, j int) bool {
		return form.Fields[i].Order < form.Fields[j].Order
	})
	renumber(form.Fields)
}

func renumber(fields []inquiry.FormField) {
	for i := range fields {
		fields[i].Order = i
	}
}

// normalize keeps type-dependent attributes consistent after a type change.
func normalize(f *inquiry.FormField) {
	if f.Type.IsChoice() {
		if len(f.Options) == 0 {
			f.Options = append([]string(nil), DefaultOptions...)
		}
	} else {
		f.Options = nil
	}
	if f.Type != inquiry.FieldTypeSelect {
		f.Multiple = false
	}
	if f.Type != inquiry.FieldTypeSelect && f.Type != inquiry.FieldTypeRadio {
		f.AllowOther = false
	}
	if f.Type.IsChoice() && f.Validation != nil {
		// only required is meaningful for choice fields
		f.Validation = &inquiry.FieldValidation{Required: f.Validation.Required}
	}
}

func unsupportedFileField(field string) *inquiry.InquiryError {
	return inquiry.NewSchemaError(inquiry.ErrCodeUnsupportedField, field,
		"file fields are not supported; enable the form attachment block instead")
}
