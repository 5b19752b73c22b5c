package inquiry

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType enumerates the kinds of form fields an operator can place.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeFile     FieldType = "file"
)

// FieldTypes returns every declared field type in display order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeTextarea,
		FieldTypeSelect,
		FieldTypeRadio,
		FieldTypeCheckbox,
		FieldTypeFile,
	}
}

// IsValid reports whether t is a declared field type.
func (t FieldType) IsValid() bool {
	return slices.Contains(FieldTypes(), t)
}

// IsChoice reports whether the field carries an options list.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	default:
		return false
	}
}

// ValidationType selects a canonical input format for a field.
type ValidationType string

const (
	ValidationTypeEmail  ValidationType = "email"
	ValidationTypePhone  ValidationType = "phone"
	ValidationTypeNumber ValidationType = "number"
	ValidationTypeText   ValidationType = "text"
)

// IsValid reports whether v is empty or a known validation type.
func (v ValidationType) IsValid() bool {
	switch v {
	case "", ValidationTypeEmail, ValidationTypePhone, ValidationTypeNumber, ValidationTypeText:
		return true
	default:
		return false
	}
}

// FieldValidation holds the optional per-field rules.
type FieldValidation struct {
	Type      ValidationType `json:"type,omitempty"`
	MinLength *int           `json:"minLength,omitempty"`
	MaxLength *int           `json:"maxLength,omitempty"`
	Pattern   string         `json:"pattern,omitempty"`
	// Required mirrors FormField.Required; either one marks the field required.
	Required *bool `json:"required,omitempty"`
}

// FormField is one typed input of a Form.
type FormField struct {
	ID          string           `json:"id"`
	Type        FieldType        `json:"type"`
	Label       string           `json:"label"`
	Placeholder string           `json:"placeholder,omitempty"`
	Required    bool             `json:"required"`
	Validation  *FieldValidation `json:"validation,omitempty"`
	Options     []string         `json:"options,omitempty"`
	Order       int              `json:"order"`
	AllowOther  bool             `json:"allowOther,omitempty"`
	Multiple    bool             `json:"multiple,omitempty"`
}

// IsRequired reports whether either required flag is set.
func (f *FormField) IsRequired() bool {
	if f.Required {
		return true
	}
	return f.Validation != nil && f.Validation.Required != nil && *f.Validation.Required
}

// IsMultiValued reports whether the field submits a list of values.
func (f *FormField) IsMultiValued() bool {
	return f.Type == FieldTypeCheckbox || (f.Type == FieldTypeSelect && f.Multiple)
}

// Clone returns a deep copy of the field.
func (f FormField) Clone() FormField {
	out := f
	if f.Options != nil {
		out.Options = slices.Clone(f.Options)
	}
	if f.Validation != nil {
		v := *f.Validation
		if v.MinLength != nil {
			n := *v.MinLength
			v.MinLength = &n
		}
		if v.MaxLength != nil {
			n := *v.MaxLength
			v.MaxLength = &n
		}
		if v.Required != nil {
			b := *v.Required
			v.Required = &b
		}
		out.Validation = &v
	}
	return out
}

// FileUploadSettings controls the single form-level attachment block.
type FileUploadSettings struct {
	Enabled     bool  `json:"enabled"`
	MaxFiles    int   `json:"maxFiles"`
	MaxFileSize int64 `json:"maxFileSize"` // bytes
}

// FormSettings holds submission behaviour for a form.
type FormSettings struct {
	CompletionURL   string             `json:"completionUrl"`
	SignatureID     string             `json:"signatureId"`
	AutoReply       bool               `json:"autoReply"`
	FileUpload      FileUploadSettings `json:"fileUpload"`
	AllowedDomains  []string           `json:"allowedDomains"`
	RecipientEmails []string           `json:"recipientEmails"`
}

// Styling carries operator CSS and a theme name.
type Styling struct {
	CSS   string `json:"css"`
	Theme string `json:"theme"`
}

// Form is the declarative schema a widget is compiled from.
type Form struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Fields      []FormField  `json:"fields"`
	Styling     Styling      `json:"styling"`
	Settings    FormSettings `json:"settings"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// SortedFields returns the fields ordered by Order, ties broken by position.
func (f *Form) SortedFields() []FormField {
	out := slices.Clone(f.Fields)
	slices.SortStableFunc(out, func(a, b FormField) int {
		return a.Order - b.Order
	})
	return out
}

// FieldByID returns the index of the field with the given id, or -1.
func (f *Form) FieldByID(id string) int {
	return slices.IndexFunc(f.Fields, func(field FormField) bool {
		return field.ID == id
	})
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	out := *f
	out.Fields = make([]FormField, len(f.Fields))
	for i, field := range f.Fields {
		out.Fields[i] = field.Clone()
	}
	out.Settings.AllowedDomains = slices.Clone(f.Settings.AllowedDomains)
	out.Settings.RecipientEmails = slices.Clone(f.Settings.RecipientEmails)
	return &out
}

// Whitespace is the character set treated as blank by validation and by
// the allowed-domain checks.
const Whitespace = " \t\n\r\f\v\u00a0\u3000"

// HasUsableDomains reports whether the allowed-domain list is non-empty and
// free of blank entries.
func HasUsableDomains(domains []string) bool {
	if len(domains) == 0 {
		return false
	}
	for _, d := range domains {
		if strings.Trim(d, Whitespace) == "" {
			return false
		}
	}
	return true
}

// Signature is an e-mail signature selectable from the form settings.
type Signature struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SenderInfo is the sender subset extracted from the responses.
type SenderInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Submission is the JSON body the widget POSTs to the inquiry endpoint.
type Submission struct {
	FormID         string         `json:"formId"`
	Responses      map[string]any `json:"responses"`
	SenderInfo     SenderInfo     `json:"senderInfo"`
	AllowedDomains []string       `json:"allowedDomains"`
}

// Inquiry is an accepted submission.
type Inquiry struct {
	ID          uuid.UUID      `json:"id"`
	FormID      string         `json:"formId"`
	Responses   map[string]any `json:"responses"`
	Sender      SenderInfo     `json:"senderInfo"`
	Origin      string         `json:"origin,omitempty"`
	Recipients  []string       `json:"recipients"`
	AutoReply   bool           `json:"autoReply"`
	SignatureID string         `json:"signatureId,omitempty"`
	ReceivedAt  time.Time      `json:"receivedAt"`
}

// OutputMode selects one of the three artifact variants.
type OutputMode string

const (
	OutputModeCompact  OutputMode = "compact"
	OutputModeInline   OutputMode = "inline"
	OutputModeDetailed OutputMode = "detailed"
)

// ParseOutputMode maps a string to an OutputMode. An empty string selects
// the compact variant.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputModeCompact:
		return OutputModeCompact, nil
	case OutputModeInline:
		return OutputModeInline, nil
	case OutputModeDetailed:
		return OutputModeDetailed, nil
	default:
		return "", fmt.Errorf("unknown output mode %q", s)
	}
}

// ValidationResult is the outcome of validating a single field value.
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

// FormValidationResult aggregates the first failing message per field id.
type FormValidationResult struct {
	IsValid      bool              `json:"isValid"`
	Errors       map[string]string `json:"errors,omitempty"`
	FirstInvalid string            `json:"firstInvalid,omitempty"`
}
