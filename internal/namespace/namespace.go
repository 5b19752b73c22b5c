// Package namespace derives every DOM identifier of an exported widget from
// the form and field ids. Derivation is pure, so two exports of the same form
// agree and two different forms on one page never share an identifier.
package namespace

import (
	"fmt"
	"strconv"
	"strings"
)

// Namespace holds the identifiers of one form.
type Namespace struct {
	FormID        string
	Prefix        string
	ContainerID   string
	FormElementID string
	SubmitID      string
	AttachmentID  string
	// AttachmentErrorID is the error slot of the attachment block.
	AttachmentErrorID string
	StyleID           string
	ScriptFile        string
}

// FieldNames holds the identifiers of one field within a form namespace.
type FieldNames struct {
	Name    string
	InputID string
	ErrorID string
	OtherID string
}

// For derives the namespace of a form.
func For(formID string) Namespace {
	esc := Escape(formID)
	prefix := "ir-form-" + esc
	return Namespace{
		FormID:            formID,
		Prefix:            prefix,
		ContainerID:       "inquiry-form-" + esc,
		FormElementID:     prefix + "-form",
		SubmitID:          prefix + "-submit",
		AttachmentID:      prefix + "-attachments",
		AttachmentErrorID: prefix + "-attachments-error",
		StyleID:           prefix + "-style",
		ScriptFile:        "inquiry-form-" + esc + ".js",
	}
}

// Class is the CSS class applied to the form element and used to scope styles.
func (ns Namespace) Class() string {
	return ns.Prefix
}

// Field derives the identifiers of a field.
func (ns Namespace) Field(fieldID string) FieldNames {
	input := ns.Prefix + "-field-" + Escape(fieldID)
	return FieldNames{
		Name:    fieldID,
		InputID: input,
		ErrorID: input + "-error",
		OtherID: input + "-other",
	}
}

// OptionID is the id of the i-th radio or checkbox input of a field.
func (f FieldNames) OptionID(i int) string {
	return fmt.Sprintf("%s-opt-%d", f.InputID, i)
}

// Escape maps an arbitrary id onto [A-Za-z0-9_]. The mapping is injective:
// '_' doubles and every other byte outside the set becomes '_' plus two hex
// digits. Escaped ids never contain '-', which is reserved for the
// structural separators above.
func Escape(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '_':
			b.WriteString("__")
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

// ScriptFileFor returns the hosted script name of a form.
func ScriptFileFor(formID string) string {
	return For(formID).ScriptFile
}

// FormIDFromScriptFile reverses ScriptFileFor. It reports false when name is
// not a widget script name.
func FormIDFromScriptFile(name string) (string, bool) {
	const prefix, suffix = "inquiry-form-", ".js"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return Unescape(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
}

// Unescape reverses Escape. It reports false on malformed input.
func Unescape(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) && s[i+1] == '_' {
			b.WriteByte('_')
			i++
			continue
		}
		if i+2 >= len(s) {
			return "", false
		}
		v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", false
		}
		b.WriteByte(byte(v))
		i += 2
	}
	return b.String(), true
}
