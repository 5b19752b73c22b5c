package inquiry

import "strings"

// SenderFields names the fields the sender subset is read from. Empty means
// no field qualifies.
type SenderFields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

var nameHints = []string{"name", "名前", "氏名"}

// SenderFields resolves the sender subset: email is the first field validated
// as email, phone the first validated as phone, name the first remaining
// text field whose label looks like a name, else the first remaining text
// field.
func (f *Form) SenderFields() SenderFields {
	var out SenderFields
	fields := f.SortedFields()

	for _, field := range fields {
		if field.Validation == nil || field.Type == FieldTypeFile {
			continue
		}
		switch field.Validation.Type {
		case ValidationTypeEmail:
			if out.Email == "" {
				out.Email = field.ID
			}
		case ValidationTypePhone:
			if out.Phone == "" {
				out.Phone = field.ID
			}
		}
	}

	firstText := ""
	for _, field := range fields {
		if field.Type != FieldTypeText || field.ID == out.Email || field.ID == out.Phone {
			continue
		}
		if firstText == "" {
			firstText = field.ID
		}
		label := strings.ToLower(field.Label)
		for _, hint := range nameHints {
			if strings.Contains(label, hint) {
				out.Name = field.ID
				return out
			}
		}
	}
	out.Name = firstText
	return out
}
