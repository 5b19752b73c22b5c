package rules

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/inquiry"
)

// Evaluate runs a rule set against a raw value. The first failing rule wins.
// An empty value that is not required is valid and skips the other rules.
func Evaluate(rs RuleSet, raw any) inquiry.ValidationResult {
	values := normalize(raw)

	empty := true
	for _, v := range values {
		if Trim(v) != "" {
			empty = false
			break
		}
	}

	if empty {
		if rs.Required() {
			return inquiry.ValidationResult{IsValid: false, Message: rs.Rules[0].Message}
		}
		return inquiry.ValidationResult{IsValid: true}
	}

	value := Trim(strings.Join(values, ", "))

	for _, r := range rs.Rules {
		switch r.Kind {
		case KindRequired:
			// already satisfied
		case KindMinLength:
			if Length(value) < r.Limit {
				return inquiry.ValidationResult{IsValid: false, Message: r.Message}
			}
		case KindMaxLength:
			if Length(value) > r.Limit {
				return inquiry.ValidationResult{IsValid: false, Message: r.Message}
			}
		case KindPattern:
			re, err := compiled(r.Source)
			if err != nil {
				continue
			}
			if !re.MatchString(value) {
				return inquiry.ValidationResult{IsValid: false, Message: r.Message}
			}
		}
	}

	return inquiry.ValidationResult{IsValid: true}
}

// ValidateField compiles the field and evaluates raw against it.
func (c *Compiler) ValidateField(field inquiry.FormField, raw any) inquiry.ValidationResult {
	rs, _ := c.Compile(field)
	return Evaluate(rs, raw)
}

// ValidateForm validates every field that reaches the page and reports the
// first failing message per field id. FirstInvalid follows display order.
func (c *Compiler) ValidateForm(fields []inquiry.FormField, values map[string]any) inquiry.FormValidationResult {
	form := inquiry.Form{Fields: fields}
	result := inquiry.FormValidationResult{IsValid: true}

	for _, field := range form.SortedFields() {
		if field.Type == inquiry.FieldTypeFile {
			continue
		}
		res := c.ValidateField(field, values[field.ID])
		if res.IsValid {
			continue
		}
		if result.Errors == nil {
			result.Errors = make(map[string]string)
		}
		result.Errors[field.ID] = res.Message
		if result.IsValid {
			result.FirstInvalid = field.ID
			result.IsValid = false
		}
	}

	return result
}

// ValidateField uses the default compiler.
func ValidateField(field inquiry.FormField, raw any) inquiry.ValidationResult {
	return defaultCompiler.ValidateField(field, raw)
}

// ValidateForm uses the default compiler.
func ValidateForm(fields []inquiry.FormField, values map[string]any) inquiry.FormValidationResult {
	return defaultCompiler.ValidateForm(fields, values)
}

func normalize(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, scalar(item))
		}
		return out
	default:
		return []string{scalar(v)}
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; print integers without a fraction.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprint(t)
	}
}
