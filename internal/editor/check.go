package editor

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/rules"
)

// Report collects the outcome of Check. Errors block saving; warnings do not.
type Report struct {
	Errors   []*inquiry.InquiryError `json:"errors"`
	Warnings []*inquiry.InquiryError `json:"warnings"`
}

// OK reports whether the form may be saved.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns nil when the report is OK. Otherwise it returns the first error
// with every message attached under the "issues" detail.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	first := *r.Errors[0]
	issues := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		issues = append(issues, e.Error())
	}
	details := make(map[string]any, len(first.Details)+1)
	for k, v := range first.Details {
		details[k] = v
	}
	details["issues"] = issues
	first.Details = details
	return &first
}

func (r *Report) schema(code, field, format string, args ...any) {
	r.Errors = append(r.Errors, inquiry.NewSchemaError(code, field, fmt.Sprintf(format, args...)))
}

func (r *Report) config(code, format string, args ...any) {
	r.Errors = append(r.Errors, inquiry.NewConfigurationError(code, fmt.Sprintf(format, args...)))
}

// Check runs the save-time checks. Schema problems come first, then
// configuration problems, then regex warnings.
func Check(form *inquiry.Form) Report {
	var r Report
	if form == nil {
		r.schema(inquiry.ErrCodeSchemaInvalid, "", "form is required")
		return r
	}

	checkFields(&r, form)
	checkSettings(&r, form.Settings)

	_, diags := rules.Default().CompileForm(form)
	for _, d := range diags {
		r.Warnings = append(r.Warnings, d.Err())
	}
	return r
}

func checkFields(r *Report, form *inquiry.Form) {
	seen := make(map[string]bool, len(form.Fields))
	for _, f := range form.SortedFields() {
		if strings.TrimSpace(f.ID) == "" {
			r.schema(inquiry.ErrCodeSchemaInvalid, "", "field at position %d has no id", f.Order)
			continue
		}
		if seen[f.ID] {
			r.schema(inquiry.ErrCodeDuplicateFieldID, f.ID, "duplicate field id")
		}
		seen[f.ID] = true

		if !f.Type.IsValid() {
			r.schema(inquiry.ErrCodeUnknownFieldType, f.ID, "unknown field type %q", f.Type)
			continue
		}
		if f.Type == inquiry.FieldTypeFile {
			r.Errors = append(r.Errors, unsupportedFileField(f.ID))
			continue
		}
		if strings.TrimSpace(f.Label) == "" {
			r.schema(inquiry.ErrCodeSchemaInvalid, f.ID, "label is required")
		}

		if f.Type.IsChoice() {
			if len(f.Options) == 0 {
				r.schema(inquiry.ErrCodeMissingOptions, f.ID, "%s fields need at least one option", f.Type)
			}
			for i, opt := range f.Options {
				if strings.TrimSpace(opt) == "" {
					r.schema(inquiry.ErrCodeMissingOptions, f.ID, "option %d is blank", i+1)
				}
			}
		} else if len(f.Options) > 0 {
			r.schema(inquiry.ErrCodeUnexpectedOptions, f.ID, "%s fields do not take options", f.Type)
		}

		if v := f.Validation; v != nil {
			if !v.Type.IsValid() {
				r.schema(inquiry.ErrCodeSchemaInvalid, f.ID, "unknown validation type %q", v.Type)
			}
			if v.MinLength != nil && *v.MinLength < 0 {
				r.schema(inquiry.ErrCodeInvalidLength, f.ID, "minLength must not be negative")
			}
			if v.MaxLength != nil && *v.MaxLength < 0 {
				r.schema(inquiry.ErrCodeInvalidLength, f.ID, "maxLength must not be negative")
			}
			if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
				r.schema(inquiry.ErrCodeInvalidLength, f.ID, "minLength %d exceeds maxLength %d", *v.MinLength, *v.MaxLength)
			}
		}
	}
}

func checkSettings(r *Report, s inquiry.FormSettings) {
	if !inquiry.HasUsableDomains(s.AllowedDomains) {
		r.config(inquiry.ErrCodeNoAllowedDomains, "at least one allowed domain is required and entries must not be blank")
	}

	n := len(s.RecipientEmails)
	if n < inquiry.MinRecipients || n > inquiry.MaxRecipients {
		r.config(inquiry.ErrCodeInvalidRecipients, "between %d and %d recipient emails are required, got %d",
			inquiry.MinRecipients, inquiry.MaxRecipients, n)
	}
	for _, addr := range s.RecipientEmails {
		if !ValidEmail(addr) {
			r.config(inquiry.ErrCodeInvalidRecipients, "recipient %q is not a valid email address", addr)
		}
	}

	u := s.FileUpload
	if u.MaxFiles < 0 || u.MaxFiles > inquiry.MaxUploadFiles {
		r.config(inquiry.ErrCodeInvalidUpload, "maxFiles must be between 1 and %d", inquiry.MaxUploadFiles)
	} else if u.Enabled && u.MaxFiles == 0 {
		r.config(inquiry.ErrCodeInvalidUpload, "maxFiles must be between 1 and %d", inquiry.MaxUploadFiles)
	}
	if u.MaxFileSize < 0 || u.MaxFileSize > inquiry.MaxUploadFileSize {
		r.config(inquiry.ErrCodeInvalidUpload, "maxFileSize must be between 1 and %d bytes", inquiry.MaxUploadFileSize)
	} else if u.Enabled && u.MaxFileSize == 0 {
		r.config(inquiry.ErrCodeInvalidUpload, "maxFileSize must be between 1 and %d bytes", inquiry.MaxUploadFileSize)
	}

	if s.CompletionURL != "" && !validCompletionURL(s.CompletionURL) {
		r.config(inquiry.ErrCodeInvalidURL, "completion URL %q must be an http(s) URL or an absolute path", s.CompletionURL)
	}
}

// ValidEmail reports whether s is a bare address such as ops@example.com.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func validCompletionURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.IsAbs() {
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}
	return strings.HasPrefix(u.Path, "/") && u.Host == ""
}
