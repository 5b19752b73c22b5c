// Package render produces the HTML markup of a form. The same markup backs the
// exported widget and the disabled editor preview.
package render

import (
	"html"
	"strconv"
	"strings"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/namespace"
)

// OtherValue is the option value that selects the free-text "Other" choice.
const OtherValue = "__other__"

// Options controls rendering.
type Options struct {
	// Disabled renders every control disabled, for previews.
	Disabled bool
	Messages inquiry.Messages
}

func (o Options) messages() inquiry.Messages {
	return o.Messages.WithDefaults()
}

// Field renders a single field. File fields render nothing; uploads go
// through the form-level attachment block.
func Field(ns namespace.Namespace, field inquiry.FormField, opts Options) string {
	var b strings.Builder
	writeField(&b, ns, field, opts, opts.messages())
	return b.String()
}

// Form renders the complete form element.
func Form(form *inquiry.Form, opts Options) string {
	ns := namespace.For(form.ID)
	msgs := opts.messages()

	var b strings.Builder
	b.WriteString(`<form id="`)
	b.WriteString(esc(ns.FormElementID))
	b.WriteString(`" class="`)
	b.WriteString(esc(ns.Class()))
	b.WriteString(` inquiry-form" novalidate>`)
	b.WriteString("\n")

	if form.Name != "" {
		b.WriteString(`<h3 class="inquiry-title">`)
		b.WriteString(esc(form.Name))
		b.WriteString("</h3>\n")
	}
	if form.Description != "" {
		b.WriteString(`<p class="inquiry-description">`)
		b.WriteString(esc(form.Description))
		b.WriteString("</p>\n")
	}

	for _, field := range form.SortedFields() {
		writeField(&b, ns, field, opts, msgs)
	}

	if form.Settings.FileUpload.Enabled {
		writeAttachments(&b, ns, form.Settings.FileUpload, opts, msgs)
	}

	b.WriteString(`<button type="submit" id="`)
	b.WriteString(esc(ns.SubmitID))
	b.WriteString(`" class="inquiry-submit"`)
	writeDisabled(&b, opts)
	b.WriteString(">")
	b.WriteString(esc(msgs.Submit))
	b.WriteString("</button>\n</form>")
	return b.String()
}

func writeField(b *strings.Builder, ns namespace.Namespace, field inquiry.FormField, opts Options, msgs inquiry.Messages) {
	if field.Type == inquiry.FieldTypeFile {
		return
	}

	names := ns.Field(field.ID)
	b.WriteString(`<div class="inquiry-field inquiry-field-`)
	b.WriteString(string(field.Type))
	b.WriteString(`" data-field="`)
	b.WriteString(esc(field.ID))
	b.WriteString(`">`)
	b.WriteString("\n")

	switch field.Type {
	case inquiry.FieldTypeText:
		writeLabel(b, names.InputID, field)
		b.WriteString(`<input type="text" id="`)
		b.WriteString(esc(names.InputID))
		b.WriteString(`" name="`)
		b.WriteString(esc(field.ID))
		b.WriteString(`"`)
		writePlaceholder(b, field.Placeholder)
		writeRequired(b, field)
		writeDisabled(b, opts)
		b.WriteString(">\n")
	case inquiry.FieldTypeTextarea:
		writeLabel(b, names.InputID, field)
		b.WriteString(`<textarea id="`)
		b.WriteString(esc(names.InputID))
		b.WriteString(`" name="`)
		b.WriteString(esc(field.ID))
		b.WriteString(`" rows="4"`)
		writePlaceholder(b, field.Placeholder)
		writeRequired(b, field)
		writeDisabled(b, opts)
		b.WriteString("></textarea>\n")
	case inquiry.FieldTypeSelect:
		writeSelect(b, names, field, opts, msgs)
	case inquiry.FieldTypeRadio, inquiry.FieldTypeCheckbox:
		writeChoices(b, names, field, opts, msgs)
	}

	b.WriteString(`<div class="inquiry-error" id="`)
	b.WriteString(esc(names.ErrorID))
	b.WriteString(`" aria-live="polite"></div>`)
	b.WriteString("\n</div>\n")
}

func writeSelect(b *strings.Builder, names namespace.FieldNames, field inquiry.FormField, opts Options, msgs inquiry.Messages) {
	writeLabel(b, names.InputID, field)
	b.WriteString(`<select id="`)
	b.WriteString(esc(names.InputID))
	b.WriteString(`" name="`)
	b.WriteString(esc(field.ID))
	b.WriteString(`"`)
	if field.Multiple {
		b.WriteString(" multiple")
	}
	writeRequired(b, field)
	writeDisabled(b, opts)
	b.WriteString(">\n")

	b.WriteString(`<option value="">`)
	b.WriteString(esc(msgs.Choose))
	b.WriteString("</option>\n")
	for _, opt := range field.Options {
		b.WriteString(`<option value="`)
		b.WriteString(esc(opt))
		b.WriteString(`">`)
		b.WriteString(esc(opt))
		b.WriteString("</option>\n")
	}
	if field.AllowOther {
		b.WriteString(`<option value="` + OtherValue + `">`)
		b.WriteString(esc(msgs.Other))
		b.WriteString("</option>\n")
	}
	b.WriteString("</select>\n")

	if field.AllowOther {
		writeOtherInput(b, names, field, opts, msgs)
	}
}

func writeChoices(b *strings.Builder, names namespace.FieldNames, field inquiry.FormField, opts Options, msgs inquiry.Messages) {
	inputType := "radio"
	if field.Type == inquiry.FieldTypeCheckbox {
		inputType = "checkbox"
	}

	b.WriteString(`<fieldset id="`)
	b.WriteString(esc(names.InputID))
	b.WriteString(`" class="inquiry-choices"`)
	if field.IsRequired() {
		b.WriteString(` aria-required="true"`)
	}
	writeDisabled(b, opts)
	b.WriteString(">\n<legend>")
	b.WriteString(esc(field.Label))
	writeMarker(b, field)
	b.WriteString("</legend>\n")

	options := field.Options
	if field.AllowOther && field.Type == inquiry.FieldTypeRadio {
		options = append(append([]string(nil), options...), OtherValue)
	}

	for i, opt := range options {
		id := names.OptionID(i)
		label := opt
		if opt == OtherValue && i == len(field.Options) {
			label = msgs.Other
		}
		b.WriteString(`<label for="`)
		b.WriteString(esc(id))
		b.WriteString(`"><input type="`)
		b.WriteString(inputType)
		b.WriteString(`" id="`)
		b.WriteString(esc(id))
		b.WriteString(`" name="`)
		b.WriteString(esc(field.ID))
		b.WriteString(`" value="`)
		b.WriteString(esc(opt))
		b.WriteString(`"`)
		writeDisabled(b, opts)
		b.WriteString("> ")
		b.WriteString(esc(label))
		b.WriteString("</label>\n")
	}
	b.WriteString("</fieldset>\n")

	if field.AllowOther && field.Type == inquiry.FieldTypeRadio {
		writeOtherInput(b, names, field, opts, msgs)
	}
}

func writeOtherInput(b *strings.Builder, names namespace.FieldNames, field inquiry.FormField, opts Options, msgs inquiry.Messages) {
	b.WriteString(`<input type="text" class="inquiry-other" id="`)
	b.WriteString(esc(names.OtherID))
	b.WriteString(`" name="`)
	b.WriteString(esc(field.ID + OtherValue))
	b.WriteString(`" aria-label="`)
	b.WriteString(esc(msgs.Other))
	b.WriteString(`"`)
	writePlaceholder(b, msgs.Other)
	writeDisabled(b, opts)
	b.WriteString(">\n")
}

func writeAttachments(b *strings.Builder, ns namespace.Namespace, upload inquiry.FileUploadSettings, opts Options, msgs inquiry.Messages) {
	b.WriteString(`<div class="inquiry-field inquiry-attachments" data-max-files="`)
	b.WriteString(strconv.Itoa(upload.MaxFiles))
	b.WriteString(`" data-max-size="`)
	b.WriteString(strconv.FormatInt(upload.MaxFileSize, 10))
	b.WriteString(`">`)
	b.WriteString("\n")
	b.WriteString(`<label for="`)
	b.WriteString(esc(ns.AttachmentID))
	b.WriteString(`">`)
	b.WriteString(esc(msgs.Attachments))
	b.WriteString("</label>\n")
	b.WriteString(`<input type="file" id="`)
	b.WriteString(esc(ns.AttachmentID))
	b.WriteString(`" name="attachments"`)
	if upload.MaxFiles != 1 {
		b.WriteString(" multiple")
	}
	writeDisabled(b, opts)
	b.WriteString(">\n")
	b.WriteString(`<div class="inquiry-error" id="`)
	b.WriteString(esc(ns.AttachmentErrorID))
	b.WriteString(`" aria-live="polite"></div>`)
	b.WriteString("\n</div>\n")
}

func writeLabel(b *strings.Builder, inputID string, field inquiry.FormField) {
	b.WriteString(`<label for="`)
	b.WriteString(esc(inputID))
	b.WriteString(`">`)
	b.WriteString(esc(field.Label))
	writeMarker(b, field)
	b.WriteString("</label>\n")
}

func writeMarker(b *strings.Builder, field inquiry.FormField) {
	if field.IsRequired() {
		b.WriteString(`<span class="inquiry-required" aria-hidden="true">*</span>`)
	}
}

func writePlaceholder(b *strings.Builder, placeholder string) {
	if placeholder == "" {
		return
	}
	b.WriteString(` placeholder="`)
	b.WriteString(esc(placeholder))
	b.WriteString(`"`)
}

func writeRequired(b *strings.Builder, field inquiry.FormField) {
	if field.IsRequired() {
		b.WriteString(" required")
	}
}

func writeDisabled(b *strings.Builder, opts Options) {
	if opts.Disabled {
		b.WriteString(" disabled")
	}
}

func esc(s string) string {
	return html.EscapeString(s)
}
