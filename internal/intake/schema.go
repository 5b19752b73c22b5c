package intake

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/inquiry"
)

// AttachmentsKey is the response key carrying attachment metadata.
const AttachmentsKey = "attachments"

// SchemaDocument returns the JSON Schema of the submission body the widget
// of form posts, as a plain JSON document.
func SchemaDocument(form *inquiry.Form) map[string]any {
	responses := map[string]any{}
	for _, field := range form.SortedFields() {
		if field.Type == inquiry.FieldTypeFile {
			continue
		}
		responses[field.ID] = fieldSchema(field)
	}
	if form.Settings.FileUpload.Enabled && form.FieldByID(AttachmentsKey) < 0 {
		responses[AttachmentsKey] = map[string]any{
			"type":     "array",
			"maxItems": form.Settings.FileUpload.MaxFiles,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"name", "size"},
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"size": map[string]any{"type": "integer", "minimum": 0, "maximum": form.Settings.FileUpload.MaxFileSize},
					"type": map[string]any{"type": "string"},
				},
			},
		}
	}

	str := map[string]any{"type": "string"}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                fmt.Sprintf("Inquiry submission for form %s", form.ID),
		"type":                 "object",
		"required":             []string{"formId", "responses"},
		"additionalProperties": false,
		"properties": map[string]any{
			"formId": map[string]any{"type": "string", "const": form.ID},
			"responses": map[string]any{
				"type":       "object",
				"properties": responses,
			},
			"senderInfo": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  str,
					"email": str,
					"phone": str,
				},
			},
			"allowedDomains": map[string]any{"type": "array", "items": str},
		},
	}
}

func fieldSchema(field inquiry.FormField) map[string]any {
	value := map[string]any{"type": "string"}
	if field.Type.IsChoice() && !field.AllowOther {
		enum := make([]any, 0, len(field.Options)+1)
		if !field.IsMultiValued() {
			// an untouched select or radio group submits ""
			enum = append(enum, "")
		}
		for _, opt := range field.Options {
			enum = append(enum, opt)
		}
		value["enum"] = enum
	}
	if field.IsMultiValued() {
		return map[string]any{"type": "array", "items": value}
	}
	return value
}

// SchemaFor returns the resolved submission schema of form.
func SchemaFor(form *inquiry.Form) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(SchemaDocument(form))
	if err != nil {
		return nil, fmt.Errorf("marshal submission schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal into jsonschema.Schema: %w", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("resolve submission schema: %w", err)
	}
	return resolved, nil
}
