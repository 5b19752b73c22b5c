package main

import (
	"encoding/json"
	"net/http"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/editor"
	"github.com/lychee-technology/inquiry/internal/intake"
)

type createFormRequest struct {
	Name string `json:"name"`
}

type saveFormResponse struct {
	Form     *inquiry.Form           `json:"form"`
	Warnings []*inquiry.InquiryError `json:"warnings"`
}

// handleListForms handles GET /api/forms
func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.svc.Editor.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, forms)
}

// handleCreateForm handles POST /api/forms
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var req createFormRequest
	if err := readJSONBody(w, r, s.maxBody, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	form, err := s.svc.Editor.Create(r.Context(), req.Name)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, form)
}

// handleGetForm handles GET /api/forms/{id}
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.svc.Editor.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, form)
}

// handleSaveForm handles PUT /api/forms/{id}. The path id wins over the body.
func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	var form inquiry.Form
	if err := readJSONBody(w, r, s.maxBody, &form); err != nil {
		writeFailure(w, r, err)
		return
	}
	form.ID = r.PathValue("id")

	saved, report, err := s.svc.Editor.Save(r.Context(), &form)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	warnings := report.Warnings
	if warnings == nil {
		warnings = []*inquiry.InquiryError{}
	}
	writeSuccess(w, http.StatusOK, saveFormResponse{Form: saved, Warnings: warnings})
}

// handleDeleteForm handles DELETE /api/forms/{id}
func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Editor.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addFieldRequest struct {
	Type inquiry.FieldType `json:"type"`
}

// handleAddField handles POST /api/forms/{id}/fields
func (s *Server) handleAddField(w http.ResponseWriter, r *http.Request) {
	var req addFieldRequest
	if err := readJSONBody(w, r, s.maxBody, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	var field inquiry.FormField
	_, err := s.svc.Editor.Edit(r.Context(), r.PathValue("id"), func(f *inquiry.Form) error {
		var err error
		field, err = editor.AddField(f, req.Type)
		return err
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, field)
}

// fieldPatch lists the attributes PATCH may change. Absent keys are kept;
// "validation": null clears the validation block.
type fieldPatch struct {
	Type        *inquiry.FieldType `json:"type"`
	Label       *string            `json:"label"`
	Placeholder *string            `json:"placeholder"`
	Required    *bool              `json:"required"`
	Options     *[]string          `json:"options"`
	AllowOther  *bool              `json:"allowOther"`
	Multiple    *bool              `json:"multiple"`
	Validation  json.RawMessage    `json:"validation"`
}

func (p fieldPatch) apply(f *inquiry.FormField) error {
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Placeholder != nil {
		f.Placeholder = *p.Placeholder
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Options != nil {
		f.Options = append([]string(nil), (*p.Options)...)
	}
	if p.AllowOther != nil {
		f.AllowOther = *p.AllowOther
	}
	if p.Multiple != nil {
		f.Multiple = *p.Multiple
	}
	if len(p.Validation) > 0 {
		if string(p.Validation) == "null" {
			f.Validation = nil
			return nil
		}
		var v inquiry.FieldValidation
		if err := json.Unmarshal(p.Validation, &v); err != nil {
			return inquiry.NewInquiryError(inquiry.ErrorTypeValidation, inquiry.ErrCodeInvalidJSON,
				"invalid validation block").WithCause(err)
		}
		f.Validation = &v
	}
	return nil
}

// handleUpdateField handles PATCH /api/forms/{id}/fields/{fieldId}
func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var patch fieldPatch
	if err := readJSONBody(w, r, s.maxBody, &patch); err != nil {
		writeFailure(w, r, err)
		return
	}
	var field inquiry.FormField
	_, err := s.svc.Editor.Edit(r.Context(), r.PathValue("id"), func(f *inquiry.Form) error {
		var applyErr error
		updated, err := editor.UpdateField(f, r.PathValue("fieldId"), func(ff *inquiry.FormField) {
			applyErr = patch.apply(ff)
		})
		if applyErr != nil {
			return applyErr
		}
		field = updated
		return err
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, field)
}

// handleDeleteField handles DELETE /api/forms/{id}/fields/{fieldId}
func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	_, err := s.svc.Editor.Edit(r.Context(), r.PathValue("id"), func(f *inquiry.Form) error {
		return editor.DeleteField(f, r.PathValue("fieldId"))
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDuplicateField handles POST /api/forms/{id}/fields/{fieldId}/duplicate
func (s *Server) handleDuplicateField(w http.ResponseWriter, r *http.Request) {
	var field inquiry.FormField
	_, err := s.svc.Editor.Edit(r.Context(), r.PathValue("id"), func(f *inquiry.Form) error {
		var err error
		field, err = editor.DuplicateField(f, r.PathValue("fieldId"))
		return err
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, field)
}

type moveFieldRequest struct {
	To int `json:"to"`
}

// handleMoveField handles POST /api/forms/{id}/fields/{fieldId}/move
func (s *Server) handleMoveField(w http.ResponseWriter, r *http.Request) {
	var req moveFieldRequest
	if err := readJSONBody(w, r, s.maxBody, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	form, err := s.svc.Editor.Edit(r.Context(), r.PathValue("id"), func(f *inquiry.Form) error {
		return editor.MoveField(f, r.PathValue("fieldId"), req.To)
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, form)
}

type validateRequest struct {
	Values map[string]any `json:"values"`
}

// handleValidate handles POST /api/forms/{id}/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := readJSONBody(w, r, s.maxBody, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	res, err := s.svc.Editor.Validate(r.Context(), r.PathValue("id"), req.Values)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// handlePreview handles GET /api/forms/{id}/preview
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	html, err := s.svc.Editor.Preview(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "text/html; charset=utf-8", html)
}

// handleExport handles GET /api/forms/{id}/export?mode=compact|inline|detailed
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	mode, err := inquiry.ParseOutputMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeFailure(w, r, inquiry.NewConfigurationError(inquiry.ErrCodeInvalidOutputMode, err.Error()))
		return
	}
	artifact, err := s.svc.Export(r.Context(), r.PathValue("id"), mode)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "text/html; charset=utf-8", artifact)
}

// handleSchema handles GET /api/forms/{id}/schema
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	form, err := s.svc.Editor.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, intake.SchemaDocument(form))
}

// handlePublish handles POST /api/forms/{id}/publish
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	url, err := s.svc.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"url": url})
}

// handleListInquiries handles GET /api/forms/{id}/inquiries
func (s *Server) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Intake.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}
