package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/intake"
	"github.com/lychee-technology/inquiry/internal/namespace"
	"github.com/lychee-technology/inquiry/internal/publish"
)

const preflightMaxAge = 10 * time.Minute

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Run(r.Context())
	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	_ = writeJSON(w, status, report)
}

// handleWidgetScript handles GET /widgets/{file}
func (s *Server) handleWidgetScript(w http.ResponseWriter, r *http.Request) {
	formID, ok := namespace.FormIDFromScriptFile(r.PathValue("file"))
	if !ok {
		writeFailure(w, r, inquiry.NewNotFoundError("widgets", r.PathValue("file")))
		return
	}
	script, err := s.svc.HostedScript(r.Context(), formID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeText(w, http.StatusOK, publish.ContentType, script)
}

// handlePreflight handles OPTIONS /api/inquiries. A preflight carries no
// body, so the origin is allowed when any stored form allows it.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Vary", "Origin")
	origin := r.Header.Get("Origin")
	if origin != "" && s.anyFormAllows(r, origin) {
		setCORS(w, origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(preflightMaxAge.Seconds())))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) anyFormAllows(r *http.Request, origin string) bool {
	forms, err := s.svc.Editor.List(r.Context())
	if err != nil {
		return false
	}
	for _, f := range forms {
		if intake.AllowOrigin(f, origin) {
			return true
		}
	}
	return false
}

// handleSubmit handles POST /api/inquiries
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Vary", "Origin")
	origin := r.Header.Get("Origin")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = writeJSON(w, http.StatusRequestEntityTooLarge, APIResponse{
				Error: "request body too large",
				Code:  inquiry.ErrCodeInvalidPayload,
			})
			return
		}
		writeFailure(w, r, inquiry.NewInquiryError(inquiry.ErrorTypeValidation, inquiry.ErrCodeInvalidJSON,
			"could not read request body").WithCause(err))
		return
	}

	if origin != "" {
		s.corsForBody(w, r, origin, body)
	}

	q, err := s.svc.Intake.Submit(r.Context(), origin, body)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, q)
}

// corsForBody sets the allow-origin header when the targeted form allows the
// origin, so the widget can read the rejection reason of any other error.
func (s *Server) corsForBody(w http.ResponseWriter, r *http.Request, origin string, body []byte) {
	var peek struct {
		FormID string `json:"formId"`
	}
	if json.Unmarshal(body, &peek) != nil || peek.FormID == "" {
		return
	}
	form, err := s.svc.Intake.Form(r.Context(), peek.FormID)
	if err != nil {
		return
	}
	if intake.AllowOrigin(form, origin) {
		setCORS(w, origin)
	}
}

func setCORS(w http.ResponseWriter, origin string) {
	w.Header().Set("Access-Control-Allow-Origin", origin)
}
