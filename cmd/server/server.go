package main

import (
	"net/http"
	"time"

	"github.com/lychee-technology/inquiry/factory"
	"go.uber.org/zap"
)

// Server exposes the inquiry service over HTTP.
type Server struct {
	svc     *factory.Service
	mux     *http.ServeMux
	maxBody int64
}

// NewServer creates a Server with every route registered.
func NewServer(svc *factory.Service) *Server {
	s := &Server{
		svc:     svc,
		mux:     http.NewServeMux(),
		maxBody: svc.Config.Server.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}
	s.RegisterRoutes()
	return s
}

// RegisterRoutes registers all API routes.
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/forms", s.handleListForms)
	s.mux.HandleFunc("POST /api/forms", s.handleCreateForm)
	s.mux.HandleFunc("GET /api/forms/{id}", s.handleGetForm)
	s.mux.HandleFunc("PUT /api/forms/{id}", s.handleSaveForm)
	s.mux.HandleFunc("DELETE /api/forms/{id}", s.handleDeleteForm)

	s.mux.HandleFunc("POST /api/forms/{id}/fields", s.handleAddField)
	s.mux.HandleFunc("PATCH /api/forms/{id}/fields/{fieldId}", s.handleUpdateField)
	s.mux.HandleFunc("DELETE /api/forms/{id}/fields/{fieldId}", s.handleDeleteField)
	s.mux.HandleFunc("POST /api/forms/{id}/fields/{fieldId}/duplicate", s.handleDuplicateField)
	s.mux.HandleFunc("POST /api/forms/{id}/fields/{fieldId}/move", s.handleMoveField)

	s.mux.HandleFunc("POST /api/forms/{id}/validate", s.handleValidate)
	s.mux.HandleFunc("GET /api/forms/{id}/preview", s.handlePreview)
	s.mux.HandleFunc("GET /api/forms/{id}/export", s.handleExport)
	s.mux.HandleFunc("GET /api/forms/{id}/schema", s.handleSchema)
	s.mux.HandleFunc("POST /api/forms/{id}/publish", s.handlePublish)
	s.mux.HandleFunc("GET /api/forms/{id}/inquiries", s.handleListInquiries)

	s.mux.HandleFunc("GET /widgets/{file}", s.handleWidgetScript)
	s.mux.HandleFunc("POST /api/inquiries", s.handleSubmit)
	s.mux.HandleFunc("OPTIONS /api/inquiries", s.handlePreflight)

	s.mux.HandleFunc("GET /api/signatures", s.handleListSignatures)
	s.mux.HandleFunc("POST /api/signatures", s.handleCreateSignature)
	s.mux.HandleFunc("GET /api/signatures/{id}", s.handleGetSignature)
	s.mux.HandleFunc("PUT /api/signatures/{id}", s.handleSaveSignature)
	s.mux.HandleFunc("DELETE /api/signatures/{id}", s.handleDeleteSignature)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	zap.S().Debugw("http request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"ms", time.Since(start).Milliseconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
