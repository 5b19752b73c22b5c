package main

import (
	"net/http"

	"github.com/lychee-technology/inquiry"
)

// handleListSignatures handles GET /api/signatures
func (s *Server) handleListSignatures(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Editor.ListSignatures(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

// handleCreateSignature handles POST /api/signatures
func (s *Server) handleCreateSignature(w http.ResponseWriter, r *http.Request) {
	var sig inquiry.Signature
	if err := readJSONBody(w, r, s.maxBody, &sig); err != nil {
		writeFailure(w, r, err)
		return
	}
	created, err := s.svc.Editor.CreateSignature(r.Context(), sig)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, created)
}

// handleGetSignature handles GET /api/signatures/{id}
func (s *Server) handleGetSignature(w http.ResponseWriter, r *http.Request) {
	sig, err := s.svc.Editor.GetSignature(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, sig)
}

// handleSaveSignature handles PUT /api/signatures/{id}
func (s *Server) handleSaveSignature(w http.ResponseWriter, r *http.Request) {
	var sig inquiry.Signature
	if err := readJSONBody(w, r, s.maxBody, &sig); err != nil {
		writeFailure(w, r, err)
		return
	}
	sig.ID = r.PathValue("id")
	saved, err := s.svc.Editor.SaveSignature(r.Context(), sig)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, saved)
}

// handleDeleteSignature handles DELETE /api/signatures/{id}
func (s *Server) handleDeleteSignature(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Editor.DeleteSignature(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
