package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/lychee-technology/inquiry"
	"go.uber.org/zap"
)

// APIResponse is the body of every error response.
type APIResponse struct {
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings such as "15s" or "2m".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, data)
}

// writeText writes a non-JSON body such as an export artifact.
func writeText(w http.ResponseWriter, statusCode int, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	_, _ = io.WriteString(w, body)
}

// statusFor maps an InquiryError onto an HTTP status.
func statusFor(ie *inquiry.InquiryError) int {
	switch ie.Code {
	case inquiry.ErrCodeOriginNotAllowed:
		return http.StatusForbidden
	case inquiry.ErrCodeInvalidOutputMode:
		return http.StatusBadRequest
	case inquiry.ErrCodeCircuitOpen:
		return http.StatusServiceUnavailable
	}
	switch ie.Type {
	case inquiry.ErrorTypeNotFound:
		return http.StatusNotFound
	case inquiry.ErrorTypeConflict:
		return http.StatusConflict
	case inquiry.ErrorTypeValidation:
		return http.StatusBadRequest
	case inquiry.ErrorTypeSchema, inquiry.ErrorTypeConfiguration, inquiry.ErrorTypeRegex:
		return http.StatusUnprocessableEntity
	case inquiry.ErrorTypeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure renders err. InquiryErrors keep their code and details;
// anything else is logged and reported as an internal error.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var ie *inquiry.InquiryError
	if !errors.As(err, &ie) {
		zap.S().Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		_ = writeJSON(w, http.StatusInternalServerError, APIResponse{
			Error: "internal error",
			Code:  inquiry.ErrCodeInternalError,
		})
		return
	}
	status := statusFor(ie)
	if status >= http.StatusInternalServerError {
		zap.S().Errorw("request failed", "method", r.Method, "path", r.URL.Path, "code", ie.Code, "error", err)
	}
	_ = writeJSON(w, status, APIResponse{
		Error:   ie.Message,
		Code:    ie.Code,
		Field:   ie.Field,
		Details: ie.Details,
	})
}

// readJSONBody decodes a body of at most limit bytes into v.
func readJSONBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return inquiry.NewInquiryError(inquiry.ErrorTypeValidation, inquiry.ErrCodeInvalidJSON,
			fmt.Sprintf("invalid json body: %v", err))
	}
	return nil
}
