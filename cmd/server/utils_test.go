package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lychee-technology/inquiry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("INQUIRY_TEST_STR", "value")
	t.Setenv("INQUIRY_TEST_INT", "42")
	t.Setenv("INQUIRY_TEST_BAD_INT", "x")
	t.Setenv("INQUIRY_TEST_BOOL", "true")
	t.Setenv("INQUIRY_TEST_DUR", "2m")

	assert.Equal(t, "value", getEnv("INQUIRY_TEST_STR", "d"))
	assert.Equal(t, "d", getEnv("INQUIRY_TEST_UNSET", "d"))
	assert.Equal(t, 42, getEnvInt("INQUIRY_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("INQUIRY_TEST_BAD_INT", 1))
	assert.True(t, getEnvBool("INQUIRY_TEST_BOOL", false))
	assert.Equal(t, 2*time.Minute, getEnvDuration("INQUIRY_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("INQUIRY_TEST_UNSET", time.Second))
}

func TestLoadConfigOverlay(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "duckdb")
	t.Setenv("DB_IAM_AUTH", "true")
	t.Setenv("SUBMIT_TIMEOUT", "5s")
	t.Setenv("S3_BUCKET", "widgets")

	cfg := loadConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, inquiry.StorageBackendDuckDB, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Database.UseIAMAuth)
	assert.Equal(t, 5*time.Second, cfg.Export.SubmitTimeout)
	assert.Equal(t, "widgets", cfg.Publish.Bucket)
	assert.False(t, cfg.Publish.Enabled)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(inquiry.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = newLogger(inquiry.LoggingConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  *inquiry.InquiryError
		want int
	}{
		{inquiry.NewNotFoundError("forms", "x"), http.StatusNotFound},
		{inquiry.NewAlreadyExistsError("forms", "x"), http.StatusConflict},
		{inquiry.NewValidationError("name", "required"), http.StatusBadRequest},
		{inquiry.NewSchemaError(inquiry.ErrCodeSchemaInvalid, "", "bad"), http.StatusUnprocessableEntity},
		{inquiry.NewConfigurationError(inquiry.ErrCodeNoAllowedDomains, "bad"), http.StatusUnprocessableEntity},
		{inquiry.NewConfigurationError(inquiry.ErrCodeInvalidOutputMode, "bad"), http.StatusBadRequest},
		{inquiry.NewInquiryError(inquiry.ErrorTypeValidation, inquiry.ErrCodeOriginNotAllowed, "no"), http.StatusForbidden},
		{inquiry.NewTransportError(inquiry.ErrCodeCircuitOpen, "open", nil), http.StatusServiceUnavailable},
		{inquiry.NewTransportError(inquiry.ErrCodeUploadFailed, "failed", nil), http.StatusBadGateway},
		{inquiry.NewInternalError("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteFailurePlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	writeFailure(rec, req, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), inquiry.ErrCodeInternalError)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestReadJSONBodyLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"`+strings.Repeat("a", 64)+`"}`))
	var v map[string]any
	err := readJSONBody(rec, req, 16, &v)
	assert.Equal(t, inquiry.ErrCodeInvalidJSON, inquiry.ErrorCode(err))
}
