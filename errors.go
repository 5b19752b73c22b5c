package inquiry

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeSchema        ErrorType = "schema"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeTransport     ErrorType = "transport"
	ErrorTypeRegex         ErrorType = "regex"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeInternal      ErrorType = "internal"
)

// InquiryError is the unified error returned by the compiler, the editor and
// the intake service.
type InquiryError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *InquiryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *InquiryError) Unwrap() error {
	return e.Cause
}

// WithDetails merges details into the error
func (e *InquiryError) WithDetails(details map[string]any) *InquiryError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail
func (e *InquiryError) WithDetail(key string, value any) *InquiryError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *InquiryError) WithCause(cause error) *InquiryError {
	e.Cause = cause
	return e
}

// WithField adds field context
func (e *InquiryError) WithField(field string) *InquiryError {
	e.Field = field
	return e
}

// Error codes
const (
	// Schema errors
	ErrCodeSchemaInvalid     = "SCHEMA_INVALID"
	ErrCodeUnknownFieldType  = "UNKNOWN_FIELD_TYPE"
	ErrCodeMissingOptions    = "MISSING_OPTIONS"
	ErrCodeUnexpectedOptions = "UNEXPECTED_OPTIONS"
	ErrCodeDuplicateFieldID  = "DUPLICATE_FIELD_ID"
	ErrCodeUnsupportedField  = "UNSUPPORTED_FIELD"
	ErrCodeInvalidLength     = "INVALID_LENGTH"

	// Validation errors
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"

	// Configuration errors
	ErrCodeNoAllowedDomains  = "NO_ALLOWED_DOMAINS"
	ErrCodeInvalidRecipients = "INVALID_RECIPIENTS"
	ErrCodeInvalidUpload     = "INVALID_UPLOAD_LIMITS"
	ErrCodeInvalidURL        = "INVALID_COMPLETION_URL"
	ErrCodeOriginNotAllowed  = "ORIGIN_NOT_ALLOWED"
	ErrCodeInvalidOutputMode = "INVALID_OUTPUT_MODE"

	// Transport errors
	ErrCodeUploadFailed = "UPLOAD_FAILED"
	ErrCodeCircuitOpen  = "CIRCUIT_OPEN"

	// Regex errors
	ErrCodeInvalidPattern     = "INVALID_PATTERN"
	ErrCodeNonPortablePattern = "NON_PORTABLE_PATTERN"

	// Storage errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeStorageFailed = "STORAGE_FAILED"

	ErrCodeInternalError = "INTERNAL_ERROR"
)

// ============================================================================
// InquiryError Constructors
// ============================================================================

// NewInquiryError creates a new InquiryError
func NewInquiryError(errorType ErrorType, code, message string) *InquiryError {
	return &InquiryError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewSchemaError creates a schema error scoped to a field
func NewSchemaError(code, field, message string) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeSchema,
		Code:    code,
		Message: message,
		Field:   field,
		Details: make(map[string]any),
	}
}

// NewValidationError creates a validation error
func NewValidationError(field, message string) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeValidationFailed,
		Message: message,
		Field:   field,
		Details: make(map[string]any),
	}
}

// NewConfigurationError creates a form configuration error
func NewConfigurationError(code, message string) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeConfiguration,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewTransportError creates a transport error
func NewTransportError(code, message string, cause error) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeTransport,
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewRegexError creates a regex error for a field pattern
func NewRegexError(code, field, pattern string, cause error) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeRegex,
		Code:    code,
		Message: fmt.Sprintf("pattern %q is not usable", pattern),
		Field:   field,
		Cause:   cause,
		Details: map[string]any{"pattern": pattern},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(collection, key string) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", collection, key),
		Details: map[string]any{"collection": collection, "key": key},
	}
}

// NewAlreadyExistsError creates a conflict error
func NewAlreadyExistsError(collection, key string) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeAlreadyExists,
		Message: fmt.Sprintf("%s %q already exists", collection, key),
		Details: map[string]any{"collection": collection, "key": key},
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *InquiryError {
	return &InquiryError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// ============================================================================
// Error Checking Utilities
// ============================================================================

// IsErrorType reports whether err wraps an InquiryError of the given type
func IsErrorType(err error, errorType ErrorType) bool {
	var ie *InquiryError
	if errors.As(err, &ie) {
		return ie.Type == errorType
	}
	return false
}

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsConflict reports whether err is an already-exists error
func IsConflict(err error) bool {
	return IsErrorType(err, ErrorTypeConflict)
}

// ErrorCode returns the code of a wrapped InquiryError, or "" if err is not one
func ErrorCode(err error) string {
	var ie *InquiryError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
