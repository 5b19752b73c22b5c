// Package intake accepts the submissions posted by generated widgets.
package intake

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/rules"
	"github.com/lychee-technology/inquiry/internal/storage"
	"github.com/lychee-technology/inquiry/internal/telemetry"
	"go.uber.org/zap"
)

// Service validates, stores and announces submissions.
type Service struct {
	stores   *storage.Stores
	compiler *rules.Compiler
	notifier Notifier
	nowFunc  func() time.Time
}

// NewService returns an intake service. A nil notifier logs through zap.
func NewService(stores *storage.Stores, messages inquiry.Messages, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NewLogNotifier(nil)
	}
	return &Service{
		stores:   stores,
		compiler: rules.NewCompiler(messages.WithDefaults()),
		notifier: notifier,
		nowFunc:  time.Now,
	}
}

func (s *Service) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.nowFunc = now
}

// Form loads the form a submission targets; the HTTP layer uses it for CORS.
func (s *Service) Form(ctx context.Context, id string) (*inquiry.Form, error) {
	return s.stores.Forms.Get(ctx, id)
}

// List returns the inquiries of a form, oldest first.
func (s *Service) List(ctx context.Context, formID string) ([]*inquiry.Inquiry, error) {
	if _, err := s.stores.Forms.Get(ctx, formID); err != nil {
		return nil, err
	}
	return s.stores.Inquiries.ListByForm(ctx, formID)
}

// Submit handles one POSTed body. origin is the request's Origin header and
// may be empty.
func (s *Service) Submit(ctx context.Context, origin string, body []byte) (*inquiry.Inquiry, error) {
	formID := ""
	q, err := s.submit(ctx, origin, body, &formID)
	outcome := "accepted"
	if err != nil {
		outcome = inquiry.ErrorCode(err)
		if outcome == "" {
			outcome = inquiry.ErrCodeInternalError
		}
		zap.S().Infow("inquiry rejected", "formId", formID, "origin", origin, "code", outcome, "error", err)
	}
	telemetry.EmitSubmission(ctx, formID, outcome)
	return q, err
}

func (s *Service) submit(ctx context.Context, origin string, body []byte, formID *string) (*inquiry.Inquiry, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, inquiry.NewInquiryError(inquiry.ErrorTypeValidation, inquiry.ErrCodeInvalidJSON,
			"request body is not valid JSON").WithCause(err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, invalidPayload("request body must be a JSON object", nil)
	}
	id, _ := obj["formId"].(string)
	if strings.TrimSpace(id) == "" {
		return nil, invalidPayload("formId is required", nil)
	}
	*formID = id

	form, err := s.stores.Forms.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	schema, err := SchemaFor(form)
	if err != nil {
		return nil, inquiry.NewInternalError("building submission schema", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, invalidPayload("request body does not match the form", err)
	}

	var sub inquiry.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, invalidPayload("request body does not match the form", err)
	}

	if err := checkDeliverable(form); err != nil {
		return nil, err
	}
	if !AllowOrigin(form, origin) {
		return nil, inquiry.NewInquiryError(inquiry.ErrorTypeValidation, inquiry.ErrCodeOriginNotAllowed,
			"origin is not in the form's allowed domains").WithDetail("origin", origin)
	}

	result := s.compiler.ValidateForm(form.Fields, sub.Responses)
	if !result.IsValid {
		return nil, inquiry.NewValidationError(result.FirstInvalid, result.Errors[result.FirstInvalid]).
			WithDetail("errors", result.Errors)
	}

	q := &inquiry.Inquiry{
		ID:          uuid.New(),
		FormID:      form.ID,
		Responses:   knownResponses(form, sub.Responses),
		Sender:      senderInfo(form, sub),
		Origin:      strings.TrimSpace(origin),
		Recipients:  append([]string(nil), form.Settings.RecipientEmails...),
		AutoReply:   form.Settings.AutoReply,
		SignatureID: form.Settings.SignatureID,
		ReceivedAt:  s.nowFunc().UTC(),
	}
	if err := s.stores.Inquiries.Create(ctx, q); err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, form, q); err != nil {
		// the inquiry is stored; a failed notification does not reject it
		zap.S().Warnw("inquiry notification failed", "inquiryId", q.ID, "formId", q.FormID, "error", err)
	}
	return q, nil
}

func checkDeliverable(form *inquiry.Form) error {
	if !inquiry.HasUsableDomains(form.Settings.AllowedDomains) {
		return inquiry.NewConfigurationError(inquiry.ErrCodeNoAllowedDomains,
			"form has no usable allowed domains")
	}
	if n := len(form.Settings.RecipientEmails); n < inquiry.MinRecipients || n > inquiry.MaxRecipients {
		return inquiry.NewConfigurationError(inquiry.ErrCodeInvalidRecipients,
			"form has no valid recipient list")
	}
	return nil
}

func invalidPayload(msg string, cause error) *inquiry.InquiryError {
	err := inquiry.NewInquiryError(inquiry.ErrorTypeValidation, inquiry.ErrCodeInvalidPayload, msg)
	if cause != nil {
		err = err.WithCause(cause).WithDetail("reason", cause.Error())
	}
	return err
}

// knownResponses drops keys that are neither a field of the form nor the
// attachment list.
func knownResponses(form *inquiry.Form, responses map[string]any) map[string]any {
	out := make(map[string]any, len(responses))
	for k, v := range responses {
		if form.FieldByID(k) >= 0 || (k == AttachmentsKey && form.Settings.FileUpload.Enabled) {
			out[k] = v
		}
	}
	return out
}

// senderInfo prefers values read from the responses over what the client
// reported.
func senderInfo(form *inquiry.Form, sub inquiry.Submission) inquiry.SenderInfo {
	fields := form.SenderFields()
	pick := func(fieldID, reported string) string {
		if fieldID != "" {
			if v, ok := sub.Responses[fieldID].(string); ok {
				return strings.Trim(v, inquiry.Whitespace)
			}
		}
		return strings.Trim(reported, inquiry.Whitespace)
	}
	return inquiry.SenderInfo{
		Name:  pick(fields.Name, sub.SenderInfo.Name),
		Email: pick(fields.Email, sub.SenderInfo.Email),
		Phone: pick(fields.Phone, sub.SenderInfo.Phone),
	}
}
