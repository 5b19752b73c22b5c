package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/factory"
	"github.com/lychee-technology/inquiry/internal/namespace"
	"github.com/lychee-technology/inquiry/internal/publish"
	"github.com/lychee-technology/inquiry/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify(ctx context.Context, form *inquiry.Form, q *inquiry.Inquiry) error {
	c.n++
	return nil
}

func newTestServer(t *testing.T) (*Server, *countingNotifier) {
	t.Helper()
	n := &countingNotifier{}
	svc, err := factory.NewService(context.Background(), inquiry.DefaultConfig(),
		factory.WithRepository(storage.NewMemoryRepository()),
		factory.WithNotifier(n))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return NewServer(svc), n
}

func do(t *testing.T, s *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createDeliverableForm creates a form with one required text field that
// accepts submissions from localhost:3000.
func createDeliverableForm(t *testing.T, s *Server) inquiry.Form {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/forms", `{"name":"Contact"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	form := decode[inquiry.Form](t, rec)

	form.Fields = []inquiry.FormField{{ID: "name", Type: inquiry.FieldTypeText, Label: "Name", Required: true}}
	form.Settings.RecipientEmails = []string{"ops@example.com"}
	body, err := json.Marshal(form)
	require.NoError(t, err)

	rec = do(t, s, http.MethodPut, "/api/forms/"+form.ID, string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[saveFormResponse](t, rec)
	require.NotNil(t, saved.Form)
	return *saved.Form
}

func TestFormLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	form := createDeliverableForm(t, s)

	rec := do(t, s, http.MethodGet, "/api/forms", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]inquiry.Form](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Contact", decode[inquiry.Form](t, rec).Name)

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID+"/export?mode=inline", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<script")

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID+"/export?mode=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, inquiry.ErrCodeInvalidOutputMode, decode[APIResponse](t, rec).Code)

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID+"/schema", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"formId"`)

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID+"/preview", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "disabled")

	rec = do(t, s, http.MethodPost, "/api/forms/"+form.ID+"/validate", `{"values":{}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	res := decode[inquiry.FormValidationResult](t, rec)
	assert.False(t, res.IsValid)
	assert.Equal(t, "name", res.FirstInvalid)

	rec = do(t, s, http.MethodDelete, "/api/forms/"+form.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, inquiry.ErrCodeNotFound, decode[APIResponse](t, rec).Code)
}

func TestSaveFormRejectsUndeliverableForm(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/forms", `{"name":"Draft"}`)
	form := decode[inquiry.Form](t, rec)

	body, _ := json.Marshal(form)
	rec = do(t, s, http.MethodPut, "/api/forms/"+form.ID, string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[APIResponse](t, rec)
	assert.Equal(t, inquiry.ErrCodeInvalidRecipients, resp.Code)
	assert.Contains(t, resp.Details, "issues")
}

func TestSaveFormBadJSON(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/api/forms/x", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, inquiry.ErrCodeInvalidJSON, decode[APIResponse](t, rec).Code)
}

func TestFieldOperations(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/forms", `{"name":"Fields"}`)
	form := decode[inquiry.Form](t, rec)
	base := "/api/forms/" + form.ID + "/fields"

	rec = do(t, s, http.MethodPost, base, `{"type":"text"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[inquiry.FormField](t, rec)

	rec = do(t, s, http.MethodPost, base, `{"type":"select"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[inquiry.FormField](t, rec)
	assert.Equal(t, 1, second.Order)

	rec = do(t, s, http.MethodPost, base, `{"type":"file"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, inquiry.ErrCodeUnsupportedField, decode[APIResponse](t, rec).Code)

	rec = do(t, s, http.MethodPatch, base+"/"+first.ID,
		`{"label":"Email","required":true,"validation":{"type":"email"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[inquiry.FormField](t, rec)
	assert.Equal(t, "Email", patched.Label)
	assert.True(t, patched.Required)
	require.NotNil(t, patched.Validation)
	assert.Equal(t, inquiry.ValidationTypeEmail, patched.Validation.Type)

	rec = do(t, s, http.MethodPatch, base+"/"+first.ID, `{"validation":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[inquiry.FormField](t, rec).Validation)

	rec = do(t, s, http.MethodPost, base+"/"+first.ID+"/duplicate", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	dup := decode[inquiry.FormField](t, rec)
	assert.Equal(t, "Email (copy)", dup.Label)
	assert.Equal(t, 1, dup.Order)

	rec = do(t, s, http.MethodPost, base+"/"+second.ID+"/move", `{"to":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	moved := decode[inquiry.Form](t, rec)
	require.Len(t, moved.Fields, 3)
	assert.Equal(t, second.ID, moved.Fields[0].ID)

	rec = do(t, s, http.MethodDelete, base+"/"+dup.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, base+"/"+dup.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID, "")
	assert.Len(t, decode[inquiry.Form](t, rec).Fields, 2)
}

func TestSubmitInquiryWithCORS(t *testing.T) {
	s, notifier := newTestServer(t)
	form := createDeliverableForm(t, s)
	const allowed = "http://localhost:3000"

	rec := do(t, s, http.MethodOptions, "/api/inquiries", "", "Origin", allowed)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, allowed, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = do(t, s, http.MethodOptions, "/api/inquiries", "", "Origin", "https://evil.test")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	body := `{"formId":"` + form.ID + `","responses":{"name":"Ada"}}`
	rec = do(t, s, http.MethodPost, "/api/inquiries", body, "Origin", allowed)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, allowed, rec.Header().Get("Access-Control-Allow-Origin"))
	q := decode[inquiry.Inquiry](t, rec)
	assert.Equal(t, form.ID, q.FormID)
	assert.Equal(t, 1, notifier.n)

	rec = do(t, s, http.MethodPost, "/api/inquiries", body, "Origin", "https://evil.test")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, inquiry.ErrCodeOriginNotAllowed, decode[APIResponse](t, rec).Code)

	rec = do(t, s, http.MethodPost, "/api/inquiries", `{"formId":"`+form.ID+`","responses":{}}`, "Origin", allowed)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, allowed, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, s, http.MethodPost, "/api/inquiries", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, inquiry.ErrCodeInvalidJSON, decode[APIResponse](t, rec).Code)

	rec = do(t, s, http.MethodGet, "/api/forms/"+form.ID+"/inquiries", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]inquiry.Inquiry](t, rec), 1)
}

func TestWidgetScript(t *testing.T) {
	s, _ := newTestServer(t)
	form := createDeliverableForm(t, s)

	rec := do(t, s, http.MethodGet, "/widgets/"+namespace.ScriptFileFor(form.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, publish.ContentType, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/widgets/other.js", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/widgets/"+namespace.ScriptFileFor("missing"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishDisabled(t *testing.T) {
	s, _ := newTestServer(t)
	form := createDeliverableForm(t, s)

	rec := do(t, s, http.MethodPost, "/api/forms/"+form.ID+"/publish", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestSignatures(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/signatures", `{"name":"Main","content":"-- Ops","isDefault":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	primary := decode[inquiry.Signature](t, rec)
	assert.NotEmpty(t, primary.ID)

	rec = do(t, s, http.MethodPost, "/api/signatures", `{"name":"Sales","isDefault":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	sales := decode[inquiry.Signature](t, rec)

	rec = do(t, s, http.MethodGet, "/api/signatures/"+primary.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[inquiry.Signature](t, rec).IsDefault)

	rec = do(t, s, http.MethodPut, "/api/signatures/"+primary.ID, `{"name":"Main v2","content":"-- Ops"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Main v2", decode[inquiry.Signature](t, rec).Name)

	rec = do(t, s, http.MethodPost, "/api/signatures", `{"name":"  "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/signatures", "")
	assert.Len(t, decode[[]inquiry.Signature](t, rec), 2)

	rec = do(t, s, http.MethodDelete, "/api/signatures/"+sales.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/signatures/"+sales.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
