package editor

import (
	"context"
	"strings"
	"time"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/render"
	"github.com/lychee-technology/inquiry/internal/rules"
	"github.com/lychee-technology/inquiry/internal/storage"
	"go.uber.org/zap"
)

// Manager persists forms and signatures and runs the editor-side checks.
type Manager struct {
	stores   *storage.Stores
	compiler *rules.Compiler
	messages inquiry.Messages
	nowFunc  func() time.Time
}

// NewManager returns a manager over stores using messages for validation
// and preview output.
func NewManager(stores *storage.Stores, messages inquiry.Messages) *Manager {
	messages = messages.WithDefaults()
	return &Manager{
		stores:   stores,
		compiler: rules.NewCompiler(messages),
		messages: messages,
		nowFunc:  time.Now,
	}
}

func (m *Manager) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	m.nowFunc = now
}

func (m *Manager) now() time.Time {
	return m.nowFunc().UTC()
}

// Create stores a new form with defaults. The draft is not checked: a fresh
// form has no recipients yet.
func (m *Manager) Create(ctx context.Context, name string) (*inquiry.Form, error) {
	form := NewForm(name)
	form.CreatedAt = m.now()
	form.UpdatedAt = form.CreatedAt
	if err := m.stores.Forms.Create(ctx, form); err != nil {
		return nil, err
	}
	zap.S().Infow("form created", "formId", form.ID)
	return form, nil
}

// Get loads a form.
func (m *Manager) Get(ctx context.Context, id string) (*inquiry.Form, error) {
	return m.stores.Forms.Get(ctx, id)
}

// List returns every form ordered by id.
func (m *Manager) List(ctx context.Context) ([]*inquiry.Form, error) {
	return m.stores.Forms.List(ctx)
}

// Save checks the form and replaces the stored copy. Schema and
// configuration errors block the save; regex warnings are returned with the
// report. CreatedAt is kept from the stored copy.
func (m *Manager) Save(ctx context.Context, form *inquiry.Form) (*inquiry.Form, Report, error) {
	if form == nil {
		r := Check(nil)
		return nil, r, r.Err()
	}
	existing, err := m.stores.Forms.Get(ctx, form.ID)
	if err != nil {
		return nil, Report{}, err
	}

	next := form.Clone()
	next.Name = strings.TrimSpace(next.Name)
	Densify(next)

	report := Check(next)
	if err := report.Err(); err != nil {
		return nil, report, err
	}
	for _, w := range report.Warnings {
		zap.S().Warnw("form saved with dropped pattern", "formId", next.ID, "field", w.Field, "code", w.Code)
	}

	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = m.now()
	if err := m.stores.Forms.Put(ctx, next); err != nil {
		return nil, report, err
	}
	return next, report, nil
}

// Edit loads a form, applies fn and stores the result with a new
// UpdatedAt. It backs the per-field operations, which work on drafts and so
// skip the save checks.
func (m *Manager) Edit(ctx context.Context, id string, fn func(*inquiry.Form) error) (*inquiry.Form, error) {
	form, err := m.stores.Forms.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(form); err != nil {
		return nil, err
	}
	form.ID = id
	Densify(form)
	form.UpdatedAt = m.now()
	if err := m.stores.Forms.Put(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// Delete removes a form.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.stores.Forms.Delete(ctx, id); err != nil {
		return err
	}
	zap.S().Infow("form deleted", "formId", id)
	return nil
}

// Validate runs the interpreter over values keyed by field id.
func (m *Manager) Validate(ctx context.Context, id string, values map[string]any) (inquiry.FormValidationResult, error) {
	form, err := m.stores.Forms.Get(ctx, id)
	if err != nil {
		return inquiry.FormValidationResult{}, err
	}
	return m.compiler.ValidateForm(form.Fields, values), nil
}

// Preview renders the form with every control disabled.
func (m *Manager) Preview(ctx context.Context, id string) (string, error) {
	form, err := m.stores.Forms.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return render.Form(form, render.Options{Disabled: true, Messages: m.messages}), nil
}

// CreateSignature stores a new signature under a fresh id.
func (m *Manager) CreateSignature(ctx context.Context, sig inquiry.Signature) (*inquiry.Signature, error) {
	if err := checkSignature(&sig); err != nil {
		return nil, err
	}
	sig.ID = NewID()
	sig.CreatedAt = m.now()
	sig.UpdatedAt = sig.CreatedAt
	if err := m.stores.Signatures.Create(ctx, &sig); err != nil {
		return nil, err
	}
	if sig.IsDefault {
		if err := m.clearDefault(ctx, sig.ID); err != nil {
			return nil, err
		}
	}
	return &sig, nil
}

// GetSignature loads a signature.
func (m *Manager) GetSignature(ctx context.Context, id string) (*inquiry.Signature, error) {
	return m.stores.Signatures.Get(ctx, id)
}

// ListSignatures returns every signature ordered by id.
func (m *Manager) ListSignatures(ctx context.Context) ([]*inquiry.Signature, error) {
	return m.stores.Signatures.List(ctx)
}

// SaveSignature replaces a stored signature. At most one signature is the
// default; marking one clears the flag on the others.
func (m *Manager) SaveSignature(ctx context.Context, sig inquiry.Signature) (*inquiry.Signature, error) {
	if err := checkSignature(&sig); err != nil {
		return nil, err
	}
	existing, err := m.stores.Signatures.Get(ctx, sig.ID)
	if err != nil {
		return nil, err
	}
	sig.CreatedAt = existing.CreatedAt
	sig.UpdatedAt = m.now()
	if err := m.stores.Signatures.Put(ctx, &sig); err != nil {
		return nil, err
	}
	if sig.IsDefault {
		if err := m.clearDefault(ctx, sig.ID); err != nil {
			return nil, err
		}
	}
	return &sig, nil
}

// DeleteSignature removes a signature.
func (m *Manager) DeleteSignature(ctx context.Context, id string) error {
	return m.stores.Signatures.Delete(ctx, id)
}

func (m *Manager) clearDefault(ctx context.Context, keep string) error {
	all, err := m.stores.Signatures.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range all {
		if s.ID == keep || !s.IsDefault {
			continue
		}
		s.IsDefault = false
		s.UpdatedAt = m.now()
		if err := m.stores.Signatures.Put(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func checkSignature(sig *inquiry.Signature) error {
	sig.Name = strings.TrimSpace(sig.Name)
	if sig.Name == "" {
		return inquiry.NewSchemaError(inquiry.ErrCodeSchemaInvalid, "name", "signature name is required")
	}
	return nil
}
