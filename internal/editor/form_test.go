package editor

import (
	"testing"

	"github.com/lychee-technology/inquiry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldIDs(form *inquiry.Form) []string {
	var ids []string
	for _, f := range form.SortedFields() {
		ids = append(ids, f.ID)
	}
	return ids
}

func orders(form *inquiry.Form) []int {
	var out []int
	for _, f := range form.Fields {
		out = append(out, f.Order)
	}
	return out
}

func TestNewFormDefaults(t *testing.T) {
	form := NewForm("  Contact us ")

	assert.NotEmpty(t, form.ID)
	assert.Equal(t, "Contact us", form.Name)
	assert.Empty(t, form.Fields)
	assert.Equal(t, inquiry.DefaultCSS, form.Styling.CSS)
	assert.Equal(t, []string{"localhost:3000"}, form.Settings.AllowedDomains)
	assert.False(t, form.Settings.AutoReply)
	assert.False(t, form.Settings.FileUpload.Enabled)
	assert.Equal(t, inquiry.MaxUploadFiles, form.Settings.FileUpload.MaxFiles)
	assert.Equal(t, inquiry.MaxUploadFileSize, form.Settings.FileUpload.MaxFileSize)
	assert.NotNil(t, form.Settings.RecipientEmails)
}

func TestAddField(t *testing.T) {
	form := NewForm("f")

	text, err := AddField(form, inquiry.FieldTypeText)
	require.NoError(t, err)
	assert.Equal(t, 0, text.Order)
	assert.Equal(t, "Text", text.Label)
	assert.Empty(t, text.Options)

	sel, err := AddField(form, inquiry.FieldTypeSelect)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Order)
	assert.Equal(t, DefaultOptions, sel.Options)

	_, err = AddField(form, inquiry.FieldTypeFile)
	assert.Equal(t, inquiry.ErrCodeUnsupportedField, inquiry.ErrorCode(err))

	_, err = AddField(form, "signature")
	assert.Equal(t, inquiry.ErrCodeUnknownFieldType, inquiry.ErrorCode(err))
	assert.Len(t, form.Fields, 2)
}

func TestUpdateFieldNormalizesTypeChange(t *testing.T) {
	form := NewForm("f")
	sel, err := AddField(form, inquiry.FieldTypeSelect)
	require.NoError(t, err)

	updated, err := UpdateField(form, sel.ID, func(f *inquiry.FormField) {
		f.ID = "hijack"
		f.Order = 9
		f.Multiple = true
		f.AllowOther = true
		f.Label = "Topic"
	})
	require.NoError(t, err)
	assert.Equal(t, sel.ID, updated.ID)
	assert.Equal(t, 0, updated.Order)
	assert.True(t, updated.Multiple)
	assert.True(t, updated.AllowOther)

	updated, err = UpdateField(form, sel.ID, func(f *inquiry.FormField) {
		f.Type = inquiry.FieldTypeText
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Options)
	assert.False(t, updated.Multiple)
	assert.False(t, updated.AllowOther)
	assert.Equal(t, "Topic", form.Fields[0].Label)

	updated, err = UpdateField(form, sel.ID, func(f *inquiry.FormField) {
		f.Type = inquiry.FieldTypeCheckbox
		f.Validation = &inquiry.FieldValidation{Type: inquiry.ValidationTypeEmail, Pattern: "x"}
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions, updated.Options)
	assert.Equal(t, &inquiry.FieldValidation{}, updated.Validation)

	_, err = UpdateField(form, sel.ID, func(f *inquiry.FormField) { f.Type = inquiry.FieldTypeFile })
	assert.Equal(t, inquiry.ErrCodeUnsupportedField, inquiry.ErrorCode(err))

	_, err = UpdateField(form, "missing", func(*inquiry.FormField) {})
	assert.True(t, inquiry.IsNotFound(err))
}

func TestDeleteFieldDensifies(t *testing.T) {
	form := NewForm("f")
	a, _ := AddField(form, inquiry.FieldTypeText)
	b, _ := AddField(form, inquiry.FieldTypeText)
	c, _ := AddField(form, inquiry.FieldTypeText)

	require.NoError(t, DeleteField(form, b.ID))
	assert.Equal(t, []string{a.ID, c.ID}, fieldIDs(form))
	assert.Equal(t, []int{0, 1}, orders(form))
	assert.True(t, inquiry.IsNotFound(DeleteField(form, b.ID)))
}

func TestMoveField(t *testing.T) {
	form := NewForm("f")
	a, _ := AddField(form, inquiry.FieldTypeText)
	b, _ := AddField(form, inquiry.FieldTypeText)
	c, _ := AddField(form, inquiry.FieldTypeText)

	require.NoError(t, MoveField(form, c.ID, 0))
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, fieldIDs(form))

	require.NoError(t, MoveField(form, c.ID, 99))
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, fieldIDs(form))

	require.NoError(t, MoveField(form, b.ID, -3))
	assert.Equal(t, []string{b.ID, a.ID, c.ID}, fieldIDs(form))
	assert.Equal(t, []int{0, 1, 2}, orders(form))

	assert.True(t, inquiry.IsNotFound(MoveField(form, "nope", 0)))
}

func TestDuplicateField(t *testing.T) {
	form := NewForm("f")
	a, _ := AddField(form, inquiry.FieldTypeRadio)
	b, _ := AddField(form, inquiry.FieldTypeText)

	dup, err := DuplicateField(form, a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, dup.ID)
	assert.Equal(t, "Choice (copy)", dup.Label)
	assert.Equal(t, a.Options, dup.Options)
	assert.Equal(t, []string{a.ID, dup.ID, b.ID}, fieldIDs(form))
	assert.Equal(t, 1, dup.Order)

	// the copy does not share option storage with the original
	form.Fields[1].Options[0] = "changed"
	assert.Equal(t, "Option 1", form.Fields[0].Options[0])
}

func TestDensifyKeepsRelativeOrder(t *testing.T) {
	form := &inquiry.Form{Fields: []inquiry.FormField{
		{ID: "c", Order: 10},
		{ID: "a", Order: -1},
		{ID: "b", Order: 4},
		{ID: "b2", Order: 4},
	}}
	Densify(form)
	assert.Equal(t, []string{"a", "b", "b2", "c"}, fieldIDs(form))
	assert.Equal(t, []int{0, 1, 2, 3}, orders(form))
}
