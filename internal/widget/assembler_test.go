package widget

import (
	"strings"
	"testing"
	"time"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func contactForm() *inquiry.Form {
	return &inquiry.Form{
		ID:   "contact",
		Name: "Contact",
		Fields: []inquiry.FormField{
			{ID: "name", Type: inquiry.FieldTypeText, Label: "Name", Required: true, Order: 0},
			{ID: "email", Type: inquiry.FieldTypeText, Label: "Email", Order: 1,
				Validation: &inquiry.FieldValidation{Type: inquiry.ValidationTypeEmail}},
			{ID: "topic", Type: inquiry.FieldTypeSelect, Label: "Topic", Options: []string{"Sales", "Support"}, Order: 2},
			{ID: "tags", Type: inquiry.FieldTypeCheckbox, Label: "Tags", Options: []string{"a", "b"}, Order: 3},
		},
		Styling: inquiry.Styling{CSS: inquiry.DefaultCSS},
		Settings: inquiry.FormSettings{
			AllowedDomains:  []string{"example.com"},
			RecipientEmails: []string{"ops@example.com"},
		},
	}
}

func newTestAssembler() *Assembler {
	return NewAssembler(inquiry.ExportConfig{ScriptBaseURL: "https://cdn.example.com/widgets/"})
}

func TestNewAssembler_Defaults(t *testing.T) {
	a := NewAssembler(inquiry.ExportConfig{})
	cfg := a.Config()
	assert.Equal(t, "http://localhost:8080/widgets", cfg.ScriptBaseURL)
	assert.Equal(t, "/api/inquiries", cfg.Endpoint)
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, inquiry.DefaultMessages(), cfg.Messages)
}

func TestBuild_Compact(t *testing.T) {
	out, err := newTestAssembler().Build(contactForm(), inquiry.OutputModeCompact)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `<div id="inquiry-form-contact"></div>`, lines[0])
	assert.Equal(t, `<script src="https://cdn.example.com/widgets/inquiry-form-contact.js" async></script>`, lines[1])
}

func TestBuild_Deterministic(t *testing.T) {
	a := newTestAssembler()
	for _, mode := range []inquiry.OutputMode{inquiry.OutputModeCompact, inquiry.OutputModeInline, inquiry.OutputModeDetailed} {
		first, err := a.Build(contactForm(), mode)
		require.NoError(t, err)
		second, err := NewAssembler(a.Config()).Build(contactForm(), mode)
		require.NoError(t, err)
		assert.Equal(t, first, second, "mode %s", mode)
	}
}

func TestBuild_Errors(t *testing.T) {
	a := newTestAssembler()

	_, err := a.Build(nil, inquiry.OutputModeInline)
	assert.True(t, inquiry.IsErrorType(err, inquiry.ErrorTypeSchema))

	_, err = a.Build(contactForm(), inquiry.OutputMode("minified"))
	assert.True(t, inquiry.IsErrorType(err, inquiry.ErrorTypeConfiguration))
	assert.Equal(t, inquiry.ErrCodeInvalidOutputMode, inquiry.ErrorCode(err))
}

func TestBuild_MisconfiguredFormStillExports(t *testing.T) {
	form := contactForm()
	form.Settings.AllowedDomains = nil
	form.Settings.RecipientEmails = nil

	for _, mode := range []inquiry.OutputMode{inquiry.OutputModeCompact, inquiry.OutputModeInline, inquiry.OutputModeDetailed} {
		out, err := newTestAssembler().Build(form, mode)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	}
}

func TestBuild_InlineIsCondensed(t *testing.T) {
	out, err := newTestAssembler().Build(contactForm(), inquiry.OutputModeInline)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<div id="inquiry-form-contact"></div>`+"\n<script>\n"))
	assert.True(t, strings.HasSuffix(out, "\n</script>"))
	for _, line := range strings.Split(out, "\n") {
		assert.NotEqual(t, "", line)
		assert.False(t, strings.HasPrefix(line, " "), "indented line %q", line)
		assert.False(t, strings.HasPrefix(line, "//"), "comment line %q", line)
	}
}

func TestBuild_DetailedIsCommented(t *testing.T) {
	out, err := newTestAssembler().Build(contactForm(), inquiry.OutputModeDetailed)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!-- inquiry widget inquiry-form-contact"))
	assert.Contains(t, out, `  // "email" (text): pattern`)
	assert.Contains(t, out, "\n  function submit(event) {\n")
}

func TestBuild_EndpointResolvedAgainstScriptOrigin(t *testing.T) {
	out, err := newTestAssembler().Build(contactForm(), inquiry.OutputModeInline)
	require.NoError(t, err)
	assert.Contains(t, out, `var ENDPOINT = "https://cdn.example.com/api/inquiries";`)

	abs := NewAssembler(inquiry.ExportConfig{Endpoint: "https://api.example.org/in"})
	out, err = abs.Build(contactForm(), inquiry.OutputModeInline)
	require.NoError(t, err)
	assert.Contains(t, out, `var ENDPOINT = "https://api.example.org/in";`)
}

func TestBuild_ScopesCSS(t *testing.T) {
	form := contactForm()
	form.Styling.CSS = ".inquiry-form label { color: red; }\n.inquiry-form-x { color: blue; }"
	out, err := newTestAssembler().Build(form, inquiry.OutputModeInline)
	require.NoError(t, err)

	class := namespace.For(form.ID).Class()
	assert.Contains(t, out, "."+class+" label { color: red; }")
	assert.Contains(t, out, ".inquiry-form-x { color: blue; }")
	assert.Contains(t, out, "."+class+" .inquiry-error")
}

func TestBuild_OperatorTextCannotCloseScript(t *testing.T) {
	form := contactForm()
	form.ID = "</script><script>alert(1)//"
	form.Name = "</script><script>alert(2)</script>"
	form.Fields[0].ID = "</script>"
	form.Fields[0].Label = "<!-- </script>"
	form.Fields[2].Options = []string{"</script>", "line\u2028break"}
	form.Settings.CompletionURL = "https://example.com/</script>"
	form.Styling.CSS = "</style></script>"

	for _, mode := range []inquiry.OutputMode{inquiry.OutputModeCompact, inquiry.OutputModeInline, inquiry.OutputModeDetailed} {
		out, err := newTestAssembler().Build(form, mode)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(strings.ToLower(out), "</script"), "mode %s", mode)
		assert.Equal(t, 1, strings.Count(out, "<script"), "mode %s", mode)
		assert.NotContains(t, out, "\u2028")
	}
}

func TestHostedScript(t *testing.T) {
	a := newTestAssembler()
	script, err := a.HostedScript(contactForm())
	require.NoError(t, err)

	inline, err := a.Build(contactForm(), inquiry.OutputModeInline)
	require.NoError(t, err)
	assert.Contains(t, inline, strings.TrimSuffix(script, "\n"))
	assert.NotContains(t, script, "<script")

	_, err = a.HostedScript(nil)
	assert.Error(t, err)
}

func TestScriptURL(t *testing.T) {
	a := newTestAssembler()
	assert.Equal(t, "https://cdn.example.com/widgets/inquiry-form-a_2db.js", a.ScriptURL("a-b"))
}

func TestDiagnostics(t *testing.T) {
	form := contactForm()
	form.Fields[0].Validation = &inquiry.FieldValidation{Pattern: "(?i)abc"}
	diags := newTestAssembler().Diagnostics(form)
	require.Len(t, diags, 1)
	assert.Equal(t, "name", diags[0].FieldID)
}

func TestCondense(t *testing.T) {
	in := "  var a = 1;\n\n  // note\n    if (a) {\n  }\n"
	assert.Equal(t, "var a = 1;\nif (a) {\n}", condense(in))
}
