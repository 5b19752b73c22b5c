// Package widget assembles the embeddable artifacts of a form: the compact
// two-line embed, the self-contained inline block and the commented detailed
// block. All variants carry the same submission runtime.
package widget

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/namespace"
	"github.com/lychee-technology/inquiry/internal/render"
	"github.com/lychee-technology/inquiry/internal/rules"
	"github.com/lychee-technology/inquiry/internal/telemetry"
)

// builtinCSS is appended to the form styling so error slots and markers work
// even when the operator clears the boilerplate.
const builtinCSS = `.inquiry-form .inquiry-field { margin-bottom: 12px; }
.inquiry-form .inquiry-required { color: #c0392b; margin-left: 2px; }
.inquiry-form .inquiry-error { color: #c0392b; font-size: 0.85em; min-height: 1em; }
.inquiry-form .inquiry-choices { border: 0; padding: 0; margin: 0; }
.inquiry-form .inquiry-other { display: block; margin-top: 4px; }`

var formClassRe = regexp.MustCompile(`\.inquiry-form([^A-Za-z0-9_-]|$)`)

// Assembler builds widget artifacts. It holds no mutable state and is safe
// for concurrent use.
type Assembler struct {
	cfg      inquiry.ExportConfig
	compiler *rules.Compiler
}

// NewAssembler creates an assembler. Zero values in cfg fall back to the
// defaults of inquiry.DefaultConfig.
func NewAssembler(cfg inquiry.ExportConfig) *Assembler {
	def := inquiry.DefaultConfig().Export
	if cfg.ScriptBaseURL == "" {
		cfg.ScriptBaseURL = def.ScriptBaseURL
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = def.SubmitTimeout
	}
	cfg.Messages = cfg.Messages.WithDefaults()
	return &Assembler{cfg: cfg, compiler: rules.NewCompiler(cfg.Messages)}
}

// Config returns the effective configuration.
func (a *Assembler) Config() inquiry.ExportConfig {
	return a.cfg
}

// Build renders one artifact. Misconfigured settings (such as an empty
// allowed-domain list) never fail the export; the runtime refuses to submit
// instead. Build fails only for a nil form or an unknown mode.
func (a *Assembler) Build(form *inquiry.Form, mode inquiry.OutputMode) (string, error) {
	if form == nil {
		return "", inquiry.NewSchemaError(inquiry.ErrCodeSchemaInvalid, "", "form is required")
	}
	start := time.Now()
	ns := namespace.For(form.ID)
	container := `<div id="` + html.EscapeString(ns.ContainerID) + `"></div>`

	var out string
	switch mode {
	case inquiry.OutputModeCompact:
		out = container + "\n" + `<script src="` + html.EscapeString(a.ScriptURL(form.ID)) + `" async></script>`
	case inquiry.OutputModeInline:
		script, err := a.runtime(form, ns)
		if err != nil {
			return "", err
		}
		out = container + "\n<script>\n" + condense(script) + "\n</script>"
	case inquiry.OutputModeDetailed:
		script, err := a.runtime(form, ns)
		if err != nil {
			return "", err
		}
		out = "<!-- inquiry widget " + ns.ContainerID + ": debugging build, not for production -->\n" +
			container + "\n<script>\n" + script + "</script>"
	default:
		return "", inquiry.NewConfigurationError(inquiry.ErrCodeInvalidOutputMode,
			fmt.Sprintf("unknown output mode %q", mode))
	}

	telemetry.EmitExportLatency(context.Background(), string(mode), time.Since(start).Milliseconds())
	return out, nil
}

// HostedScript returns the script the compact embed loads.
func (a *Assembler) HostedScript(form *inquiry.Form) (string, error) {
	if form == nil {
		return "", inquiry.NewSchemaError(inquiry.ErrCodeSchemaInvalid, "", "form is required")
	}
	script, err := a.runtime(form, namespace.For(form.ID))
	if err != nil {
		return "", err
	}
	return condense(script) + "\n", nil
}

// ScriptURL is where the compact embed expects the hosted script.
func (a *Assembler) ScriptURL(formID string) string {
	return strings.TrimRight(a.cfg.ScriptBaseURL, "/") + "/" + namespace.ScriptFileFor(formID)
}

// Diagnostics reports the custom patterns that will be dropped from the
// artifact of form.
func (a *Assembler) Diagnostics(form *inquiry.Form) []rules.Diagnostic {
	_, diags := a.compiler.CompileForm(form)
	return diags
}

func (a *Assembler) runtime(form *inquiry.Form, ns namespace.Namespace) (string, error) {
	sets, diags := a.compiler.CompileForm(form)
	telemetry.EmitDroppedPatterns(context.Background(), form.ID, len(diags))

	tracker := newRegexTracker()
	validators := emitValidators(sets, tracker)

	fields := make([]runtimeField, 0, len(sets))
	byID := make(map[string]inquiry.FormField, len(form.Fields))
	for _, f := range form.Fields {
		byID[f.ID] = f
	}
	for _, rs := range sets {
		field := byID[rs.FieldID]
		names := ns.Field(field.ID)
		rf := runtimeField{
			ID:        field.ID,
			Kind:      string(field.Type),
			Multi:     rs.Multi,
			InputID:   names.InputID,
			ErrorID:   names.ErrorID,
			OptionIDs: []string{},
		}
		if field.Type == inquiry.FieldTypeRadio || field.Type == inquiry.FieldTypeCheckbox {
			n := len(field.Options)
			if field.Type == inquiry.FieldTypeRadio && field.AllowOther {
				n++
			}
			for i := 0; i < n; i++ {
				rf.OptionIDs = append(rf.OptionIDs, names.OptionID(i))
			}
		}
		if field.AllowOther && (field.Type == inquiry.FieldTypeRadio || field.Type == inquiry.FieldTypeSelect) {
			rf.OtherID = names.OtherID
		}
		fields = append(fields, rf)
	}

	msgs := a.cfg.Messages
	upload := form.Settings.FileUpload
	domains := append([]string{}, form.Settings.AllowedDomains...)

	data := runtimeData{
		FormID:         form.ID,
		ContainerID:    ns.ContainerID,
		FormElementID:  ns.FormElementID,
		SubmitID:       ns.SubmitID,
		StyleID:        ns.StyleID,
		Endpoint:       a.endpoint(),
		TimeoutMs:      a.cfg.SubmitTimeout.Milliseconds(),
		CompletionURL:  form.Settings.CompletionURL,
		AllowedDomains: domains,
		Messages: runtimeMessages{
			Config:       msgs.Config,
			Success:      msgs.Success,
			Failure:      msgs.Failure,
			Submit:       msgs.Submit,
			Submitting:   msgs.Submitting,
			TooManyFiles: rules.FormatLimit(msgs.TooManyFiles, upload.MaxFiles),
			FileTooLarge: rules.FormatLimit(msgs.FileTooLarge, int(upload.MaxFileSize/(1024*1024))),
		},
		Upload: runtimeUpload{
			Enabled:     upload.Enabled,
			MaxFiles:    upload.MaxFiles,
			MaxFileSize: upload.MaxFileSize,
			InputID:     ns.AttachmentID,
			ErrorID:     ns.AttachmentErrorID,
		},
		Sender:     form.SenderFields(),
		OtherValue: render.OtherValue,
		Fields:     fields,
		Whitespace: whitespaceLiteral(),
		Regexes:    tracker.order,
		Validators: validators,
		Markup:     markupLines(render.Form(form, render.Options{Messages: msgs})),
		CSS:        scopeCSS(form.Styling.CSS, ns.Class()),
	}

	var buf bytes.Buffer
	if err := runtimeTemplate.Execute(&buf, data); err != nil {
		return "", inquiry.NewInternalError("render widget runtime", err)
	}
	return buf.String(), nil
}

// endpoint resolves a relative endpoint against the origin of the script base
// URL so widgets on third-party pages post back to this service.
func (a *Assembler) endpoint() string {
	ep := strings.TrimSpace(a.cfg.Endpoint)
	ref, err := url.Parse(ep)
	if err != nil || ref.IsAbs() {
		return ep
	}
	base, err := url.Parse(a.cfg.ScriptBaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return ep
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host}
	return origin.ResolveReference(ref).String()
}

// markupLines turns markup into the elements of a JS array literal, one line
// per element.
func markupLines(markup string) string {
	var b strings.Builder
	lines := strings.Split(markup, "\n")
	for i, line := range lines {
		b.WriteString("    ")
		b.WriteString(quote(line))
		if i < len(lines)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// scopeCSS rewrites the shared form class to the namespace class so two
// widgets on one page cannot restyle each other.
func scopeCSS(css, class string) string {
	all := strings.TrimSpace(css)
	if all != "" {
		all += "\n"
	}
	all += builtinCSS
	return formClassRe.ReplaceAllString(all, "."+class+"${1}")
}

// condense strips indentation, blank lines and whole-line comments. Line
// breaks are kept so automatic semicolon insertion never changes meaning.
func condense(script string) string {
	lines := strings.Split(script, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
