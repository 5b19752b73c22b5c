// Package rules compiles form fields into an ordered rule set and evaluates
// values against it. The same rule set drives the JavaScript emitter in the
// widget package so both sides reject the same inputs.
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/lychee-technology/inquiry"
	"go.uber.org/zap"
)

// Kind identifies a rule. Both back ends switch over these values.
type Kind string

const (
	KindRequired  Kind = "required"
	KindPattern   Kind = "pattern"
	KindMinLength Kind = "minLength"
	KindMaxLength Kind = "maxLength"
)

// Rule is one check. Limit is used by the length kinds, Source by pattern.
type Rule struct {
	Kind    Kind   `json:"kind"`
	Limit   int    `json:"limit,omitempty"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

// RuleSet is the compiled, ordered rule list of a single field.
type RuleSet struct {
	FieldID string            `json:"fieldId"`
	Kind    inquiry.FieldType `json:"kind"`
	Multi   bool              `json:"multi"`
	Rules   []Rule            `json:"rules"`
}

// Required reports whether the set starts with a required rule.
func (rs RuleSet) Required() bool {
	return len(rs.Rules) > 0 && rs.Rules[0].Kind == KindRequired
}

// Diagnostic describes a custom pattern that was dropped during compilation.
type Diagnostic struct {
	FieldID string
	Pattern string
	Code    string
	Reason  string
}

// Err converts the diagnostic to a RegexError.
func (d Diagnostic) Err() *inquiry.InquiryError {
	return inquiry.NewRegexError(d.Code, d.FieldID, d.Pattern, fmt.Errorf("%s", d.Reason))
}

// Compiler turns fields into rule sets using a message catalogue.
type Compiler struct {
	messages inquiry.Messages

	// reported de-duplicates dropped-pattern log lines per field and pattern.
	reported sync.Map
}

// NewCompiler creates a compiler with the given messages. Blank messages fall
// back to the English defaults.
func NewCompiler(messages inquiry.Messages) *Compiler {
	return &Compiler{messages: messages.WithDefaults()}
}

var defaultCompiler = NewCompiler(inquiry.DefaultMessages())

// Default returns the process-wide compiler using the English messages.
func Default() *Compiler {
	return defaultCompiler
}

// Messages returns the catalogue in use.
func (c *Compiler) Messages() inquiry.Messages {
	return c.messages
}

// Compile builds the rule set for a field. Rules are ordered required, type
// pattern, minLength, maxLength, custom pattern. Choice and file fields only
// ever carry the required rule.
func (c *Compiler) Compile(field inquiry.FormField) (RuleSet, []Diagnostic) {
	rs := RuleSet{
		FieldID: field.ID,
		Kind:    field.Type,
		Multi:   field.IsMultiValued(),
	}

	if field.IsRequired() {
		rs.Rules = append(rs.Rules, Rule{Kind: KindRequired, Message: c.messages.Required})
	}

	if field.Type.IsChoice() || field.Type == inquiry.FieldTypeFile || field.Validation == nil {
		return rs, nil
	}

	v := field.Validation
	var diags []Diagnostic

	custom := ""
	if v.Pattern != "" {
		if err := CheckPattern(v.Pattern); err != nil {
			d := Diagnostic{
				FieldID: field.ID,
				Pattern: v.Pattern,
				Code:    patternErrorCode(err),
				Reason:  err.Error(),
			}
			diags = append(diags, d)
			c.report(d)
		} else {
			custom = v.Pattern
		}
	}

	if custom == "" {
		if src, ok := DefaultPatterns[v.Type]; ok {
			rs.Rules = append(rs.Rules, Rule{Kind: KindPattern, Source: src, Message: c.typeMessage(v.Type)})
		}
	}

	if v.MinLength != nil && *v.MinLength > 0 {
		rs.Rules = append(rs.Rules, Rule{
			Kind:    KindMinLength,
			Limit:   *v.MinLength,
			Message: FormatLimit(c.messages.MinLength, *v.MinLength),
		})
	}

	if v.MaxLength != nil && *v.MaxLength >= 0 {
		rs.Rules = append(rs.Rules, Rule{
			Kind:    KindMaxLength,
			Limit:   *v.MaxLength,
			Message: FormatLimit(c.messages.MaxLength, *v.MaxLength),
		})
	}

	if custom != "" {
		rs.Rules = append(rs.Rules, Rule{Kind: KindPattern, Source: custom, Message: c.messages.Pattern})
	}

	return rs, diags
}

// CompileForm compiles every field of the form in display order. File fields
// are skipped since they never reach the page.
func (c *Compiler) CompileForm(form *inquiry.Form) ([]RuleSet, []Diagnostic) {
	var (
		sets  []RuleSet
		diags []Diagnostic
	)
	for _, field := range form.SortedFields() {
		if field.Type == inquiry.FieldTypeFile {
			continue
		}
		rs, d := c.Compile(field)
		sets = append(sets, rs)
		diags = append(diags, d...)
	}
	return sets, diags
}

// Compile uses the default compiler.
func Compile(field inquiry.FormField) (RuleSet, []Diagnostic) {
	return defaultCompiler.Compile(field)
}

func (c *Compiler) report(d Diagnostic) {
	key := d.FieldID + "\x00" + d.Pattern
	if _, seen := c.reported.LoadOrStore(key, struct{}{}); seen {
		return
	}
	zap.S().Warnw("dropping custom validation pattern",
		"field", d.FieldID,
		"pattern", d.Pattern,
		"code", d.Code,
		"reason", d.Reason)
}

func (c *Compiler) typeMessage(t inquiry.ValidationType) string {
	switch t {
	case inquiry.ValidationTypeEmail:
		return c.messages.InvalidEmail
	case inquiry.ValidationTypePhone:
		return c.messages.InvalidPhone
	case inquiry.ValidationTypeNumber:
		return c.messages.InvalidNum
	default:
		return c.messages.Pattern
	}
}

// FormatLimit substitutes %d without fmt so catalogues lacking the verb do
// not grow a %!(EXTRA) suffix.
func FormatLimit(tmpl string, limit int) string {
	return strings.ReplaceAll(tmpl, "%d", strconv.Itoa(limit))
}
