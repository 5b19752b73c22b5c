package widget

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lychee-technology/inquiry/internal/rules"
)

// regexTracker assigns one variable per distinct pattern source.
type regexTracker struct {
	names map[string]string
	order []regexVar
}

type regexVar struct {
	Name   string
	Source string
}

func newRegexTracker() *regexTracker {
	return &regexTracker{names: make(map[string]string)}
}

func (rt *regexTracker) varName(source string) string {
	if name, ok := rt.names[source]; ok {
		return name
	}
	name := "RE_" + strconv.Itoa(len(rt.order))
	rt.names[source] = name
	rt.order = append(rt.order, regexVar{Name: name, Source: source})
	return name
}

// jsWriter accumulates indented JavaScript, one P call per line.
type jsWriter struct {
	b      strings.Builder
	indent int
}

func (w *jsWriter) P(parts ...string) {
	for i := 0; i < w.indent; i++ {
		w.b.WriteString("  ")
	}
	for _, p := range parts {
		w.b.WriteString(p)
	}
	w.b.WriteString("\n")
}

func (w *jsWriter) In()  { w.indent++ }
func (w *jsWriter) Out() { w.indent-- }

func (w *jsWriter) String() string { return w.b.String() }

// emitValidators renders one validator function per rule set as elements of
// a JavaScript array literal. Each validator takes the raw values of its
// field and returns the first failing message, or '' when valid.
func emitValidators(sets []rules.RuleSet, rt *regexTracker) string {
	w := &jsWriter{indent: 2}
	for i, rs := range sets {
		emitRuleSet(w, rs, rt, i == len(sets)-1)
	}
	return w.String()
}

func emitRuleSet(w *jsWriter, rs rules.RuleSet, rt *regexTracker, last bool) {
	kinds := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		kinds = append(kinds, string(r.Kind))
	}
	summary := "no rules"
	if len(kinds) > 0 {
		summary = strings.Join(kinds, ", ")
	}
	w.P("// ", quote(rs.FieldID), " (", string(rs.Kind), "): ", summary)

	w.P("function (values) {")
	w.In()
	w.P("if (isEmpty(values)) {")
	w.In()
	if rs.Required() {
		w.P("return ", quote(rs.Rules[0].Message), ";")
	} else {
		w.P("return '';")
	}
	w.Out()
	w.P("}")

	body := rs.Rules
	if rs.Required() {
		body = body[1:]
	}
	if len(body) > 0 {
		w.P("var value = trim(values.join(', '));")
	}
	for _, r := range body {
		switch r.Kind {
		case rules.KindMinLength:
			w.P("if (value.length < ", strconv.Itoa(r.Limit), ") {")
		case rules.KindMaxLength:
			w.P("if (value.length > ", strconv.Itoa(r.Limit), ") {")
		case rules.KindPattern:
			re := rt.varName(rules.BrowserSource(r.Source))
			w.P("if (", re, " && !", re, ".test(value)) {")
		default:
			continue
		}
		w.In()
		w.P("return ", quote(r.Message), ";")
		w.Out()
		w.P("}")
	}
	w.P("return '';")
	w.Out()
	if last {
		w.P("}")
	} else {
		w.P("},")
	}
}

// quote renders s as a JavaScript string literal. encoding/json escapes <, >,
// &, U+2028 and U+2029, so the literal is safe inside an inline <script>.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// strings always marshal
		panic(fmt.Sprintf("quote: %v", err))
	}
	return string(b)
}

// whitespaceLiteral renders rules.Whitespace as an ASCII-only JavaScript
// string literal so both back ends trim the same characters.
func whitespaceLiteral() string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range rules.Whitespace {
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	b.WriteByte('"')
	return b.String()
}
