package widget

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/namespace"
	"github.com/stretchr/testify/require"
)

// domShim is the smallest browser surface the runtime touches. Elements are
// registered up front by id; innerHTML is stored but not parsed.
const domShim = `
var __elements = {};
var __alerts = [];
var __timers = [];
var __fetchCalls = [];
var __fetchResponse = { status: 200 };

function Element(tag, id) {
  this.tagName = tag;
  this.id = id || '';
  this.value = '';
  this.checked = false;
  this.disabled = false;
  this.textContent = '';
  this.innerHTML = '';
  this.attrs = {};
  this.listeners = {};
  this.options = [];
  this.files = [];
  this.focused = false;
  this.scrolled = false;
}
Element.prototype.addEventListener = function (type, fn) {
  if (!this.listeners[type]) {
    this.listeners[type] = [];
  }
  this.listeners[type].push(fn);
};
Element.prototype.dispatch = function (type, event) {
  var list = this.listeners[type] || [];
  for (var i = 0; i < list.length; i++) {
    list[i].call(this, event || {});
  }
};
Element.prototype.setAttribute = function (k, v) { this.attrs[k] = String(v); };
Element.prototype.getAttribute = function (k) {
  return Object.prototype.hasOwnProperty.call(this.attrs, k) ? this.attrs[k] : null;
};
Element.prototype.focus = function () { this.focused = true; };
Element.prototype.scrollIntoView = function () { this.scrolled = true; };
Element.prototype.appendChild = function (child) {
  if (child.id) {
    __elements[child.id] = child;
  }
  return child;
};

function __register(tag, id) {
  var el = new Element(tag, id);
  __elements[id] = el;
  return el;
}

var document = {
  readyState: 'complete',
  listeners: {},
  getElementById: function (id) {
    return Object.prototype.hasOwnProperty.call(__elements, id) ? __elements[id] : null;
  },
  createElement: function (tag) { return new Element(tag); },
  addEventListener: function (type, fn) { this.listeners[type] = fn; }
};
document.head = new Element('head');
document.body = new Element('body');

var window = { location: { href: '' } };

function alert(msg) { __alerts.push(String(msg)); }

function setTimeout(fn, ms) {
  __timers.push({ fn: fn, ms: ms, cleared: false });
  return __timers.length;
}
function clearTimeout(id) {
  if (__timers[id - 1]) {
    __timers[id - 1].cleared = true;
  }
}
function __fireTimers() {
  for (var i = 0; i < __timers.length; i++) {
    if (!__timers[i].cleared) {
      __timers[i].cleared = true;
      __timers[i].fn();
    }
  }
}

function AbortController() { this.signal = { aborted: false }; }
AbortController.prototype.abort = function () { this.signal.aborted = true; };

// __fetchResponse null keeps the request pending; networkError rejects it.
function fetch(url, options) {
  __fetchCalls.push({ url: url, options: options });
  var resp = __fetchResponse;
  return {
    then: function (ok, err) {
      if (resp === null) {
        return;
      }
      if (resp.networkError) {
        err(new Error('network'));
        return;
      }
      ok(resp);
    }
  };
}
`

type page struct {
	t    *testing.T
	vm   *goja.Runtime
	ns   namespace.Namespace
	form *inquiry.Form
}

// newPage creates a DOM holding every element the form's markup would
// produce.
func newPage(t *testing.T, form *inquiry.Form) *page {
	t.Helper()
	p := &page{t: t, vm: goja.New(), ns: namespace.For(form.ID), form: form}
	p.run(domShim)

	p.register("div", p.ns.ContainerID)
	p.register("form", p.ns.FormElementID)
	p.register("button", p.ns.SubmitID)
	if form.Settings.FileUpload.Enabled {
		p.register("input", p.ns.AttachmentID)
		p.register("div", p.ns.AttachmentErrorID)
	}

	for _, f := range form.SortedFields() {
		names := p.ns.Field(f.ID)
		switch f.Type {
		case inquiry.FieldTypeFile:
			continue
		case inquiry.FieldTypeRadio, inquiry.FieldTypeCheckbox:
			p.register("fieldset", names.InputID)
			options := append([]string{}, f.Options...)
			if f.Type == inquiry.FieldTypeRadio && f.AllowOther {
				options = append(options, "__other__")
			}
			for i, opt := range options {
				p.register("input", names.OptionID(i))
				p.run("__elements[" + quote(names.OptionID(i)) + "].value = " + quote(opt) + ";")
			}
		case inquiry.FieldTypeSelect:
			p.register("select", names.InputID)
			opts := []string{quote("")}
			for _, opt := range f.Options {
				opts = append(opts, quote(opt))
			}
			if f.AllowOther {
				opts = append(opts, quote("__other__"))
			}
			p.run("__elements[" + quote(names.InputID) + "].options = [" + strings.Join(opts, ",") +
				"].map(function (v) { return { value: v, selected: false }; });")
		default:
			p.register("input", names.InputID)
		}
		if f.AllowOther {
			p.register("input", names.OtherID)
		}
		p.register("div", names.ErrorID)
	}
	return p
}

func (p *page) run(src string) goja.Value {
	p.t.Helper()
	v, err := p.vm.RunString(src)
	require.NoError(p.t, err)
	return v
}

func (p *page) register(tag, id string) {
	p.t.Helper()
	p.run("__register(" + quote(tag) + ", " + quote(id) + ");")
}

func (p *page) el(id string) string {
	return "__elements[" + quote(id) + "]"
}

// load executes the script embedded in an inline or detailed artifact.
func (p *page) load(artifact string) {
	p.t.Helper()
	start := strings.Index(artifact, "<script>\n")
	end := strings.LastIndex(artifact, "</script>")
	require.True(p.t, start >= 0 && end > start, "artifact has no inline script")
	p.run(artifact[start+len("<script>\n") : end])
}

func (p *page) setValue(fieldID, value string) {
	p.run(p.el(p.ns.Field(fieldID).InputID) + ".value = " + quote(value) + ";")
}

func (p *page) submit() {
	p.run(p.el(p.ns.FormElementID) + ".dispatch('submit', { preventDefault: function () {} });")
}

func (p *page) fetchCount() int64 {
	return p.run("__fetchCalls.length").ToInteger()
}

func (p *page) alerts() []string {
	var out []string
	require.NoError(p.t, json.Unmarshal([]byte(p.run("JSON.stringify(__alerts)").String()), &out))
	return out
}

func (p *page) errorText(fieldID string) string {
	return p.run(p.el(p.ns.Field(fieldID).ErrorID) + ".textContent").String()
}

func (p *page) submitButton() (disabled bool, label string) {
	return p.run(p.el(p.ns.SubmitID) + ".disabled").ToBoolean(),
		p.run(p.el(p.ns.SubmitID) + ".textContent").String()
}

func (p *page) lastPayload() map[string]any {
	p.t.Helper()
	var out map[string]any
	body := p.run("__fetchCalls[__fetchCalls.length - 1].options.body").String()
	require.NoError(p.t, json.Unmarshal([]byte(body), &out))
	return out
}
