package widget

import (
	"encoding/json"
	"fmt"
	"text/template"
)

// runtimeTemplate is the submission runtime shipped with every variant. It is
// ES5 so it runs unmodified on any host page. The "validation" block holds
// everything the per-field validators depend on.
var runtimeTemplate = template.Must(template.New("runtime").Funcs(template.FuncMap{
	"js":   quote,
	"json": jsJSON,
}).Parse(`{{define "validation"}}  var WS = {{.Whitespace}};

  // trim strips the same whitespace set as the server-side validator.
  function trim(s) {
    var start = 0;
    var end = s.length;
    while (start < end && WS.indexOf(s.charAt(start)) >= 0) {
      start++;
    }
    while (end > start && WS.indexOf(s.charAt(end - 1)) >= 0) {
      end--;
    }
    return s.substring(start, end);
  }

  function isEmpty(values) {
    for (var i = 0; i < values.length; i++) {
      if (trim(values[i]) !== '') {
        return false;
      }
    }
    return true;
  }

  // compilePattern returns null for a pattern this browser rejects. The
  // validator then skips that rule instead of the widget failing to load.
  function compilePattern(source) {
    try {
      return new RegExp(source, 'u');
    } catch (e) {
      return null;
    }
  }

{{range .Regexes}}  var {{.Name}} = compilePattern({{js .Source}});
{{end}}
  // One validator per entry of FIELDS, index aligned.
  var VALIDATORS = [
{{.Validators}}  ];
{{end}}(function () {
  'use strict';

  // Inquiry widget for form {{js .FormID}}
  var FORM_ID = {{js .FormID}};
  var CONTAINER_ID = {{js .ContainerID}};
  var FORM_ELEMENT_ID = {{js .FormElementID}};
  var SUBMIT_ID = {{js .SubmitID}};
  var STYLE_ID = {{js .StyleID}};
  var ENDPOINT = {{js .Endpoint}};
  var TIMEOUT_MS = {{.TimeoutMs}};
  var COMPLETION_URL = {{js .CompletionURL}};
  var ALLOWED_DOMAINS = {{json .AllowedDomains}};
  var MESSAGES = {{json .Messages}};
  var UPLOAD = {{json .Upload}};
  var SENDER = {{json .Sender}};
  var OTHER_VALUE = {{js .OtherValue}};
  var FIELDS = {{json .Fields}};

{{template "validation" .}}
  var MARKUP = [
{{.Markup}}  ].join('\n');

  var CSS = {{js .CSS}};

  // idle, validating, submitting or success. Success is terminal.
  var state = 'idle';

  function byId(id) {
    return document.getElementById(id);
  }

  function otherText(field) {
    var el = field.otherId ? byId(field.otherId) : null;
    return el ? String(el.value || '') : '';
  }

  function readValues(field) {
    var values = [];
    var el;
    var i;
    if (field.kind === 'radio' || field.kind === 'checkbox') {
      for (i = 0; i < field.optionIds.length; i++) {
        el = byId(field.optionIds[i]);
        if (el && el.checked) {
          values.push(el.value === OTHER_VALUE ? otherText(field) : String(el.value));
        }
      }
      return values;
    }
    el = byId(field.inputId);
    if (!el) {
      return values;
    }
    if (field.kind === 'select' && field.multi) {
      for (i = 0; i < el.options.length; i++) {
        if (el.options[i].selected) {
          values.push(el.options[i].value === OTHER_VALUE ? otherText(field) : String(el.options[i].value));
        }
      }
      return values;
    }
    var value = String(el.value || '');
    if (field.kind === 'select' && value === OTHER_VALUE) {
      value = otherText(field);
    }
    values.push(value);
    return values;
  }

  function responseValue(field, values) {
    if (field.multi) {
      return values;
    }
    return values.length ? values[0] : '';
  }

  function showError(field, message) {
    var slot = byId(field.errorId);
    if (slot) {
      slot.textContent = message;
    }
    var input = byId(field.inputId);
    if (input) {
      input.setAttribute('aria-invalid', message ? 'true' : 'false');
    }
  }

  function validateField(index) {
    var field = FIELDS[index];
    var message = VALIDATORS[index](readValues(field));
    showError(field, message);
    return message;
  }

  // validateAll returns the index of the first invalid field, or -1.
  function validateAll() {
    var first = -1;
    for (var i = 0; i < FIELDS.length; i++) {
      if (validateField(i) !== '' && first < 0) {
        first = i;
      }
    }
    return first;
  }

  function focusField(index) {
    var field = FIELDS[index];
    var el = byId(field.optionIds.length ? field.optionIds[0] : field.inputId);
    if (!el) {
      return;
    }
    if (typeof el.focus === 'function') {
      el.focus();
    }
    if (typeof el.scrollIntoView === 'function') {
      el.scrollIntoView({ block: 'center' });
    }
  }

  function domainsConfigured() {
    if (!ALLOWED_DOMAINS || !ALLOWED_DOMAINS.length) {
      return false;
    }
    for (var i = 0; i < ALLOWED_DOMAINS.length; i++) {
      if (typeof ALLOWED_DOMAINS[i] !== 'string' || trim(ALLOWED_DOMAINS[i]) === '') {
        return false;
      }
    }
    return true;
  }

  // readAttachments returns file metadata, or null after alerting when a
  // limit is exceeded.
  function readAttachments() {
    if (!UPLOAD.enabled) {
      return [];
    }
    var input = byId(UPLOAD.inputId);
    var files = input && input.files ? input.files : [];
    var message = '';
    var i;
    if (files.length > UPLOAD.maxFiles) {
      message = MESSAGES.tooManyFiles;
    } else {
      for (i = 0; i < files.length; i++) {
        if (files[i].size > UPLOAD.maxFileSize) {
          message = MESSAGES.fileTooLarge;
          break;
        }
      }
    }
    var slot = byId(UPLOAD.errorId);
    if (slot) {
      slot.textContent = message;
    }
    if (message) {
      alert(message);
      return null;
    }
    var out = [];
    for (i = 0; i < files.length; i++) {
      out.push({ name: String(files[i].name), size: files[i].size, type: String(files[i].type || '') });
    }
    return out;
  }

  function collect(attachments) {
    var responses = {};
    for (var i = 0; i < FIELDS.length; i++) {
      responses[FIELDS[i].id] = responseValue(FIELDS[i], readValues(FIELDS[i]));
    }
    if (attachments.length) {
      responses.attachments = attachments;
    }
    var sender = { name: '', email: '', phone: '' };
    if (SENDER.name) {
      sender.name = trim(String(responses[SENDER.name] || ''));
    }
    if (SENDER.email) {
      sender.email = trim(String(responses[SENDER.email] || ''));
    }
    if (SENDER.phone) {
      sender.phone = trim(String(responses[SENDER.phone] || ''));
    }
    return {
      formId: FORM_ID,
      responses: responses,
      senderInfo: sender,
      allowedDomains: ALLOWED_DOMAINS.slice()
    };
  }

  function setBusy(busy) {
    var button = byId(SUBMIT_ID);
    if (!button) {
      return;
    }
    button.disabled = busy;
    button.textContent = busy ? MESSAGES.submitting : MESSAGES.submit;
  }

  function succeed() {
    state = 'success';
    if (COMPLETION_URL) {
      window.location.href = COMPLETION_URL;
      return;
    }
    alert(MESSAGES.success);
  }

  function fail() {
    state = 'idle';
    setBusy(false);
    alert(MESSAGES.failure);
  }

  // send issues the single POST of a submission. The timer aborts a hung
  // request and settles it as a failure.
  function send(payload) {
    var settled = false;
    var controller = typeof AbortController === 'function' ? new AbortController() : null;
    var timer = setTimeout(function () {
      if (settled) {
        return;
      }
      settled = true;
      if (controller) {
        controller.abort();
      }
      fail();
    }, TIMEOUT_MS);
    var options = {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload)
    };
    if (controller) {
      options.signal = controller.signal;
    }
    fetch(ENDPOINT, options).then(function (response) {
      if (settled) {
        return;
      }
      settled = true;
      clearTimeout(timer);
      if (response && response.status >= 200 && response.status < 300) {
        succeed();
      } else {
        fail();
      }
    }, function () {
      if (settled) {
        return;
      }
      settled = true;
      clearTimeout(timer);
      fail();
    });
  }

  function submit(event) {
    if (event && typeof event.preventDefault === 'function') {
      event.preventDefault();
    }
    if (state !== 'idle') {
      return;
    }
    state = 'validating';
    var invalid = validateAll();
    if (invalid >= 0) {
      state = 'idle';
      focusField(invalid);
      return;
    }
    if (!domainsConfigured()) {
      state = 'idle';
      alert(MESSAGES.config);
      return;
    }
    var attachments = readAttachments();
    if (attachments === null) {
      state = 'idle';
      return;
    }
    var payload = collect(attachments);
    state = 'submitting';
    setBusy(true);
    send(payload);
  }

  function bindField(index) {
    var field = FIELDS[index];
    var ids = field.optionIds.length ? field.optionIds.slice() : [field.inputId];
    if (field.otherId) {
      ids.push(field.otherId);
    }
    var handler = function () {
      if (state === 'idle') {
        validateField(index);
      }
    };
    for (var i = 0; i < ids.length; i++) {
      var el = byId(ids[i]);
      if (el) {
        el.addEventListener('input', handler);
        el.addEventListener('change', handler);
        el.addEventListener('blur', handler);
      }
    }
  }

  function injectStyle() {
    if (byId(STYLE_ID)) {
      return;
    }
    var style = document.createElement('style');
    style.id = STYLE_ID;
    style.textContent = CSS;
    (document.head || document.body).appendChild(style);
  }

  function mount() {
    var container = byId(CONTAINER_ID);
    if (!container || container.getAttribute('data-inquiry-mounted')) {
      return;
    }
    container.setAttribute('data-inquiry-mounted', 'true');
    injectStyle();
    container.innerHTML = MARKUP;
    var form = byId(FORM_ELEMENT_ID);
    if (!form) {
      return;
    }
    form.addEventListener('submit', submit);
    for (var i = 0; i < FIELDS.length; i++) {
      bindField(i);
    }
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', mount);
  } else {
    mount();
  }
})();
`))

// jsJSON renders v as a JavaScript expression. encoding/json escapes the
// characters that could end an inline script.
func jsJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal runtime value: %w", err)
	}
	return string(b), nil
}

type runtimeField struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Multi     bool     `json:"multi"`
	InputID   string   `json:"inputId"`
	ErrorID   string   `json:"errorId"`
	OptionIDs []string `json:"optionIds"`
	OtherID   string   `json:"otherId,omitempty"`
}

type runtimeUpload struct {
	Enabled     bool   `json:"enabled"`
	MaxFiles    int    `json:"maxFiles"`
	MaxFileSize int64  `json:"maxFileSize"`
	InputID     string `json:"inputId"`
	ErrorID     string `json:"errorId"`
}

type runtimeMessages struct {
	Config       string `json:"config"`
	Success      string `json:"success"`
	Failure      string `json:"failure"`
	Submit       string `json:"submit"`
	Submitting   string `json:"submitting"`
	TooManyFiles string `json:"tooManyFiles"`
	FileTooLarge string `json:"fileTooLarge"`
}

type runtimeData struct {
	FormID         string
	ContainerID    string
	FormElementID  string
	SubmitID       string
	StyleID        string
	Endpoint       string
	TimeoutMs      int64
	CompletionURL  string
	AllowedDomains []string
	Messages       runtimeMessages
	Upload         runtimeUpload
	Sender         any
	OtherValue     string
	Fields         []runtimeField
	Whitespace     string
	Regexes        []regexVar
	Validators     string
	Markup         string
	CSS            string
}
