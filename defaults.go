package inquiry

// Upload and recipient limits.
const (
	MaxUploadFiles    = 5
	MaxUploadFileSize = 20 * 1024 * 1024
	MinRecipients     = 1
	MaxRecipients     = 10
)

// DefaultAllowedDomain is seeded into every new form so local previews work.
const DefaultAllowedDomain = "localhost:3000"

// DefaultTheme names the built-in look.
const DefaultTheme = "default"

// FormClass is the class operator CSS targets; the compiler rewrites it to a
// per-form class so two widgets on one page never share rules.
const FormClass = ".inquiry-form"

// DefaultCSS is the boilerplate stylesheet new forms start from.
const DefaultCSS = `.inquiry-form {
  max-width: 560px;
  font-family: system-ui, sans-serif;
}
.inquiry-form label {
  display: block;
  margin-bottom: 4px;
  font-weight: 600;
}
.inquiry-form input[type="text"],
.inquiry-form textarea,
.inquiry-form select {
  width: 100%;
  padding: 8px;
  border: 1px solid #ccc;
  border-radius: 4px;
}
.inquiry-form button {
  padding: 10px 20px;
  border: 0;
  border-radius: 4px;
  background: #2563eb;
  color: #fff;
}
`
