package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
)

// DefaultCertificateBody is used when a certificate template carries no email
// body of its own.
const DefaultCertificateBody = `<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Thank you, {{.Name}}!</h2>
  <p>Your participation certificate for <strong>{{.FormTitle}}</strong> is attached to this email.</p>
  <p>We appreciate your feedback.</p>
</body>
</html>`

// BodyData is the data available to certificate email bodies.
type BodyData struct {
	Name      string
	FormTitle string
}

type cachedTemplate struct {
	raw string
	tpl *template.Template
}

// TemplateRenderer compiles and caches HTML email bodies. Compiled templates
// are cached per key and recompiled only when the raw body changes, so the
// per-send cost is a single execute.
type TemplateRenderer struct {
	mu    sync.Mutex
	cache map[string]cachedTemplate
}

// NewTemplateRenderer creates an empty renderer cache.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{cache: make(map[string]cachedTemplate)}
}

// Render executes the body template identified by key, compiling it on first
// use. An empty body falls back to DefaultCertificateBody.
func (r *TemplateRenderer) Render(key, body string, data BodyData) (string, error) {
	if body == "" {
		body = DefaultCertificateBody
	}

	tpl, err := r.lookup(key, body)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute email template %q: %w", key, err)
	}
	return buf.String(), nil
}

func (r *TemplateRenderer) lookup(key, body string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[key]; ok && cached.raw == body {
		return cached.tpl, nil
	}

	tpl, err := template.New(key).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse email template %q: %w", key, err)
	}
	r.cache[key] = cachedTemplate{raw: body, tpl: tpl}
	return tpl, nil
}
