// Package view renders the dashboard pages from the embedded templates.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/odyssey-erp/ticketdash/internal/analytics/ui"
	"github.com/odyssey-erp/ticketdash/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	buffers   sync.Pool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	Flash       string
	CurrentPath string
	Data        any
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatDay":   ui.FormatDay,
		"formatCount": ui.FormatCount,
	}
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(Funcs()).ParseFS(web.Templates, web.TemplatePatterns...)
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Engine{
		templates: tpl,
		buffers:   sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}, nil
}

// Has reports whether a template with the given name is defined.
func (e *Engine) Has(name string) bool {
	return e != nil && e.templates.Lookup(name) != nil
}

// Render executes a named template with TemplateData and a 200 status.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes name into a buffer and writes it with status. A
// failing template writes nothing, so callers can still send an error page.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	buf := e.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer e.buffers.Put(buf)

	if err := e.templates.ExecuteTemplate(buf, name, data); err != nil {
		return fmt.Errorf("view: execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
