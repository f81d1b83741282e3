// Package templates renders the HTML fragments sent in Datastar SSE
// responses.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"path/filepath"
	"sync"
)

//go:embed fragments/*.html
var defaultFragments embed.FS

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict builds a map from key-value pairs for nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// Default returns a renderer over the built-in fragments.
func Default() *Renderer {
	tmpl := template.Must(template.New("").Funcs(funcMap).ParseFS(defaultFragments, "fragments/*.html"))
	return &Renderer{templates: tmpl}
}

// New creates a renderer from fragmentsDir/*.html.
func New(fragmentsDir string) (*Renderer, error) {
	return NewFS(nil, filepath.Join(fragmentsDir, "*.html"))
}

// NewFS creates a renderer from fsys, or from the OS filesystem when fsys is
// nil.
func NewFS(fsys fs.FS, pattern string) (*Renderer, error) {
	tmpl, err := parse(fsys, pattern)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(buf, name, data)
}

// Reload reloads templates from disk (useful for dev hot-reload).
func (r *Renderer) Reload(fragmentsDir string) error {
	tmpl, err := parse(nil, filepath.Join(fragmentsDir, "*.html"))
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}

func parse(fsys fs.FS, pattern string) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	if fsys == nil {
		return t.ParseGlob(pattern)
	}
	return t.ParseFS(fsys, pattern)
}
