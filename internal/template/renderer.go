package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strings"
	"sync"
	"text/template"
)

// leftoverAction matches a field action still present in rendered output,
// which happens when a value itself contained template syntax.
var leftoverAction = regexp.MustCompile(`\{\{-?\s*\.[A-Za-z_][A-Za-z0-9_.]*\s*-?\}\}`)

func funcs() template.FuncMap {
	return template.FuncMap{
		// {{ jsonEscape .Description }} inside a JSON string literal.
		"jsonEscape": func(s string) string {
			b, err := json.Marshal(s)
			if err != nil {
				return s
			}
			return string(b[1 : len(b)-1])
		},
		// {{ if has .Addons "biome" }}
		"has":   func(list []string, item string) bool { return slices.Contains(list, item) },
		"join":  strings.Join,
		"lower": strings.ToLower,
	}
}

// Renderer executes text/template files from a filesystem. Any key the data
// does not provide is an error.
type Renderer interface {
	Render(name string, data any) ([]byte, error)
}

type renderer struct {
	fsys fs.FS

	mu     sync.Mutex
	parsed map[string]*template.Template
}

// NewRenderer returns a Renderer that reads templates from fsys and keeps
// each parsed template for reuse.
func NewRenderer(fsys fs.FS) Renderer {
	return &renderer{fsys: fsys, parsed: make(map[string]*template.Template)}
}

// Render returns ErrTemplateNotFound, ErrMissingTemplateKey or
// ErrUnexpandedToken wrapped with the template name.
func (r *renderer) Render(name string, data any) ([]byte, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingTemplateKey, err)
	}
	if m := leftoverAction.Find(buf.Bytes()); m != nil {
		return nil, fmt.Errorf("%w: found %q in %s", ErrUnexpandedToken, m, name)
	}
	return buf.Bytes(), nil
}

func (r *renderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.parsed[name]; ok {
		return t, nil
	}

	src, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	t, err := template.New(name).Funcs(funcs()).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}
	r.parsed[name] = t
	return t, nil
}
