// templates/engine.go
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sort"

	"go.uber.org/zap"
)

//go:embed views/*.gohtml
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names defined under views/.
const (
	PageTemplate   = "phone_page"
	FormTemplate   = "phone_form"
	ToastsTemplate = "phone_toasts"
)

// Engine holds the parsed page templates.
type Engine struct {
	set    *template.Template
	logger *zap.Logger
}

// New parses the embedded views.
func New(logger *zap.Logger) (*Engine, error) {
	return NewFromFS(viewsFS, logger, "views/*.gohtml")
}

// NewFromFS parses every file in filesystem matching patterns, in name
// order, into one template set.
func NewFromFS(filesystem fs.FS, logger *zap.Logger, patterns ...string) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	root := template.New("root").Funcs(Funcs())

	for _, pat := range patterns {
		matches, err := fs.Glob(filesystem, pat)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pat, err)
		}
		sort.Strings(matches)
		for _, path := range matches {
			b, err := fs.ReadFile(filesystem, path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			if _, err := root.Parse(string(b)); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			logger.Debug("template parsed", zap.String("file", path))
		}
	}
	return &Engine{set: root, logger: logger}, nil
}

// Render executes the named template into w. Output is buffered so a
// failing template writes nothing.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	t := e.set.Lookup(name)
	if t == nil {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Static returns the embedded script and stylesheet, rooted at "static".
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
