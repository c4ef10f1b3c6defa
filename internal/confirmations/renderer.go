package confirmations

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates
var templateFS embed.FS

// TemplateRenderer renders the embedded HTML templates, keyed by their path
// below templates/.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	root, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	templates := map[string]*template.Template{}
	err = fs.WalkDir(root, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(name) != ".html" {
			return err
		}
		tmpl, err := template.New(path.Base(name)).ParseFS(root, name)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{templates: templates}, nil
}

func (r *TemplateRenderer) Render(templateID string, data *Confirmation) (string, error) {
	tmpl, ok := r.templates[strings.TrimPrefix(templateID, "/")]
	if !ok {
		return "", fmt.Errorf("%s: %w", templateID, ErrTemplateNotFound)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &GenerationError{Diagnostic: err.Error(), Err: err}
	}
	return buf.String(), nil
}
