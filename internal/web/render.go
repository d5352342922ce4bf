package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is the data passed to every template. The renderer fills CSRF and User.
type page map[string]any

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template together with base.html.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		base := path.Base(name)
		if base == "base.html" {
			continue
		}
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", base, err)
		}
		r.pages[strings.TrimSuffix(base, ".html")] = tmpl
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	p, _ := data.(page)
	if p == nil {
		p = page{}
	}
	if _, ok := p["CSRF"]; !ok {
		p["CSRF"], _ = c.Get(csrfContextKey).(string)
	}
	if _, ok := p["User"]; !ok {
		if u := currentUser(c); u != nil {
			p["User"] = u
		}
	}
	return tmpl.ExecuteTemplate(w, "base", p)
}
