package echoweb

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"

	appfs "github.com/trezcool/yellowsub/fs"
)

const (
	pagesDir     = "templates/pages"
	baseTemplate = "_base.gohtml"
)

// pageData is what every page template receives; Data holds the page specific values.
type pageData struct {
	AppName       string
	Authenticated bool
	Username      string
	LastTab       string
	Messages      []string
	CSRFField     template.HTML
	Data          interface{}
}

type templateRenderer struct {
	templates map[string]*template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	entries, err := fs.ReadDir(appfs.FS, pagesDir)
	if err != nil {
		return nil, err
	}

	r := &templateRenderer{templates: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		fname := entry.Name()
		if entry.IsDir() || strings.HasPrefix(fname, "_") || path.Ext(fname) != ".gohtml" {
			continue
		}
		tmpl, err := template.New(fname).
			Option("missingkey=error").
			ParseFS(appfs.FS, path.Join(pagesDir, baseTemplate), path.Join(pagesDir, fname))
		if err != nil {
			return nil, err
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r, nil
}

// Render implements echo.Renderer. The page is fully rendered before anything is written.
func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("page template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// render persists the Session, popping its flash messages, then renders the page.
func (app *webApp) render(ctx echo.Context, code int, name string, data interface{}) error {
	sess := getSession(ctx)
	pd := pageData{
		AppName:       app.conf.AppName,
		Authenticated: sess.IsAuthenticated(),
		Username:      sess.Username,
		LastTab:       sess.LastTab,
		Messages:      sess.Flashes(),
		CSRFField:     csrf.TemplateField(ctx.Request()),
		Data:          data,
	}
	if err := app.sessions.save(ctx); err != nil {
		return err
	}
	return ctx.Render(code, name, pd)
}
