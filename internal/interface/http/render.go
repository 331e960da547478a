package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pageNames = []string{"login", "form", "submitted", "error"}

// pageRenderer holds one template set per page, each sharing the base layout.
type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() *pageRenderer {
	pr := &pageRenderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		pr.pages[name] = template.Must(template.ParseFS(templateFS,
			"templates/base.html.tmpl",
			"templates/"+name+".html.tmpl",
		))
	}
	return pr
}

// render buffers the page so a template error never leaves half a page.
func (pr *pageRenderer) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pr.pages[name].ExecuteTemplate(&buf, "base", data); err != nil {
		slog.Error("template execution failed", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorView struct {
	Title   string
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, status int, title, message string) {
	s.pages.render(w, status, "error", errorView{Title: title, Message: message})
}
