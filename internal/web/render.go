package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

type navItem struct {
	Path   string
	Label  string
	Active bool
}

func nav(active string) []navItem {
	items := []navItem{
		{Path: "/", Label: "Dashboard"},
		{Path: "/clients", Label: "Clients"},
		{Path: "/projects", Label: "Projects"},
		{Path: "/tasks", Label: "Tasks"},
	}
	for i := range items {
		items[i].Active = items[i].Path == active
	}
	return items
}

type listPage struct {
	Nav      []navItem
	Resource string
	Table    view.Table
	Filters  []view.FilterControl
	Form     *view.Form
	// Editing is the ID the form updates, empty when creating.
	Editing string
	Error   string
	Phase   controller.Phase
}

type confirmPage struct {
	Nav      []navItem
	Resource string
	ID       string
	Name     string
	Prompt   string
}

type summaryPage struct {
	Nav     []navItem
	Summary view.Summary
}

// render buffers the page and writes it only once the template succeeded.
func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("render failed", slog.String("template", name), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
