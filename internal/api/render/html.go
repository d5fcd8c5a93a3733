// Package render turns page data into HTML or JSON responses.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

// Page names accepted by Renderer.HTML.
const (
	PageLogin  = "login"
	PageEvents = "events"
	PageEvent  = "event"
	PageEdit   = "edit"
	PageError  = "error"
)

var pages = []string{PageLogin, PageEvents, PageEvent, PageEdit, PageError}

// PageData is the single view model shared by all templates.
type PageData struct {
	Title       string
	User        *users.User
	Error       string
	Email       string
	RedirectTo  string
	Query       string
	Events      []events.Event
	Event       events.Event
	FieldErrors map[string]string
}

// Renderer holds one parsed template set per page, each combining the layout
// with that page's content block.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses templates/layout.html plus templates/<page>.html for every page in fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.ParseFS(fsys, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// HTML renders page into a buffer first so a template failure never leaves a
// half-written response.
func (r *Renderer) HTML(w http.ResponseWriter, status int, page string, data PageData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// JSON writes payload as application/json.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
