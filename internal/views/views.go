// Package views renders the HTML pages. Templates are embedded; each page is
// parsed together with the shared layout.
package views

import (
	"bytes"
	"crypto/md5"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ayush/taskboard/internal/forms"
	"github.com/ayush/taskboard/internal/middleware"
	"github.com/ayush/taskboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	Home     = "index.html"
	Login    = "log-in.html"
	Register = "register.html"
	Profile  = "my-profile.html"
	TaskForm = "add-new-tasks.html"
	AllTasks = "all-tasks.html"
	ViewTask = "view-task.html"
	ErrorPg  = "error.html"
)

var pages = []string{Home, Login, Register, Profile, TaskForm, AllTasks, ViewTask, ErrorPg}

// Page is the data every template receives. User is filled in from the
// request context by Render.
type Page struct {
	User    *models.User
	Flash   string
	Errors  forms.Errors
	Form    any
	Action  string
	Next    string
	Task    *models.Task
	Tasks   []models.Task
	Message string
}

// Renderer executes page templates.
type Renderer struct {
	log   *slog.Logger
	pages map[string]*template.Template
}

func New(log *slog.Logger) (*Renderer, error) {
	policy := bluemonday.UGCPolicy()
	funcs := template.FuncMap{
		"richtext": func(s string) template.HTML {
			return template.HTML(policy.Sanitize(s))
		},
		"gravatar": GravatarURL,
	}

	set := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		set[name] = t
	}
	return &Renderer{log: log, pages: set}, nil
}

// Render writes page name with the given status.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	t, ok := v.pages[name]
	if !ok {
		v.log.Error("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if p.User == nil {
		p.User, _ = middleware.CurrentUser(r.Context())
	}
	if p.Errors == nil {
		p.Errors = forms.Errors{}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		v.log.Error("render template", "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error maps err onto an error page.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		v.Render(w, r, http.StatusNotFound, ErrorPg, Page{Message: "The page you requested does not exist."})
	case errors.Is(err, models.ErrInvalidTask):
		v.Render(w, r, http.StatusBadRequest, ErrorPg, Page{Message: err.Error()})
	case errors.Is(err, models.ErrUnauthenticated):
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
	default:
		v.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		v.Render(w, r, http.StatusInternalServerError, ErrorPg, Page{Message: "Something went wrong."})
	}
}

// NotFound renders the 404 page.
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	v.Error(w, r, models.ErrNotFound)
}

// GravatarURL returns the avatar image URL for email.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=100&r=g&d=retro"
}
