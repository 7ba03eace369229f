// Package server assembles the HTTP routes.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/taskboard/internal/auth"
	"github.com/ayush/taskboard/internal/middleware"
	"github.com/ayush/taskboard/internal/tasks"
	"github.com/ayush/taskboard/internal/views"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Views          *views.Renderer
	Identity       *auth.Manager
	Auth           *auth.Handler
	Tasks          *tasks.Handler
	LoginLimiter   *middleware.IPRateLimiter
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Identify(d.Identity))

	r.NotFound(d.Views.NotFound)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		d.Views.Render(w, r, http.StatusOK, views.Home, views.Page{})
	})
	r.Get(middleware.LoginPath, d.Auth.LoginPage)
	r.With(d.LoginLimiter.Limit(d.Auth.LoginThrottled)).Post(middleware.LoginPath, d.Auth.Login)
	r.Get("/register", d.Auth.RegisterPage)
	r.Post("/register", d.Auth.Register)
	r.Get("/logout", d.Auth.Logout)
	r.Post("/logout", d.Auth.Logout)

	// Protected pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/my-profile", d.Auth.Profile)
		r.Post("/my-profile", d.Auth.Profile)

		r.Get("/add-new-tasks", d.Tasks.NewPage)
		r.Post("/add-new-tasks", d.Tasks.Create)
		r.Get("/all-tasks", d.Tasks.List)
		r.Post("/all-tasks", d.Tasks.List)
		r.Get("/view-task/{id}", d.Tasks.View)
		r.Post("/view-task/{id}", d.Tasks.View)
		r.Get("/edit-task/{id}", d.Tasks.EditPage)
		r.Post("/edit-task/{id}", d.Tasks.Edit)
		r.Get("/delete-task/{id}", d.Tasks.Delete)
	})

	return r
}
