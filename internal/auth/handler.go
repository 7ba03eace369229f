package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ayush/taskboard/internal/forms"
	"github.com/ayush/taskboard/internal/models"
	"github.com/ayush/taskboard/internal/views"
)

const profilePath = "/my-profile"

// UserStore defines the interface for user persistence. Lookups of absent
// users fail with models.ErrNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Both wrap models.ErrInvalidCredentials; they only differ in what the login
// page tells the user.
var (
	errUnknownEmail  = fmt.Errorf("%w: unknown email", models.ErrInvalidCredentials)
	errWrongPassword = fmt.Errorf("%w: wrong password", models.ErrInvalidCredentials)
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	log      *slog.Logger
	users    UserStore
	hasher   *Hasher
	identity *Manager
	views    *views.Renderer
	// dummyDigest is verified against when the email is unknown so both
	// failure paths cost one hash.
	dummyDigest string
}

func NewHandler(log *slog.Logger, users UserStore, hasher *Hasher, identity *Manager, v *views.Renderer) (*Handler, error) {
	dummy, err := hasher.Hash("dummy-password")
	if err != nil {
		return nil, err
	}
	return &Handler{
		log:         log,
		users:       users,
		hasher:      hasher,
		identity:    identity,
		views:       v,
		dummyDigest: dummy,
	}, nil
}

// Authenticate checks email and password. Failures wrap
// models.ErrInvalidCredentials.
func (h *Handler) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := h.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		h.hasher.Verify(password, h.dummyDigest)
		return nil, errUnknownEmail
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !h.hasher.Verify(password, user.Password) {
		return nil, errWrongPassword
	}
	h.upgradeDigest(ctx, user, password)
	return user, nil
}

// upgradeDigest re-hashes a verified password stored with old parameters, so
// every account costs the same to check as the dummy digest. Failures only
// get logged; the login itself already succeeded.
func (h *Handler) upgradeDigest(ctx context.Context, user *models.User, password string) {
	if !h.hasher.NeedsRehash(user.Password) {
		return
	}
	digest, err := h.hasher.Hash(password)
	if err != nil {
		h.log.Error("rehash password", "user_id", user.ID, "error", err)
		return
	}
	if err := h.users.UpdatePassword(ctx, user.ID, digest); err != nil {
		h.log.Error("store rehashed password", "user_id", user.ID, "error", err)
		return
	}
	user.Password = digest
	h.log.Info("password digest upgraded", "user_id", user.ID)
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, views.Login, views.Page{
		Form: &forms.Login{},
		Next: safeNext(r.URL.Query().Get("next")),
	})
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var f forms.Login
	errs, err := forms.Bind(r, &f)
	if err != nil {
		h.views.Render(w, r, http.StatusBadRequest, views.ErrorPg, views.Page{Message: "Malformed form submission."})
		return
	}
	next := safeNext(r.PostFormValue("next"))
	page := views.Page{Form: &f, Errors: errs, Next: next}

	if errs.Any() {
		h.views.Render(w, r, http.StatusOK, views.Login, page)
		return
	}

	user, err := h.Authenticate(r.Context(), f.Email, f.Password)
	switch {
	case errors.Is(err, errUnknownEmail):
		page.Flash = "You have entered a wrong email"
		h.views.Render(w, r, http.StatusUnauthorized, views.Login, page)
		return
	case errors.Is(err, errWrongPassword):
		page.Flash = "Invalid password"
		h.views.Render(w, r, http.StatusUnauthorized, views.Login, page)
		return
	case err != nil:
		h.views.Error(w, r, err)
		return
	}

	if err := h.identity.Login(w, r, user); err != nil {
		h.views.Error(w, r, err)
		return
	}
	h.log.Info("user logged in", "user_id", user.ID)

	if next == "" {
		next = profilePath
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// LoginThrottled is served instead of Login when a client exceeds the login
// rate.
func (h *Handler) LoginThrottled(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusTooManyRequests, views.Login, views.Page{
		Form:  &forms.Login{},
		Flash: "Too many login attempts. Please wait a minute and try again.",
	})
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, views.Register, views.Page{Form: &forms.Register{}})
}

// Register creates a new user and logs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var f forms.Register
	errs, err := forms.Bind(r, &f)
	if err != nil {
		h.views.Render(w, r, http.StatusBadRequest, views.ErrorPg, views.Page{Message: "Malformed form submission."})
		return
	}
	page := views.Page{Form: &f, Errors: errs}
	if errs.Any() {
		h.views.Render(w, r, http.StatusOK, views.Register, page)
		return
	}

	hashed, err := h.hasher.Hash(f.Password)
	if err != nil {
		h.views.Error(w, r, fmt.Errorf("hash password: %w", err))
		return
	}

	user, err := h.users.CreateUser(r.Context(), f.Name, f.Email, hashed)
	if errors.Is(err, models.ErrEmailTaken) {
		errs.Add("email", "An account with this email already exists.")
		h.views.Render(w, r, http.StatusConflict, views.Register, page)
		return
	}
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	h.log.Info("user registered", "user_id", user.ID)

	if err := h.identity.Login(w, r, user); err != nil {
		h.views.Error(w, r, err)
		return
	}
	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}

// Profile shows the current user.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, views.Profile, views.Page{})
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.identity.Logout(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext keeps only same-site absolute paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
