package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayush/taskboard/internal/models"
)

// Manager binds sessions to users: it establishes, resolves and tears down
// the identity behind a request's session cookie.
type Manager struct {
	log          *slog.Logger
	sessions     *SessionStore
	users        UserStore
	secureCookie bool
}

func NewManager(log *slog.Logger, sessions *SessionStore, users UserStore, secureCookie bool) *Manager {
	return &Manager{log: log, sessions: sessions, users: users, secureCookie: secureCookie}
}

// Login starts a new session for user and sets the session cookie. Any session
// the request already carried is dropped first.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user *models.User) error {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := m.sessions.Delete(r.Context(), cookie.Value); err != nil {
			m.log.Warn("drop previous session", "error", err)
		}
	}

	sid, err := m.sessions.Create(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	m.setCookie(w, sid)
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.sessions.TTL() / time.Second),
	})
}

// Resolve looks up the user behind the request's session. It returns nil for
// anonymous requests and never fails; backend errors are logged and treated as
// anonymous. With sliding sessions the cookie is re-issued so the browser keeps
// it as long as the server does.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) *models.User {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}

	userID, ok, err := m.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		m.log.Error("session lookup", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	user, err := m.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			m.log.Error("user lookup", "user_id", userID, "error", err)
		}
		return nil
	}
	if m.sessions.Sliding() {
		m.setCookie(w, cookie.Value)
	}
	return user
}

// Logout ends the request's session. Calling it without a session is a no-op
// apart from expiring the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := m.sessions.Delete(r.Context(), cookie.Value); err != nil {
			m.log.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
