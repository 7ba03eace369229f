package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ayush/taskboard/internal/models"
)

// LoginPath is where anonymous requests to protected routes are sent.
const LoginPath = "/log-in"

type userKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the user resolved for this request by Identify. ok is
// false for anonymous requests.
func CurrentUser(ctx context.Context) (u *models.User, ok bool) {
	u, _ = ctx.Value(userKey{}).(*models.User)
	return u, u != nil
}

// Resolver maps a request to the user behind its session, or nil. It may
// refresh the session cookie on w.
type Resolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) *models.User
}

// Identify resolves the request's identity once and stores it in the
// context. It never rejects a request.
func Identify(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := resolver.Resolve(w, r); u != nil {
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects anonymous requests to the login page before the
// wrapped handler runs. Must be mounted after Identify.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
