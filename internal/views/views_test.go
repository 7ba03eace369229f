package views

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/taskboard/internal/forms"
	"github.com/ayush/taskboard/internal/middleware"
	"github.com/ayush/taskboard/internal/models"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	v, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return v
}

func TestNew_ParsesEveryPage(t *testing.T) {
	v := newRenderer(t)
	for _, name := range pages {
		assert.Contains(t, v.pages, name)
	}
}

func TestRender_SanitizesTaskBody(t *testing.T) {
	v := newRenderer(t)

	task := &models.Task{ID: 4, Title: "T1", AuthorName: "Alice", Body: `<p>B1</p><script>alert(1)</script>`}
	rec := httptest.NewRecorder()
	v.Render(rec, httptest.NewRequest(http.MethodGet, "/view-task/4", nil), http.StatusOK, ViewTask, Page{Task: task})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<p>B1</p>")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, `href="/edit-task/4"`)
}

func TestRender_UsesContextUser(t *testing.T) {
	v := newRenderer(t)

	alice := &models.User{ID: 1, Name: "Alice", Email: "a@x.com"}
	req := httptest.NewRequest(http.MethodGet, "/my-profile", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), alice))

	rec := httptest.NewRecorder()
	v.Render(rec, req, http.StatusOK, Profile, Page{})

	body := rec.Body.String()
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "gravatar.com/avatar/743173788aa9166801df2e18f0e7ff24")
	assert.Contains(t, body, `href="/logout"`)
}

func TestRender_InlineErrors(t *testing.T) {
	v := newRenderer(t)

	rec := httptest.NewRecorder()
	v.Render(rec, httptest.NewRequest(http.MethodPost, "/register", nil), http.StatusOK, Register, Page{
		Form:   &forms.Register{Name: "Alice"},
		Errors: forms.Errors{"re_password": "Passwords must match."},
	})

	body := rec.Body.String()
	assert.Contains(t, body, "Passwords must match.")
	assert.Contains(t, body, `value="Alice"`)
}

func TestError_Mapping(t *testing.T) {
	v := newRenderer(t)

	cases := []struct {
		err  error
		code int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrInvalidTask, http.StatusBadRequest},
		{models.ErrUnauthenticated, http.StatusSeeOther},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		v.Error(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestGravatarURL(t *testing.T) {
	// md5("a@x.com")
	assert.Equal(t,
		"https://www.gravatar.com/avatar/743173788aa9166801df2e18f0e7ff24?s=100&r=g&d=retro",
		GravatarURL(" A@X.com "),
	)
}
