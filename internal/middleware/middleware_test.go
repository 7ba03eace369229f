package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/taskboard/internal/models"
)

type stubResolver struct{ user *models.User }

func (s stubResolver) Resolve(http.ResponseWriter, *http.Request) *models.User { return s.user }

func TestIdentify_StoresUser(t *testing.T) {
	alice := &models.User{ID: 1, Name: "Alice"}

	var seen *models.User
	h := Identify(stubResolver{user: alice})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CurrentUser(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Same(t, alice, seen)
}

func TestIdentify_AnonymousPassesThrough(t *testing.T) {
	called := false
	h := Identify(stubResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := CurrentUser(r.Context())
		assert.False(t, ok)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	called := false
	h := Identify(stubResolver{})(RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view-task/3", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/log-in?next=%2Fview-task%2F3", rec.Header().Get("Location"))
}

func TestRequireAuth_AllowsAuthenticated(t *testing.T) {
	called := false
	h := Identify(stubResolver{user: &models.User{ID: 7}})(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		u, ok := CurrentUser(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(7), u.ID)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/all-tasks", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPRateLimiter_PerKeyBuckets(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	clock := time.Unix(0, 0)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	clock = clock.Add(time.Minute)
	assert.True(t, l.Allow("1.1.1.1"))
}

func TestIPRateLimiter_SweepsIdle(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	clock := time.Unix(0, 0).Add(time.Hour)
	l.now = func() time.Time { return clock }

	l.Allow("1.1.1.1")
	clock = clock.Add(2 * limiterIdle)
	l.Allow("2.2.2.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "1.1.1.1")
	assert.Contains(t, l.visitors, "2.2.2.2")
}

func TestIPRateLimiter_Limit(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	h := l.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/log-in", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req.RemoteAddr = "10.0.0.1:6666"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestIPRateLimiter_IgnoresForwardedFromUntrustedPeer(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	h := l.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var codes []int
	for _, xff := range []string{"9.9.9.1", "9.9.9.2", "9.9.9.3", "9.9.9.4"} {
		req := httptest.NewRequest(http.MethodPost, "/log-in", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", xff)
		req.Header.Set("X-Real-IP", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestIPRateLimiter_ClientIP(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	require.NoError(t, l.TrustProxies([]string{"10.0.0.0/8", "192.168.1.1"}))

	tests := []struct {
		name   string
		remote string
		xff    []string
		want   string
	}{
		{"no proxy", "203.0.113.7:4000", nil, "203.0.113.7"},
		{"untrusted peer header ignored", "203.0.113.7:4000", []string{"9.9.9.9"}, "203.0.113.7"},
		{"trusted proxy", "10.1.2.3:80", []string{"198.51.100.4"}, "198.51.100.4"},
		{"spoofed left hop ignored", "10.1.2.3:80", []string{"1.2.3.4, 198.51.100.4"}, "198.51.100.4"},
		{"proxy chain", "10.1.2.3:80", []string{"198.51.100.4, 192.168.1.1", "10.9.9.9"}, "198.51.100.4"},
		{"trusted peer without header", "192.168.1.1:80", nil, "192.168.1.1"},
		{"garbage hop", "10.1.2.3:80", []string{"not-an-ip"}, "10.1.2.3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/log-in", nil)
			req.RemoteAddr = tc.remote
			for _, v := range tc.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tc.want, l.clientIP(req))
		})
	}
}

func TestIPRateLimiter_TrustProxiesRejectsGarbage(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	assert.Error(t, l.TrustProxies([]string{"10.0.0.0/99"}))
	assert.Error(t, l.TrustProxies([]string{"proxy.internal"}))
	assert.NoError(t, l.TrustProxies([]string{" ", "::1", "fd00::/8"}))
}
