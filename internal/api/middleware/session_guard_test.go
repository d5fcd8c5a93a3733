package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentifier struct {
	user users.User
	ok   bool
}

func (s stubIdentifier) Identify(*http.Request) (users.User, bool) {
	return s.user, s.ok
}

type stubClearer struct{}

func (stubClearer) Destroy() *http.Cookie {
	return &http.Cookie{Name: "eventdesk_session", Value: "", MaxAge: -1, Expires: time.Unix(0, 0), Path: "/"}
}

func TestRequireSession_RedirectsWithoutSession(t *testing.T) {
	called := false
	handler := RequireSession(stubIdentifier{}, stubClearer{}, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/events/abc?tab=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called, "protected handler must not run")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirectTo=%2Fevents%2Fabc%3Ftab%3D1", rec.Header().Get("Location"))
	assert.Empty(t, rec.Header().Values("Set-Cookie"), "no cookie to clear")
}

func TestRequireSession_ClearsStaleCookie(t *testing.T) {
	handler := RequireSession(stubIdentifier{}, stubClearer{}, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler ran")
	}))

	req := httptest.NewRequest(http.MethodPost, "/events/abc/delete", nil)
	req.AddCookie(&http.Cookie{Name: "eventdesk_session", Value: "tampered"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "eventdesk_session", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestRequireSession_RootRedirectHasNoTarget(t *testing.T) {
	handler := RequireSession(stubIdentifier{}, nil, "/login")(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireSession_PassesUserThrough(t *testing.T) {
	want := users.User{ID: "user-1", Email: "user@mail.com"}
	var got users.User
	handler := RequireSession(stubIdentifier{user: want, ok: true}, stubClearer{}, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = CurrentUser(r)
		require.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, want, got)
}

func TestRequireSession_GuardedMatchesUnguarded(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("events: B, A"))
	})
	guarded := RequireSession(stubIdentifier{user: users.User{ID: "u"}, ok: true}, stubClearer{}, "/login")(inner)

	plain := httptest.NewRecorder()
	inner.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/events", nil))
	viaGuard := httptest.NewRecorder()
	guarded.ServeHTTP(viaGuard, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, plain.Code, viaGuard.Code)
	assert.Equal(t, plain.Body.String(), viaGuard.Body.String())
	assert.Equal(t, plain.Header(), viaGuard.Header())
}

func TestCurrentUser_Absent(t *testing.T) {
	_, ok := CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	_, ok = CurrentUser(nil)
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), users.User{ID: "x"}))
	user, ok := CurrentUser(req)
	assert.True(t, ok)
	assert.Equal(t, "x", user.ID)
}

func TestSafeRedirectTarget(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{target: "/events/1", want: "/events/1"},
		{target: "/events?q=jazz", want: "/events?q=jazz"},
		{target: "", want: "/"},
		{target: "events", want: "/"},
		{target: "//evil.example", want: "/"},
		{target: "/\\evil.example", want: "/"},
		{target: "https://evil.example/", want: "/"},
		{target: "/events\r\nSet-Cookie: x", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirectTarget(tt.target, "/"))
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login", LoginRedirect("/login", "/"))
	assert.Equal(t, "/login", LoginRedirect("/login", "//evil"))
	assert.Equal(t, "/login?redirectTo=%2Fevents", LoginRedirect("/login", "/events"))
}
