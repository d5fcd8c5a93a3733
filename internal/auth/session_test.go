package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-bytes-minimum-length-xx"

func newTestSessions(t *testing.T, cfg SessionConfig) *SessionManager {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = testSecret
	}
	m, err := NewSessionManager(cfg)
	require.NoError(t, err)
	return m
}

func TestNewSessionManager_RequiresSecret(t *testing.T) {
	_, err := NewSessionManager(SessionConfig{})
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewSessionManager(SessionConfig{Secret: "   "})
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewSessionManager_Defaults(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	assert.Equal(t, DefaultSessionCookieName, m.CookieName())

	cookie, err := m.Create(users.User{ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, int(DefaultSessionTTL.Seconds()), cookie.MaxAge)
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestSessions(t, SessionConfig{TTL: time.Hour})

	cookie, err := m.Create(users.User{ID: "user-1", Email: "user@mail.com"})
	require.NoError(t, err)

	session, err := m.Decode(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.False(t, session.IssuedAt.IsZero())
	assert.WithinDuration(t, session.IssuedAt.Add(time.Hour), session.ExpiresAt, time.Second)
}

func TestSessionCookieAttributes(t *testing.T) {
	m := newTestSessions(t, SessionConfig{TTL: 2 * time.Hour, CookieName: "sid"})

	cookie, err := m.Create(users.User{ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "sid", cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 7200, cookie.MaxAge)

	secure := newTestSessions(t, SessionConfig{Secure: true})
	cookie, err = secure.Create(users.User{ID: "user-1"})
	require.NoError(t, err)
	assert.True(t, cookie.Secure)
}

func TestSessionTokenCarriesNoCredentials(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	token, _, err := m.Encode("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	assert.NotContains(t, token, "password")
}

func TestSessionDestroy(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})

	cookie := m.Destroy()
	assert.Equal(t, m.CookieName(), cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.True(t, cookie.Expires.Before(time.Now()))
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	// the client replaces its cookie with the destroyed one
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	_, err := m.ReadRequest(req)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestSessionDecode_RejectsEveryTamperedByte(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	token, _, err := m.Encode("user-1")
	require.NoError(t, err)

	for i := range token {
		tampered := []byte(token)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		session, err := m.Decode(string(tampered))
		assert.Error(t, err, "byte %d accepted", i)
		assert.Empty(t, session.UserID)
	}
}

func TestSessionDecode_Invalid(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	other := newTestSessions(t, SessionConfig{Secret: "another-secret-that-is-long-enough-123"})
	foreign, _, err := other.Encode("user-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "blank", token: "   "},
		{name: "garbage", token: "not-a-token"},
		{name: "two segments", token: "abc.def"},
		{name: "wrong secret", token: foreign},
		{name: "unsigned", token: "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLTEifQ."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Decode(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestSessionDecode_WrongIssuer(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	other := newTestSessions(t, SessionConfig{Issuer: "someone-else"})
	token, _, err := other.Encode("user-1")
	require.NoError(t, err)

	_, err = m.Decode(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionDecode_Expired(t *testing.T) {
	m := newTestSessions(t, SessionConfig{TTL: time.Hour})
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Encode("user-1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Decode(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionEncode_RequiresUserID(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	_, err := m.Create(users.User{})
	require.Error(t, err)
}

func TestSessionReadRequest(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	cookie, err := m.Create(users.User{ID: "user-7"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = m.ReadRequest(req)
	require.ErrorIs(t, err, ErrMissingToken)

	req.AddCookie(cookie)
	session, err := m.ReadRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "user-7", session.UserID)

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: m.CookieName(), Value: "garbage"})
	_, err = m.ReadRequest(bad)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ReadRequest(nil)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestSessionManager_ConcurrentUse(t *testing.T) {
	m := newTestSessions(t, SessionConfig{})
	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			token, _, err := m.Encode("user-1")
			if err != nil {
				return
			}
			_, _ = m.Decode(token)
		}()
	}
	for i := 0; i < 16; i++ {
		<-done
	}
}
