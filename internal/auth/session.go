package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultSessionCookieName = "eventdesk_session"
	DefaultSessionTTL        = 24 * time.Hour
	defaultIssuer            = "eventdesk"
)

var (
	ErrMissingSecret = errors.New("session secret is required")
	ErrMissingToken  = errors.New("missing token")
	ErrInvalidToken  = errors.New("invalid token")
)

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Issuer     string
	// Secure marks the cookie Secure; set in production.
	Secure bool
}

// Session is the decoded content of a valid session token.
type Session struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionManager issues and verifies signed session tokens. All state lives in
// the token; the manager itself is immutable and safe for concurrent use.
type SessionManager struct {
	key        []byte
	ttl        time.Duration
	cookieName string
	issuer     string
	secure     bool
	parser     *jwt.Parser
	now        func() time.Time
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrMissingSecret
	}
	key, err := DeriveSessionKey([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	m := &SessionManager{
		key:        key,
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		issuer:     cfg.Issuer,
		secure:     cfg.Secure,
		now:        time.Now,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultSessionTTL
	}
	if m.cookieName == "" {
		m.cookieName = DefaultSessionCookieName
	}
	if m.issuer == "" {
		m.issuer = defaultIssuer
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m, nil
}

func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// Encode signs a session token for userID.
func (m *SessionManager) Encode(userID string) (string, Session, error) {
	if userID == "" {
		return "", Session{}, ErrInvalidToken
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, Session{
		UserID:    userID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Decode verifies a token and returns its session.
func (m *SessionManager) Decode(tokenString string) (Session, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Session{}, ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := m.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return Session{}, ErrInvalidToken
	}

	return Session{
		UserID:    claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Create issues a session cookie for an authenticated user.
func (m *SessionManager) Create(user users.User) (*http.Cookie, error) {
	token, session, err := m.Encode(user.ID)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ReadRequest reads the session cookie from r. It returns ErrMissingToken
// when no cookie value is present and ErrInvalidToken when one is present but
// does not verify.
func (m *SessionManager) ReadRequest(r *http.Request) (Session, error) {
	if r == nil {
		return Session{}, ErrMissingToken
	}
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return Session{}, ErrMissingToken
	}
	return m.Decode(cookie.Value)
}

// Destroy returns a cookie that makes the client drop its session token.
func (m *SessionManager) Destroy() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
