package auth

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
)

// UserResolver resolves a session subject to a user.
type UserResolver interface {
	ByID(id string) (users.User, error)
}

// Guard decides whether a request belongs to an authenticated user.
type Guard struct {
	Sessions *SessionManager
	Users    UserResolver
}

func NewGuard(sessions *SessionManager, resolver UserResolver) *Guard {
	return &Guard{Sessions: sessions, Users: resolver}
}

// Identify returns the user behind the request's session cookie. A missing or
// invalid token, or a subject that no longer resolves, yields false.
func (g *Guard) Identify(r *http.Request) (users.User, bool) {
	if g == nil || g.Sessions == nil || g.Users == nil || r == nil {
		return users.User{}, false
	}

	session, err := g.Sessions.ReadRequest(r)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, ErrMissingToken) {
			reason = "missing"
		}
		metrics.SessionRejections.WithLabelValues(reason).Inc()
		return users.User{}, false
	}

	user, err := g.Users.ByID(session.UserID)
	if err != nil {
		metrics.SessionRejections.WithLabelValues("unknown_user").Inc()
		return users.User{}, false
	}
	return user, true
}
