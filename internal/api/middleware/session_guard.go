package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

type contextKeyUser string

const userKey contextKeyUser = "user"

// Identifier resolves the user behind a request; auth.Guard implements it.
type Identifier interface {
	Identify(r *http.Request) (users.User, bool)
}

// CookieClearer returns a cookie that removes a stale session.
type CookieClearer interface {
	Destroy() *http.Cookie
}

// RequireSession lets a request through only when identifier recognises its
// session. Otherwise any stale session cookie is cleared and the client is
// sent to loginPath with the original path in redirectTo; next never runs.
func RequireSession(identifier Identifier, clearer CookieClearer, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := identifier.Identify(r)
			if !ok {
				if clearer != nil {
					if cookie := clearer.Destroy(); cookie != nil {
						if _, err := r.Cookie(cookie.Name); err == nil {
							http.SetCookie(w, cookie)
						}
					}
				}
				http.Redirect(w, r, LoginRedirect(loginPath, r.URL.RequestURI()), http.StatusFound)
				return
			}

			zlog := LoggerFromContext(r.Context()).With().Str("user_id", user.ID).Logger()
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = zlog.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the user stored by RequireSession.
func CurrentUser(r *http.Request) (users.User, bool) {
	if r == nil {
		return users.User{}, false
	}
	user, ok := r.Context().Value(userKey).(users.User)
	return user, ok
}

// WithUser stores user in ctx the way RequireSession does.
func WithUser(ctx context.Context, user users.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// LoginRedirect builds loginPath?redirectTo=target, dropping targets that are
// not local paths.
func LoginRedirect(loginPath, target string) string {
	target = SafeRedirectTarget(target, "")
	if target == "" || target == "/" {
		return loginPath
	}
	return loginPath + "?" + url.Values{"redirectTo": {target}}.Encode()
}

// SafeRedirectTarget returns target when it is a path on this site and
// fallback otherwise. Absolute URLs, scheme-relative "//host" and backslash
// tricks are rejected.
func SafeRedirectTarget(target, fallback string) string {
	if target == "" || target[0] != '/' {
		return fallback
	}
	if len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	for i := 0; i < len(target); i++ {
		if target[i] < ' ' || target[i] == '\\' {
			return fallback
		}
	}
	return target
}
