package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/api/render"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

// InvalidLoginMessage is shown for every credential failure so responses never
// reveal whether an email is registered.
const InvalidLoginMessage = "Invalid email or password"

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (users.User, error)
}

type AuthHandler struct {
	Authenticator Authenticator
	Sessions      *auth.SessionManager
	Guard         middleware.Identifier
	Renderer      *render.Renderer
	Audit         *audit.Logger
	Env           string
}

func NewAuthHandler(authenticator Authenticator, sessions *auth.SessionManager, guard middleware.Identifier, renderer *render.Renderer, auditLogger *audit.Logger, env string) *AuthHandler {
	return &AuthHandler{
		Authenticator: authenticator,
		Sessions:      sessions,
		Guard:         guard,
		Renderer:      renderer,
		Audit:         auditLogger,
		Env:           env,
	}
}

type loginResponse struct {
	User      users.User `json:"user"`
	ExpiresAt string     `json:"expires_at"`
}

// LoginPage handles GET /login. Users who already hold a valid session go
// straight to the event list.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.Guard != nil {
		if _, ok := h.Guard.Identify(r); ok {
			http.Redirect(w, r, "/events", http.StatusFound)
			return
		}
	}

	h.renderLogin(w, r, http.StatusOK, "", "", middleware.SafeRedirectTarget(r.URL.Query().Get("redirectTo"), ""))
}

// Login handles POST /login with form fields email, password and redirectTo.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Authenticator == nil || h.Sessions == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Server error", nil, "")
		return
	}
	if !parseForm(w, r, h.Env) {
		return
	}

	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")
	redirectTo := middleware.SafeRedirectTarget(r.PostForm.Get("redirectTo"), "/")

	user, err := h.Authenticator.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrAuthentication) {
			h.Audit.LogRequest(r, audit.ActionLoginFailed, email, "", audit.StatusFailure, map[string]string{"reason": failureReason(err)})
			if middleware.WantsJSON(r) {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, InvalidLoginMessage, nil, h.Env)
				return
			}
			h.renderLogin(w, r, http.StatusUnauthorized, InvalidLoginMessage, email, r.PostForm.Get("redirectTo"))
			return
		}
		writeFailure(w, r, h.Renderer, http.StatusInternalServerError, problem.TypeInternal, "Server error", err, h.Env)
		return
	}

	cookie, err := h.Sessions.Create(user)
	if err != nil {
		writeFailure(w, r, h.Renderer, http.StatusInternalServerError, problem.TypeInternal, "Server error", err, h.Env)
		return
	}
	http.SetCookie(w, cookie)
	h.Audit.LogRequest(r, audit.ActionLogin, user.ID, "", audit.StatusSuccess, nil)
	middleware.LoggerFromContext(r.Context()).Info().Str("user_id", user.ID).Msg("user logged in")

	if middleware.WantsJSON(r) {
		render.JSON(w, http.StatusOK, loginResponse{User: user, ExpiresAt: cookie.Expires.UTC().Format(time.RFC3339)})
		return
	}
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

// Logout handles POST /logout. It always clears the cookie, valid session or not.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.Guard != nil {
		if user, ok := h.Guard.Identify(r); ok {
			h.Audit.LogRequest(r, audit.ActionLogout, user.ID, "", audit.StatusSuccess, nil)
		}
	}
	http.SetCookie(w, h.Sessions.Destroy())

	if middleware.WantsJSON(r) {
		render.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, message, email, redirectTo string) {
	if h.Renderer == nil {
		http.Error(w, message, status)
		return
	}
	data := render.PageData{
		Title:      "Sign in",
		Error:      message,
		Email:      email,
		RedirectTo: middleware.SafeRedirectTarget(redirectTo, ""),
	}
	if err := h.Renderer.HTML(w, status, render.PageLogin, data); err != nil {
		middleware.LoggerFromContext(r.Context()).Error().Err(err).Msg("render login page")
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func failureReason(err error) string {
	if errors.Is(err, auth.ErrUserNotFound) {
		return "unknown_user"
	}
	return "bad_password"
}
