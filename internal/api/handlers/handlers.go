// Package handlers implements the HTTP endpoints. Every handler answers in HTML
// for browsers and in JSON when the client negotiates application/json.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/api/render"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}

func currentUser(r *http.Request) *users.User {
	if user, ok := middleware.CurrentUser(r); ok {
		return &user
	}
	return nil
}

// parseForm reports a 413 for oversized bodies and a 400 for anything else.
func parseForm(w http.ResponseWriter, r *http.Request, env string) bool {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypePayloadTooLarge, "Request body too large", err, env)
			return false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid form", err, env)
		return false
	}
	return true
}

// writeFailure answers with a problem document for API clients and the error
// page for browsers.
func writeFailure(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, typ, title string, err error, env string, opts ...problem.Option) {
	if middleware.WantsJSON(r) || renderer == nil {
		problem.Write(w, r, status, typ, title, err, env, opts...)
		return
	}

	if err != nil {
		logger := middleware.LoggerFromContext(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg(title)
	}

	data := render.PageData{Title: title, User: currentUser(r)}
	if status < 500 {
		data.Error = http.StatusText(status)
	}
	if rerr := renderer.HTML(w, status, render.PageError, data); rerr != nil {
		http.Error(w, http.StatusText(status), status)
	}
}
