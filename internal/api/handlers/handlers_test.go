package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/api/render"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/web"
)

var testUser = users.User{ID: "user-1", Email: "user@mail.com"}

func newTestRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	renderer, err := render.NewRenderer(web.Templates)
	require.NoError(t, err)
	return renderer
}

func newTestEvents(t *testing.T) *events.Service {
	t.Helper()
	return events.NewService(events.NewStore(), zerolog.Nop())
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// asUser puts testUser in the request context the way RequireSession does.
func asUser(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), testUser))
}

func jsonRequest(req *http.Request) *http.Request {
	req.Header.Set("Accept", "application/json")
	return req
}

// serve routes req through a mux so PathValue works, wrapped in content negotiation.
func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rec := httptest.NewRecorder()
	middleware.ContentNegotiation(mux).ServeHTTP(rec, req)
	return rec
}

func TestMutationFromForm_OnlyPresentFields(t *testing.T) {
	req := formRequest(http.MethodPost, "/events/x", url.Values{"title": {"Party"}, "location": {""}})
	require.NoError(t, req.ParseForm())

	m := mutationFromForm(req)
	require.NotNil(t, m.Title)
	require.Equal(t, "Party", *m.Title)
	require.NotNil(t, m.Location)
	require.Equal(t, "", *m.Location)
	require.Nil(t, m.Description)
	require.Nil(t, m.Date)
	require.Nil(t, m.Organizer)
	require.Nil(t, m.ID)
}

func TestParseForm_TooLarge(t *testing.T) {
	body := url.Values{"title": {strings.Repeat("x", 1024)}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/events/x", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	require.False(t, parseForm(rec, req, "test"))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
