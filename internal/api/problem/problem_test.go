package problem

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, res *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var body ProblemDetails
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestWrite_DevIncludesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/events/1", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusNotFound, TypeNotFound, "Event not found", errors.New("boom"), "development")

	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
	assert.Equal(t, http.StatusNotFound, res.Code)
	body := decode(t, res)
	assert.Equal(t, "boom", body.Detail)
	assert.Equal(t, "/events/1", body.Instance)
	assert.Equal(t, TypeNotFound, body.Type)
}

func TestWrite_ProdSanitizesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/events/1", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusBadRequest, TypeValidation, "bad request", errors.New("internal detail"), "production")

	assert.Equal(t, http.StatusText(http.StatusBadRequest), decode(t, res).Detail)
}

func TestWrite_WithErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/events/1", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusBadRequest, TypeValidation, "Invalid event", nil, "production",
		WithErrors(map[string]string{"date": "is not a recognisable date"}),
		WithDetail("fix the highlighted fields"),
	)

	body := decode(t, res)
	assert.Equal(t, "fix the highlighted fields", body.Detail)
	assert.Equal(t, "is not a recognisable date", body.Errors["date"])
}

func TestWrite_LogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(logger.WithContext(req.Context()))

	Write(httptest.NewRecorder(), req, http.StatusInternalServerError, TypeInternal, "Internal error", errors.New("db gone"), "production")

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "db gone")
}
