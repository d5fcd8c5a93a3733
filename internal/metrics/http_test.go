package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "static path", input: "/events", expected: "/events"},
		{name: "single param", input: "/events/{id}", expected: "/events/{param}"},
		{name: "nested param", input: "/events/{id}/favorite", expected: "/events/{param}/favorite"},
		{name: "empty path", input: "", expected: ""},
		{name: "non-path input", input: "events/{id}", expected: "events/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePath(tt.input))
		})
	}
}

func TestRouteLabel(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, "unmatched", routeLabel(req))

	req.Pattern = "POST /events/{id}/delete"
	assert.Equal(t, "/events/{param}/delete", routeLabel(req))
}
