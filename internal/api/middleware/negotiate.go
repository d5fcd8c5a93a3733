package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const contentTypeKey contextKey = "negotiatedContentType"

const (
	ContentJSON = "application/json"
	ContentHTML = "text/html"
)

// ContentNegotiation picks HTML or JSON for the response. Browsers get HTML;
// API clients ask for JSON with Accept or ?format=json.
func ContentNegotiation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := negotiateContentType(r)
		ctx := context.WithValue(r.Context(), contentTypeKey, contentType)
		w.Header().Add("Vary", "Accept")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func NegotiatedContentType(r *http.Request) string {
	if r == nil {
		return ContentHTML
	}
	if value, ok := r.Context().Value(contentTypeKey).(string); ok && value != "" {
		return value
	}
	return negotiateContentType(r)
}

// WantsJSON reports whether the negotiated response type is JSON.
func WantsJSON(r *http.Request) bool {
	return NegotiatedContentType(r) == ContentJSON
}

func negotiateContentType(r *http.Request) string {
	if r == nil {
		return ContentHTML
	}

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "json", ContentJSON:
		return ContentJSON
	case "html", ContentHTML:
		return ContentHTML
	}

	accept := r.Header.Get("Accept")
	if strings.TrimSpace(accept) == "" {
		return ContentHTML
	}

	bestType := ""
	bestQ := -1.0
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(part)
		if mediaType == "" {
			continue
		}

		q := 1.0
		if strings.Contains(mediaType, ";") {
			segments := strings.Split(mediaType, ";")
			mediaType = strings.TrimSpace(segments[0])
			for _, seg := range segments[1:] {
				seg = strings.TrimSpace(seg)
				if strings.HasPrefix(seg, "q=") {
					if parsed, err := strconv.ParseFloat(strings.TrimPrefix(seg, "q="), 64); err == nil {
						q = parsed
					}
				}
			}
		}

		candidate := normalizeMediaType(mediaType)
		if candidate == "" {
			continue
		}
		if q > bestQ {
			bestQ = q
			bestType = candidate
		}
	}

	if bestType == "" {
		return ContentHTML
	}
	return bestType
}

func normalizeMediaType(mediaType string) string {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case ContentJSON, "application/problem+json":
		return ContentJSON
	case ContentHTML, "application/xhtml+xml", "*/*":
		return ContentHTML
	default:
		return ""
	}
}
