package middleware

import (
	"net/http"
)

// DefaultMaxBodySize bounds login and event form posts.
const DefaultMaxBodySize int64 = 64 << 10 // 64KB

// RequestSize limits the size of incoming request bodies.
//
// It wraps the request body with http.MaxBytesReader; handlers that read past
// the limit get an error and respond 413 Payload Too Large.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// FormRequestSize applies DefaultMaxBodySize.
func FormRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}
