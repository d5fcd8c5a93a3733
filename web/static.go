// Package web embeds the HTML templates and static files served by eventdesk.
package web

import (
	"embed"
	"net/http"
)

// Templates holds the page templates. layout.html defines "layout"; every
// other file defines "content" for one page.
//
//go:embed templates/*.html
var Templates embed.FS

//go:embed robots.txt
var robotsTxt []byte

// RobotsTxtHandler serves a robots.txt that keeps crawlers out; every page
// sits behind a login.
func RobotsTxtHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(robotsTxt)
	})
}
