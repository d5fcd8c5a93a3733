// Package api assembles the HTTP surface: routes, the middleware chain and the
// handlers that back them.
package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/eventdesk/internal/api/handlers"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/api/render"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/web"
)

const loginPath = "/login"

// Dependencies are the long-lived services the router serves.
type Dependencies struct {
	Config   config.Config
	Logger   zerolog.Logger
	Users    *users.Store
	Events   *events.Service
	Sessions *auth.SessionManager
	Build    BuildInfo
}

// Router is the assembled HTTP handler. Close stops background work started
// for it.
type Router struct {
	Handler     http.Handler
	RateLimiter *middleware.RateLimiter
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Handler.ServeHTTP(w, req)
}

func (r *Router) Close() {
	if r != nil && r.RateLimiter != nil {
		r.RateLimiter.Stop()
	}
}

func NewRouter(deps Dependencies) (*Router, error) {
	if deps.Users == nil || deps.Events == nil || deps.Sessions == nil {
		return nil, errors.New("router: users, events and sessions are required")
	}

	renderer, err := render.NewRenderer(web.Templates)
	if err != nil {
		return nil, err
	}

	cfg := deps.Config
	logger := deps.Logger
	auditLogger := audit.NewLogger(logger)
	guard := auth.NewGuard(deps.Sessions, deps.Users)
	authenticator := auth.NewAuthenticator(deps.Users, logger)

	authHandler := handlers.NewAuthHandler(authenticator, deps.Sessions, guard, renderer, auditLogger, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(deps.Events, renderer, auditLogger, cfg.Environment)
	health := handlers.NewHealthChecker(deps.Users, deps.Events, deps.Build.Version, deps.Build.GitCommit)

	rl := middleware.NewRateLimiter(cfg.RateLimit)
	requireSession := middleware.RequireSession(guard, deps.Sessions, loginPath)
	formBody := middleware.FormRequestSize()
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)

	guarded := func(h http.HandlerFunc) http.Handler {
		return requireSession(h)
	}
	guardedForm := func(h http.HandlerFunc) http.Handler {
		return requireSession(formBody(h))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", health.Readyz())
	mux.Handle("GET /version", VersionHandler(deps.Build))
	mux.Handle("GET /robots.txt", web.RobotsTxtHandler())
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	mux.HandleFunc("GET /login", authHandler.LoginPage)
	mux.Handle("POST /login", loginTier(rl.Middleware(formBody(http.HandlerFunc(authHandler.Login)))))
	mux.HandleFunc("POST /logout", authHandler.Logout)

	mux.Handle("GET /{$}", guarded(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/events", http.StatusFound)
	}))
	mux.Handle("GET /events", guarded(eventsHandler.List))
	mux.Handle("POST /events", guarded(eventsHandler.Create))
	mux.Handle("GET /events/{id}", guarded(eventsHandler.Get))
	mux.Handle("GET /events/{id}/edit", guarded(eventsHandler.Edit))
	mux.Handle("POST /events/{id}", guardedForm(eventsHandler.Update))
	mux.Handle("POST /events/{id}/delete", guarded(eventsHandler.Delete))
	mux.Handle("POST /events/{id}/favorite", guardedForm(eventsHandler.Favorite))

	// Outermost first: request id and logger, access log, headers, negotiation,
	// public rate limit, tracing, metrics.
	var handler http.Handler = mux
	if cfg.Metrics.Enabled {
		handler = metrics.HTTPMiddleware(handler)
	}
	if cfg.Tracing.Enabled {
		handler = middleware.Tracing(handler)
	}
	handler = rl.Middleware(handler)
	handler = middleware.ContentNegotiation(handler)
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)

	return &Router{Handler: handler, RateLimiter: rl}, nil
}
