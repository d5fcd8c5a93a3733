package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/eventdesk/internal/api"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	host string
	port int
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the eventdesk HTTP server",
		Long: `Start the eventdesk HTTP server.

The server will:
- Load configuration from environment variables
- Load users from USERS_FILE or the BOOTSTRAP_* identity
- Seed events from EVENTS_SEED_FILE when set
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  eventdesk serve

  # Start on a specific host and port
  eventdesk serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  eventdesk serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, opts)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, config.NewLogger(cfg.Logging))
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	return cmd
}

func loadConfig(root *rootOptions, opts *serveOptions) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if root != nil {
		if root.logLevel != "" {
			cfg.Logging.Level = root.logLevel
		}
		if root.logFormat != "" {
			cfg.Logging.Format = root.logFormat
		}
	}
	if opts != nil {
		if opts.host != "" {
			cfg.Server.Host = opts.host
		}
		if opts.port != 0 {
			cfg.Server.Port = opts.port
		}
	}
	return cfg, nil
}

func runServer(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting eventdesk")

	if cfg.Metrics.Enabled {
		metrics.Init(Version, GitCommit, BuildDate)
	}

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version, os.Stdout)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	router, err := buildRouter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer router.Close()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return serveHTTP(ctx, newHTTPServer(router), ln, logger)
}

// buildRouter loads users and events and assembles the HTTP handler.
func buildRouter(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*api.Router, error) {
	userStore, err := loadUsers(cfg.Users)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("users", userStore.Len()).Msg("credential store loaded")

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	eventService := events.NewService(events.NewStore(), logger)
	if cfg.Events.SeedFile != "" {
		n, err := eventService.LoadSeedFile(ctx, cfg.Events.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("seed events: %w", err)
		}
		logger.Info().Int("events", n).Str("file", cfg.Events.SeedFile).Msg("events seeded")
	}

	return api.NewRouter(api.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Users:    userStore,
		Events:   eventService,
		Sessions: sessions,
		Build:    api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate},
	})
}

func loadUsers(cfg config.UsersConfig) (*users.Store, error) {
	if cfg.File != "" {
		store, err := users.LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		if store.Len() == 0 {
			return nil, fmt.Errorf("users file %s defines no users", cfg.File)
		}
		return store, nil
	}
	if cfg.BootstrapEmail == "" || cfg.BootstrapPassword == "" {
		return nil, errors.New("no users configured: set USERS_FILE or BOOTSTRAP_EMAIL and BOOTSTRAP_PASSWORD")
	}
	return users.Bootstrap(cfg.BootstrapEmail, cfg.BootstrapPassword, cfg.BootstrapName)
}

func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}
}

// serveHTTP serves on ln until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func serveHTTP(ctx context.Context, server *http.Server, ln net.Listener, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	})

	return g.Wait()
}
