// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/atrium/internal/apiclient"
	"github.com/starford/atrium/internal/configwatch"
	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/dashboard"
	"github.com/starford/atrium/internal/journal"
	"github.com/starford/atrium/internal/mcpserver"
	"github.com/starford/atrium/internal/sse"
	"github.com/starford/atrium/internal/web"
	pkgconfig "github.com/starford/atrium/pkg/config"
)

// Env holds what every entry point shares: logger, failure journal and the
// REST client.
type Env struct {
	Config   *Config
	Logger   *slog.Logger
	Level    *slog.LevelVar
	Journal  *journal.DB
	API      *apiclient.Client
	Reporter controller.Reporter

	configPath string
	version    string
}

// Open builds an Env from opts. The caller must Close it.
func Open(opts ...Option) (*Env, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = os.Stdout
	}

	cfg := app.config

	// Initialize structured JSON logger with a reloadable level.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("api_base_url", cfg.API.BaseURL),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	if cfg.Journal.Retention > 0 {
		n, err := db.Prune(context.Background(), time.Now().Add(-cfg.Journal.Retention))
		if err != nil {
			logger.Warn("journal prune failed", slog.String("error", err.Error()))
		} else if n > 0 {
			logger.Info("journal pruned", slog.Int64("entries", n))
		}
	}

	apiOpts := []apiclient.Option{apiclient.WithLogger(logger)}
	if cfg.API.Token != "" {
		apiOpts = append(apiOpts, apiclient.WithToken(cfg.API.Token))
	}
	if cfg.API.RateLimit > 0 {
		apiOpts = append(apiOpts, apiclient.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst))
	}
	api, err := apiclient.New(cfg.API.BaseURL, apiOpts...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &Env{
		Config:  cfg,
		Logger:  logger,
		Level:   level,
		Journal: db,
		API:     api,
		Reporter: controller.MultiReporter{
			controller.SlogReporter{Logger: logger},
			journal.NewReporter(db, logger),
		},
		configPath: app.configPath,
		version:    app.version,
	}, nil
}

// Close releases the journal.
func (e *Env) Close() error {
	return e.Journal.Close()
}

// Dashboard builds a dashboard whose deletes are guarded by confirmer.
func (e *Env) Dashboard(confirmer controller.Confirmer, notifier controller.Notifier) *dashboard.Dashboard {
	return dashboard.New(dashboard.Config{
		API:       e.API,
		Confirmer: confirmer,
		Reporter:  e.Reporter,
		Notifier:  notifier,
		Logger:    e.Logger,
	})
}

// ReloadLogLevel re-reads the configuration file and applies its log level.
func (e *Env) ReloadLogLevel() error {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(e.configPath, cfg); err != nil {
		return err
	}
	if cfg.App.LogLevel != e.Level.Level() {
		e.Logger.Info("log level changed",
			slog.String("from", e.Level.Level().String()),
			slog.String("to", cfg.App.LogLevel.String()))
		e.Level.Set(cfg.App.LogLevel)
	}
	return nil
}

// watchConfig follows the configuration file until ctx is done.
func (e *Env) watchConfig(ctx context.Context) error {
	if e.configPath == "" {
		return nil
	}
	if _, err := os.Stat(e.configPath); err != nil {
		e.Logger.Debug("config watcher disabled", slog.String("path", e.configPath))
		return nil
	}
	if err := configwatch.Watch(ctx, e.configPath, e.Logger, e.ReloadLogLevel); err != nil {
		e.Logger.Warn("config watcher failed", slog.String("error", err.Error()))
	}
	return nil
}

// NewHandler assembles the HTTP handler: chi middleware, health checks and
// the dashboard routes.
func NewHandler(cfg *Config, d *dashboard.Dashboard, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", web.NewRouter(web.Config{
		Dashboard:   d,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      events,
	}))

	return r
}

// Run starts the web dashboard with the given options.
func Run(ctx context.Context, opts ...Option) error {
	env, err := Open(opts...)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Config
	logger := env.Logger

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	d := env.Dashboard(controller.ContextConfirmer, broker)
	d.Mount(ctx)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: NewHandler(cfg, d, broker),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return env.watchConfig(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the run group once the server has been shut down so the
// config watcher stops too.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs must go elsewhere, see
// WithLogOutput.
func RunMCP(ctx context.Context, opts ...Option) error {
	env, err := Open(opts...)
	if err != nil {
		return err
	}
	defer env.Close()

	version := env.version
	if version == "" {
		version = "dev"
	}

	d := env.Dashboard(controller.ContextConfirmer, nil)
	d.Mount(ctx)

	env.Logger.Info("MCP server starting on stdio")
	return mcpserver.New(d, version).ServeStdio()
}
