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

	"golang.org/x/sync/errgroup"

	"github.com/starford/articles/internal/api"
	"github.com/starford/articles/internal/articleservice"
	"github.com/starford/articles/internal/mcpserver"
	"github.com/starford/articles/internal/storage"
	"github.com/starford/articles/internal/storage/postgres"
	"github.com/starford/articles/internal/storage/sqlite"
	pkgconfig "github.com/starford/articles/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// runtime is the state shared by the HTTP and MCP entry points.
type runtime struct {
	app    *application
	level  *slog.LevelVar
	logger *slog.Logger
	repo   storage.Repository
	svc    *articleservice.Service
}

func setup(ctx context.Context, opts []Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("log_level", cfg.App.LogLevel.String()))

	repo, err := openRepository(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	return &runtime{
		app:    app,
		level:  level,
		logger: logger,
		repo:   repo,
		svc:    articleservice.NewService(repo, logger),
	}, nil
}

func openRepository(ctx context.Context, cfg DatabaseConfig) (storage.Repository, error) {
	switch cfg.Driver {
	case DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DSN, cfg.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		return db, nil
	case DriverSQLite:
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// reloadConfig re-reads the config file and applies the settings that can
// change at runtime. Only the log level is hot-reloadable.
func (rt *runtime) reloadConfig() error {
	next := NewDefaultConfig()
	if err := pkgconfig.Load(rt.app.configPath, next); err != nil {
		return err
	}
	if prev := rt.level.Level(); prev != next.App.LogLevel {
		rt.level.Set(next.App.LogLevel)
		rt.logger.Info("log level changed",
			slog.String("from", prev.String()),
			slog.String("to", next.App.LogLevel.String()))
	}
	return nil
}

func (rt *runtime) watchConfig(ctx context.Context) error {
	if rt.app.configPath == "" {
		return nil
	}
	if err := pkgconfig.Watch(ctx, rt.app.configPath, rt.logger, rt.reloadConfig); err != nil {
		rt.logger.Warn("config watcher unavailable", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP API with the given options and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.repo.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := rt.app.config
	logger := rt.logger

	router := api.NewRouter(rt.svc, api.Options{
		Logger:  logger,
		Docs:    true,
		Metrics: true,
	})

	httpServer := &http.Server{
		Addr:         cfg.App.HTTP.Address(),
		Handler:      router,
		ReadTimeout:  cfg.App.HTTP.ReadTimeout,
		WriteTimeout: cfg.App.HTTP.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.watchConfig(gCtx)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		waitForShutdown(gCtx, logger)
		defer cancel()

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the article tools over stdio until stdin closes or a
// shutdown signal arrives. Logs go to the configured log output, which must
// not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.repo.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.watchConfig(gCtx)
	})

	g.Go(func() error {
		defer cancel()
		rt.logger.Info("Starting MCP server on stdio")
		return mcpserver.New(rt.svc).ServeStdio(gCtx, os.Stdin, os.Stdout)
	})

	g.Go(func() error {
		waitForShutdown(gCtx, rt.logger)
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		rt.logger.Error("MCP server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}
