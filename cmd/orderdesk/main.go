package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/medatechnology/orderdesk/pkg/config"
	"github.com/medatechnology/orderdesk/pkg/engine"
	"github.com/medatechnology/orderdesk/pkg/handlers"
	"github.com/medatechnology/orderdesk/pkg/middlewares"
	"github.com/medatechnology/orderdesk/pkg/routes"
	"github.com/medatechnology/orderdesk/pkg/storage/memory"
	"github.com/medatechnology/orderdesk/pkg/storage/postgres"
	"github.com/medatechnology/orderdesk/pkg/storage/rqlite"
)

func main() {

	cfg := config.Load()

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting orderdesk",
		"driver", cfg.Driver,
		"port", cfg.Port,
	)

	store := openStore(cfg)
	defer store.Close()

	eng := engine.New(store, logger)

	e := echo.New()
	middlewares.Setup(e, logger)

	h := handlers.New(eng, logger)
	routes.Setup(e, h)

	// Start blocks until the signal context is canceled, then drains
	// in-flight requests for up to GracefulTimeout before returning.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := echo.StartConfig{
		Address:         cfg.Addr(),
		HideBanner:      true,
		GracefulTimeout: 30 * time.Second,
	}
	slog.Info("Server starting", "address", cfg.Addr())
	if err := sc.Start(ctx, e); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// openStore connects the configured backend, falling back to the seeded
// in-memory store when the database is unreachable so the server still
// comes up for local development.
func openStore(cfg *config.Config) engine.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Driver {
	case "postgres":
		pgCfg := postgres.NewConfig(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		store, err := postgres.NewStore(*pgCfg)
		if err != nil {
			slog.Warn("PostgreSQL unavailable, using in-memory store", "error", err)
			return memory.NewWithDefaults()
		}
		if cfg.Bootstrap {
			if err := store.Bootstrap(ctx); err != nil {
				slog.Error("Schema bootstrap failed", "error", err)
				os.Exit(1)
			}
		}
		slog.Info("PostgreSQL connected successfully")
		return store

	case "rqlite":
		rqCfg := rqlite.NewDefaultConfig()
		rqCfg.URL = cfg.RqliteURL
		store, err := rqlite.NewStore(*rqCfg)
		if err != nil {
			slog.Warn("rqlite unavailable, using in-memory store", "error", err)
			return memory.NewWithDefaults()
		}
		if cfg.Bootstrap {
			if err := store.Bootstrap(ctx); err != nil {
				slog.Error("Schema bootstrap failed", "error", err)
				os.Exit(1)
			}
		}
		slog.Info("rqlite connected successfully")
		return store

	default:
		slog.Info("Using in-memory store")
		return memory.NewWithDefaults()
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
