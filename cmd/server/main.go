package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonMunkholm/admingrid/internal/config"
	"github.com/JonMunkholm/admingrid/internal/core"
	"github.com/JonMunkholm/admingrid/internal/core/grids"
	"github.com/JonMunkholm/admingrid/internal/logging"
	"github.com/JonMunkholm/admingrid/internal/store"
	"github.com/JonMunkholm/admingrid/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	core.FetchTimeout = cfg.Database.FetchTimeout

	// Built-in grids register at init; an override file may replace them.
	n, err := grids.LoadOverrides(core.DefaultRegistry, cfg.Grid.DefinitionsFile)
	if err != nil {
		slog.Error("failed to load grid definitions", "file", cfg.Grid.DefinitionsFile, "error", err)
		os.Exit(1)
	}
	if n > 0 {
		slog.Info("grid definitions overridden", "file", cfg.Grid.DefinitionsFile, "count", n)
	}

	ctx := context.Background()

	var source core.RecordSource
	if cfg.Database.UseDemoData() {
		slog.Warn("DATABASE_URL not set, serving demo data")
		source = store.DemoSource(time.Now())
	} else {
		pool, err := store.NewPool(ctx, store.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("connected to database", "max_rows", cfg.Database.MaxRows)
		source = store.NewPostgresSource(pool, cfg.Database.MaxRows)
	}

	service := core.NewService(core.DefaultRegistry, source, core.ServiceOptions{
		SessionTTL:           cfg.Grid.SessionTTL,
		MaxConcurrentExports: cfg.Export.MaxConcurrent,
		ExportWait:           cfg.Export.MaxWaitTime,
		ExportTitle:          cfg.Export.Title,
		PreviewRows:          cfg.Export.PreviewRows,
		Actions: map[string]core.ActionHandler{
			"email": logRecipients,
		},
	})

	// Log registered grids
	reg := service.Registry()
	slog.Info("grids registered", "count", reg.Len(), "groups", len(reg.Groups()))
	for _, group := range reg.Groups() {
		slog.Debug("grid group", "group", group, "grids", len(reg.ByGroup(group)))
	}

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionJanitor(jobCtx, core.JanitorConfig{
		CheckInterval: cfg.Grid.JanitorInterval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running exports finish and end selection streams, which would
		// otherwise hold their connections open past server shutdown.
		if status := service.ExportStatus(); status.Active > 0 {
			slog.Info("waiting for exports to complete", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("exports did not complete in time", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

// logRecipients stands in for a mail integration: it records who a bulk
// email would reach. A selection with no email addresses is refused.
func logRecipients(ctx context.Context, def core.Definition, action core.Action, records []core.Record) error {
	emails := make([]string, 0, len(records))
	for _, rec := range records {
		if e := core.Stringify(core.FieldValue(rec, "email")); e != "" {
			emails = append(emails, e)
		}
	}
	if len(emails) == 0 {
		return core.ErrNoRecipients
	}
	logging.WithFields(ctx, "grid", def.Key, "action", action.Key).
		Info("bulk email queued", "selected", len(records), "recipients", len(emails))
	return nil
}
