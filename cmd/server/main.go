package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/pbixinspect/internal/config"
	"github.com/JonMunkholm/pbixinspect/internal/core"
	_ "github.com/JonMunkholm/pbixinspect/internal/core/rules" // Register best-practice rules
	"github.com/JonMunkholm/pbixinspect/internal/logging"
	"github.com/JonMunkholm/pbixinspect/internal/pbix"
	"github.com/JonMunkholm/pbixinspect/internal/store"
	"github.com/JonMunkholm/pbixinspect/internal/web"
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

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"history_db", cfg.Database.Enabled(),
		"upload_max_size", core.FormatSize(float64(cfg.Upload.MaxFileSize)),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	history, closeHistory, err := store.Open(ctx, &cfg.Database, store.DefaultMemoryCapacity)
	if err != nil {
		slog.Error("failed to open history store", "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	service, err := core.NewService(pbix.New(), history, core.ServiceOptions{
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		CacheSize:     cfg.Analysis.CacheSize,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("rules registered", "count", core.RuleCount())
	for _, rule := range core.AllRules() {
		slog.Debug("rule", "id", rule.ID, "category", rule.Category)
	}

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartHistoryPruner(jobCtx, core.PruneConfig{
		Retention: cfg.History.Retention,
		Interval:  cfg.History.PruneInterval,
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

		// Wait for running extractions (with timeout)
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for extractions to complete", "active", status.Active)
			if err := service.WaitForExtractions(shutdownCtx); err != nil {
				slog.Warn("extractions did not complete in time", "error", err)
			} else {
				slog.Info("all extractions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		closeHistory()
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
