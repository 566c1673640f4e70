// Command api is the Ella Salon Data API server.
//
// Usage:
//
//	ella-api
//	API_PORT=8080 ella-api

// @title Ella Salon Data API
// @version 1.0.0
// @description Normalizes salon service-sale submissions from Google Forms response tabs into one canonical table and serves filtered, aggregated reports.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Ella Studio
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/ellastudio/ella-data/internal/api"
	"github.com/ellastudio/ella-data/internal/cache"
	"github.com/ellastudio/ella-data/internal/config"
	"github.com/ellastudio/ella-data/internal/loader"
	"github.com/ellastudio/ella-data/internal/notice"
	"github.com/ellastudio/ella-data/internal/sheets"

	_ "github.com/ellastudio/ella-data/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	streams, err := cfg.Streams()
	if err != nil {
		logger.Error("Invalid stream configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Row source: hosted sheet or local workbook export
	source := newSource(cfg, logger)

	// Loader with per-stream memoization
	notices := notice.NewRegistry(logger)
	ld := loader.New(source, streams, notices, cfg.CacheTTL, logger)
	logger.Info("Loader initialized",
		"source", cfg.Source,
		"streams", len(streams),
		"memo_ttl", cfg.CacheTTL)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Create router
	router := api.NewRouter(ld, appCache, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Ella Salon Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

func newSource(cfg *config.Config, logger *slog.Logger) sheets.RowSource {
	if cfg.Source == config.SourceWorkbook {
		return sheets.NewWorkbook(cfg.WorkbookPath, logger)
	}
	return sheets.NewClient(cfg.SheetsBaseURL, cfg.SheetID, cfg.GoogleAPIKey, cfg.SheetsRateLimit, logger)
}
