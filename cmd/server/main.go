package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siteops/doc-validator-api/internal/config"
	"github.com/siteops/doc-validator-api/internal/db"
	"github.com/siteops/doc-validator-api/internal/repository"
	"github.com/siteops/doc-validator-api/internal/router"
	"github.com/siteops/doc-validator-api/internal/rules"
	"github.com/siteops/doc-validator-api/internal/services"
	"github.com/siteops/doc-validator-api/internal/storage"
	"github.com/siteops/doc-validator-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabaseFile)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.DatabaseFile, cfg.MigrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Load the rule catalog
	catalog, err := rules.LoadDir(cfg.CatalogDir)
	if err != nil {
		logger.Fatal("Failed to load rule catalog", "error", err)
	}
	for _, warning := range catalog.Warnings {
		logger.Warn("Catalog warning", "warning", warning)
	}
	logger.Info("Rule catalog loaded", "name", catalog.Name, "checks", len(catalog.Checks))

	catalogStore := rules.NewStore(catalog)
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if cfg.WatchCatalog && cfg.CatalogDir != "" {
		go func() {
			if err := catalogStore.Watch(watchCtx, cfg.CatalogDir, logger); err != nil && watchCtx.Err() == nil {
				logger.Error("Catalog watcher stopped", "error", err)
			}
		}()
	}

	// Initialize object storage
	docStorage, err := storage.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", "error", err)
	}

	// Wire services
	repo := repository.NewRepository(database)
	validationService := services.NewValidationService(repo, docStorage, catalogStore, logger)
	analyticsService := services.NewAnalyticsService(repo, cfg.TrendCacheTTL, logger)

	// Setup HTTP router
	handler := router.NewRouter(validationService, analyticsService, cfg.MaxFileSize, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
