package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaychia/coinmeme/internal/api"
	"github.com/jaychia/coinmeme/internal/catalog"
	"github.com/jaychia/coinmeme/internal/config"
	"github.com/jaychia/coinmeme/internal/logger"
	"github.com/jaychia/coinmeme/internal/render"
	"github.com/jaychia/coinmeme/internal/service"
	"github.com/jaychia/coinmeme/internal/topic"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	l := logger.NewDefault()
	logger.SetDefaultLogger(l)
	defer logger.Sync()

	// Caption generation needs a credential; refuse to start without one
	// rather than fail on the first request.
	if cfg.Caption.APIKey == "" {
		logger.Fatal("OPENAI_API_KEY is not set; caption generation cannot work without it")
	}

	// Load the template catalog
	cat, err := catalog.Load(cfg.Catalog.SchemaPath, cfg.Catalog.ImageDir)
	if err != nil {
		logger.Fatal("Failed to load template catalog: %v", err)
	}
	logger.Info("Loaded %d meme templates from %s", cat.Len(), cfg.Catalog.SchemaPath)

	// Load topics
	topics, err := topic.Load(cfg.Catalog.TopicDir)
	if err != nil {
		logger.Fatal("Failed to load topics: %v", err)
	}
	if len(topics) == 0 {
		logger.Warn("No topics found in %s; generation endpoints will have nothing to serve", cfg.Catalog.TopicDir)
	} else {
		logger.Info("Loaded %d topics from %s", len(topics), cfg.Catalog.TopicDir)
	}

	// Initialize caption service
	captionService := service.NewCaptionService(&service.CaptionConfig{
		Model:       cfg.Caption.Model,
		APIKey:      cfg.Caption.APIKey,
		BaseURL:     cfg.Caption.BaseURL,
		Temperature: cfg.Caption.Temperature,
		MaxTokens:   cfg.Caption.MaxTokens,
		Timeout:     cfg.Caption.Timeout(),
		MaxRetries:  cfg.Caption.MaxRetries,
	})

	// Initialize renderer
	renderer, err := render.New(&render.Config{
		JPEGQuality: cfg.Render.JPEGQuality,
		StrokeWidth: cfg.Render.StrokeWidth,
	})
	if err != nil {
		logger.Fatal("Failed to initialize renderer: %v", err)
	}

	// Setup router
	router := api.SetupRouter(cat, topics, captionService, renderer, cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting API server on port %d (mode: %s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
