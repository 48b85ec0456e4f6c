package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/elevateai/elevate/internal/api"
	"github.com/elevateai/elevate/internal/config"
	"github.com/elevateai/elevate/internal/domain"
	"github.com/elevateai/elevate/internal/logging"
	"github.com/elevateai/elevate/internal/repository"
	"github.com/elevateai/elevate/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret must be configured")
	}

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize response provider
	var provider domain.ResponseProvider
	provider, err = service.NewLLMProvider(context.Background(), cfg.LLM)
	if err != nil {
		logger.Warn("Failed to initialize LLM provider, sends will fail with a notice", zap.Error(err))
		provider = service.UnconfiguredProvider{}
	}

	// Per-user chat controllers
	registry := service.NewRegistry(messageRepo, sessionRepo, provider, logger)
	defer registry.Close()

	// Setup router
	router := api.SetupRouter(registry, logger, api.RouterConfig{
		JWTSecret:    cfg.Auth.JWTSecret,
		APIKey:       cfg.Auth.APIKey,
		TokenTTL:     time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: /api/chat/events is a long-lived SSE stream
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting Elevate server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
