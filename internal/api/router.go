package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elevateai/elevate/internal/api/auth"
	"github.com/elevateai/elevate/internal/api/chat"
	"github.com/elevateai/elevate/internal/api/middleware"
	"github.com/elevateai/elevate/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	JWTSecret    string
	APIKey       string
	TokenTTL     time.Duration
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(registry *service.Registry, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Token minting (admin API key)
	authHandler := auth.NewHandler(cfg.JWTSecret, cfg.TokenTTL)
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.APIKey(cfg.APIKey))
	authHandler.RegisterRoutes(authGroup)

	// Chat API (requires user identity)
	chatHandler := chat.NewHandler(registry, logger)
	chatGroup := r.Group("/api/chat")
	chatGroup.Use(middleware.Auth(cfg.JWTSecret))
	chatHandler.RegisterRoutes(chatGroup)

	return r
}
