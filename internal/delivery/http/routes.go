package http

import (
	"github.com/gin-gonic/gin"
	"github.com/grocerymatch/backend/config"
	"github.com/rs/zerolog"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	if cfg.RateLimit.PerIP > 0 {
		v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}
	{
		products := v1.Group("/products")
		{
			products.POST("/similar", handler.FindSimilar)
			products.POST("/score", handler.Score)
			products.POST("/analyze", handler.Analyze)
			products.POST("/standardize", handler.Standardize)
		}

		duplicates := v1.Group("/duplicates")
		{
			duplicates.POST("/detect", handler.DetectDuplicates)
			duplicates.POST("/merge", handler.MergeDuplicates)
			duplicates.POST("/report", handler.DuplicateReport)
		}

		v1.POST("/units/convert", handler.ConvertUnits)
	}

	return router
}
