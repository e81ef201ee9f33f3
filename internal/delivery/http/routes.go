package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verre/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := zap.L().Named("access")

	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP)))
	}

	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/localwine", handler.LocalWine)
		api.POST("/wine-search", handler.WineSearch)
		api.GET("/placesPhoto", handler.PlacesPhoto)

		api.POST("/extract", handler.Extract)
		api.POST("/pair", handler.Pair)
		api.POST("/ask", handler.Ask)
	}

	return router
}
