package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodshare/backend/internal/middleware"
	"github.com/foodshare/backend/internal/service"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// RegisterRoutes wires every handler under /api, plus health and metrics.
// A nil redisClient disables rate limiting.
func RegisterRoutes(router *gin.Engine, db *gorm.DB, authService *service.AuthService, images *service.ImageService, redisClient *redis.Client) {
	router.GET("/health", HealthCheck)

	// Per-engine registry so repeated engine construction (tests) never
	// collides on collector registration.
	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.Use(metrics.Middleware())

	var writeLimiter *middleware.RateLimiter
	if redisClient != nil {
		writeLimiter = middleware.NewRecipeWriteRateLimiter(redisClient)
	}

	recipeService := service.NewRecipeService(db, images)
	userService := service.NewUserService(db)
	catalogService := service.NewCatalogService(db)

	authHandler := NewAuthHandler(authService)
	recipeHandler := NewRecipeHandler(recipeService, userService, authService, writeLimiter)
	userHandler := NewUserHandler(userService, authService)
	catalogHandler := NewCatalogHandler(catalogService)

	apiGroup := router.Group("/api")
	authHandler.RegisterRoutes(apiGroup)
	recipeHandler.RegisterRoutes(apiGroup)
	userHandler.RegisterRoutes(apiGroup)
	catalogHandler.RegisterRoutes(apiGroup)
}
