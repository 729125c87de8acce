package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/foodshare/backend/config"
	"github.com/foodshare/backend/internal/api"
	"github.com/foodshare/backend/internal/middleware"
	"github.com/foodshare/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	cfg    *config.Config
}

// New assembles the router with every middleware and handler wired.
func New(cfg *config.Config, db *gorm.DB, authService *service.AuthService, images *service.ImageService, redisClient *redis.Client) *Server {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	// Locally stored recipe images are served straight from the media dir.
	if cfg.S3Bucket == "" {
		router.Static(cfg.MediaBaseURL, cfg.MediaDir)
	}

	api.RegisterRoutes(router, db, authService, images, redisClient)

	return &Server{
		router: router,
		cfg:    cfg,
	}
}

// Start begins serving and blocks until the listener fails.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.router,
	}
	log.Info().Str("addr", s.http.Addr).Msg("server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
