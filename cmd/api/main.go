package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/foodshare/backend/config"
	"github.com/foodshare/backend/internal/database"
	"github.com/foodshare/backend/internal/server"
	"github.com/foodshare/backend/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if config.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := database.WaitForDatabase(cfg, 30*time.Second); err != nil {
		log.Fatal().Err(err).Msg("database not reachable")
	}
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Image storage: S3 when a bucket is configured, local media dir otherwise.
	var s3cfg *config.S3Config
	if cfg.S3Bucket != "" {
		s3cfg, err = config.NewS3Config(context.Background(), cfg.S3Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure S3")
		}
	}
	images := service.NewImageService(cfg.MediaDir, cfg.MediaBaseURL, s3cfg)

	// Rate limiting is optional; a missing Redis just disables it.
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("rate limiting disabled")
		redisClient = nil
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	srv := server.New(cfg, db, authService, images, redisClient)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
