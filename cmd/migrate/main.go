package main

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/foodshare/backend/config"
	"github.com/foodshare/backend/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := database.WaitForDatabase(cfg, 60*time.Second); err != nil {
		log.Fatal().Err(err).Msg("database not reachable")
	}
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("migrations applied")
}
