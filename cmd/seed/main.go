package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodshare/backend/config"
	"github.com/foodshare/backend/internal/database"
	"github.com/foodshare/backend/internal/models"
)

type ingredientFixture struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type tagFixture struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func seedIngredients(db *gorm.DB, path string) error {
	var fixtures []ingredientFixture
	if err := loadJSON(path, &fixtures); err != nil {
		return err
	}

	rows := make([]models.Ingredient, 0, len(fixtures))
	for _, f := range fixtures {
		rows = append(rows, models.Ingredient{Name: f.Name, MeasurementUnit: f.MeasurementUnit})
	}
	if len(rows) == 0 {
		return nil
	}
	// Re-running the seed skips rows that already exist.
	return db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error
}

func seedTags(db *gorm.DB, path string) error {
	var fixtures []tagFixture
	if err := loadJSON(path, &fixtures); err != nil {
		return err
	}

	rows := make([]models.Tag, 0, len(fixtures))
	for _, f := range fixtures {
		rows = append(rows, models.Tag{Name: f.Name, Color: f.Color, Slug: f.Slug})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func main() {
	ingredientsPath := flag.String("ingredients", "", "path to ingredients JSON fixture")
	tagsPath := flag.String("tags", "", "path to tags JSON fixture")
	flag.Parse()

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

	if *ingredientsPath != "" {
		if err := seedIngredients(db, *ingredientsPath); err != nil {
			log.Fatal().Err(err).Str("path", *ingredientsPath).Msg("failed to seed ingredients")
		}
		log.Info().Str("path", *ingredientsPath).Msg("ingredients seeded")
	}
	if *tagsPath != "" {
		if err := seedTags(db, *tagsPath); err != nil {
			log.Fatal().Err(err).Str("path", *tagsPath).Msg("failed to seed tags")
		}
		log.Info().Str("path", *tagsPath).Msg("tags seeded")
	}
}
