package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks that the values required in the current environment
// are present. Development falls back to permissive defaults so a local
// checkout runs without any secrets mounted.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.DBHost == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.DBName == "" {
		errors = append(errors, "DB_NAME is required")
	}

	switch GetEnvironment() {
	case Production, CI:
		if cfg.DBPassword == "" {
			errors = append(errors, "db_password secret or DB_PASSWORD is required")
		}
		if cfg.JWTSecret == "" {
			errors = append(errors, "jwt_secret secret or JWT_SECRET is required")
		}
	default:
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-secret"
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}
