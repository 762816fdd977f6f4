// Package config reads daemon settings from the environment. A missing or
// malformed value falls back to its default; configuration problems degrade
// the deployment, they never stop it.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the daemon.
type Config struct {
	// Server
	Port  int
	Debug bool

	// Level authoring
	LevelsPath string

	// Progress persistence. DBPath selects SQLite; when empty the daemon
	// falls back to JSON files under DataPath.
	DBPath   string
	DataPath string

	// Optional backends; empty disables them.
	DatabaseURL string
	RabbitMQURL string

	// Progress reporting
	ReportEndpoint string
	AppName        string
}

// Load reads configuration, consulting a .env file when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	return &Config{
		Port:           getEnvInt("PORT", 8080),
		Debug:          getEnvBool("DEBUG", false),
		LevelsPath:     getEnv("LEVELS_PATH", "./levels"),
		DBPath:         getEnv("DB_PATH", ""),
		DataPath:       getEnv("DATA_PATH", "./data"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		ReportEndpoint: getEnv("REPORT_ENDPOINT", ""),
		AppName:        getEnv("APP_NAME", "stagekit"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		slog.Warn("ignoring malformed integer setting", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		slog.Warn("ignoring malformed boolean setting", "key", key, "value", value)
	}
	return defaultValue
}
