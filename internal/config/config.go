package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the service configuration, sourced from the environment.
type Config struct {
	Port         string
	Env          string
	DatabaseURL  string
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads an optional .env file and returns the configuration with
// defaults applied. Production environments are expected to set real
// environment variables, so a missing .env is not an error.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "transfer_completed"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
