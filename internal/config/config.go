// Package config provides environment-based configuration.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Port         string
	DatabaseURL  string
	JWTSecret    string
	KafkaBrokers []string
	KafkaTopic   string
	CORSOrigins  []string
}

// Load reads configuration from the environment, first loading a .env
// file when present without overriding existing variables.
func Load() *Config {
	// Missing .env is fine; system environment wins either way.
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8090"),
		DatabaseURL:  getEnv("DATABASE_URL", "host=localhost port=5432 user=supplyhub password=supplyhub dbname=supplyhub sslmode=disable"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		KafkaBrokers: splitEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "supplyhub.events"),
		CORSOrigins:  splitEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetInt reads an integer environment variable with a default.
func GetInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
