package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env into the process environment. A missing file is fine:
// in production everything comes from real environment variables.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found")
	}
}

// GetEnv returns a required environment variable and exits if it is missing.
func GetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("environment variable %s is not set", key)
	}
	return value
}

// GetEnvDefault returns an environment variable or the given fallback.
func GetEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
