package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string

	// AutoConfirmAfter is the grace period after which a delivered
	// transaction is confirmed on the buyer's behalf. Zero disables the job.
	AutoConfirmAfter    time.Duration
	AutoConfirmInterval time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		FirebaseProject:     getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:         getEnv("ENVIRONMENT", "development"),
		AutoConfirmAfter:    time.Duration(getEnvAsInt64("AUTO_CONFIRM_AFTER_HOURS", 72)) * time.Hour,
		AutoConfirmInterval: time.Duration(getEnvAsInt64("AUTO_CONFIRM_INTERVAL_MINUTES", 10)) * time.Minute,
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
