package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL            string
	JWTSecret              string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	ServerPort             string
	DefaultTimezone        string
	DefaultWorkMinutes     int
	ManualOverwriteAllowed bool
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:            getEnv("DATABASE_URL", "postgresql://postgres@localhost:5432/attendance"),
		JWTSecret:              getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		AccessTokenExpiration:  time.Duration(getEnvInt("ACCESS_TOKEN_MINUTES", 15)) * time.Minute,
		RefreshTokenExpiration: time.Duration(getEnvInt("REFRESH_TOKEN_HOURS", 168)) * time.Hour,
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		DefaultTimezone:        getEnv("DEFAULT_TIMEZONE", "Asia/Kolkata"),
		DefaultWorkMinutes:     getEnvInt("DEFAULT_WORK_DURATION_MINUTES", 480),
		ManualOverwriteAllowed: getEnvBool("MANUAL_CHECKOUT_OVERWRITE", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
