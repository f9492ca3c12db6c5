package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the loaded configuration
type Config struct {
	Env            string
	ListenAddr     string
	BackendURL     string
	RedisURL       string
	SessionSecret  string
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// Load reads configuration from the environment, falling back to defaults.
// A .env file is honored when present so local runs need no exported vars.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	return Config{
		Env:            getEnv("APP_ENV", "development"),
		ListenAddr:     ":" + getEnv("PORT", "8090"),
		BackendURL:     getEnv("SHOP_BACKEND_URL", "http://localhost:8080"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionSecret:  getEnv("SESSION_SECRET", "dev-session-secret"),
		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour*7),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:5173")},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default %s", key, defaultVal)
	}
	return defaultVal
}
