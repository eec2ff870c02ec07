// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all externally supplied settings. Optional integrations
// (Redis, AMQP, AI) are disabled when their URL/key is empty.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	OAuthCallbackURL   string
	FrontendURL        string

	RedisURL string
	AMQPURL  string

	OpenAIKey       string
	OpenAIBaseURL   string
	AIModel         string
	AIFallbackModel string
}

// Load reads .env (if present) and the environment into a Config.
// DatabaseURL and JWTSecret are required.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, relying on OS environment variables")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "5000"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		OAuthCallbackURL:   getEnv("OAUTH_CALLBACK_URL", "http://localhost:5000/api/auth/google/callback"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:8080"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AIModel:            getEnv("AI_MODEL", "gpt-4o-mini"),
		AIFallbackModel:    getEnv("AI_FALLBACK_MODEL", "gpt-3.5-turbo"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if lvl, err := log.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
