package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. It is loaded once at
// startup and never mutated afterwards.
type Config struct {
	Port        string
	BindAddr    string
	Environment string

	MongoURI string
	DBName   string

	JWTSecret    string
	JWTExpiresIn time.Duration

	RedisURL      string
	RedisPassword string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// Load reads configuration from environment variables, honouring a .env
// file if one is present.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "4000"),
		BindAddr:      getEnv("BIND_ADDR", ""),
		Environment:   getEnv("APP_ENV", "development"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "tourdb"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTExpiresIn:  90 * 24 * time.Hour,
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		SMTPFrom:      getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
	}

	if val := os.Getenv("JWT_EXPIRES_IN_DAYS"); val != "" {
		if days, err := strconv.Atoi(val); err == nil && days > 0 {
			cfg.JWTExpiresIn = time.Duration(days) * 24 * time.Hour
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// IsDevelopment reports whether verbose error responses should be sent.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
